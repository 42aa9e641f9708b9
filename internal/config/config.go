// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Gateway    GatewayConfig
	Circuit    CircuitConfig
	Reporting  ReportingConfig
	OTel       OTelConfig
	Validation ValidationConfig
	Contract   ContractConfig
}

type AppConfig struct {
	Environment string `validate:"required,oneof=development test staging production"`
}

type ServerConfig struct {
	Port int `validate:"min=1,max=65535"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// GatewayConfig describes the default merchant's gateway account.
type GatewayConfig struct {
	ID               string        `validate:"required,oneof=authorize_net secure_pay"`
	AccountNumber    string        `validate:"required"`
	TransactionKey   string        `validate:"required"`
	TestMode         bool
	Timeout          time.Duration `validate:"gt=0"`
	EndpointOverride string        `validate:"omitempty,url"`
}

// CircuitConfig controls the transport circuit breaker. A zero threshold disables it.
type CircuitConfig struct {
	FailureThreshold int           `validate:"gte=0"`
	OpenTimeout      time.Duration `validate:"gte=0"`
}

type ReportingConfig struct {
	// DatabaseURL selects the Postgres store; empty keeps entries in memory.
	DatabaseURL string
}

type OTelConfig struct {
	Enabled     bool
	ServiceName string `validate:"required"`
}

// ValidationConfig enables optional conditional rules on top of the gateway field tables.
type ValidationConfig struct {
	FollowUpRules bool
}

type ContractConfig struct {
	// SchemaPath replaces the embedded request schema with a JSON schema file.
	SchemaPath string
}

// Load reads files (default .env) if present, then the environment, then
// applies defaults and validates the result. Variables already set in the
// environment win over file values.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Environment: v.GetString("APP_ENV"),
		},
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Gateway: GatewayConfig{
			ID:               v.GetString("GATEWAY"),
			AccountNumber:    v.GetString("GATEWAY_ACCOUNT_NUMBER"),
			TransactionKey:   v.GetString("GATEWAY_TRANSACTION_KEY"),
			TestMode:         v.GetBool("GATEWAY_TEST_MODE"),
			Timeout:          v.GetDuration("GATEWAY_TIMEOUT"),
			EndpointOverride: v.GetString("GATEWAY_ENDPOINT_OVERRIDE"),
		},
		Circuit: CircuitConfig{
			FailureThreshold: v.GetInt("CIRCUIT_FAILURE_THRESHOLD"),
			OpenTimeout:      v.GetDuration("CIRCUIT_OPEN_TIMEOUT"),
		},
		Reporting: ReportingConfig{
			DatabaseURL: v.GetString("REPORT_DATABASE_URL"),
		},
		OTel: OTelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
		Validation: ValidationConfig{
			FollowUpRules: v.GetBool("VALIDATION_FOLLOW_UP_RULES"),
		},
		Contract: ContractConfig{
			SchemaPath: v.GetString("CONTRACT_SCHEMA_PATH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", 8080)

	v.SetDefault("GATEWAY", "authorize_net")
	v.SetDefault("GATEWAY_TEST_MODE", false)
	v.SetDefault("GATEWAY_TIMEOUT", "30s")

	v.SetDefault("CIRCUIT_FAILURE_THRESHOLD", 5)
	v.SetDefault("CIRCUIT_OPEN_TIMEOUT", "30s")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "gateway-normalizer")

	v.SetDefault("VALIDATION_FOLLOW_UP_RULES", false)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags on every section.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
