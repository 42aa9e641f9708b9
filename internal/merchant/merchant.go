// Package merchant holds per-merchant gateway configuration.
package merchant

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yourorg/gateway-normalizer/internal/schema"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
)

var ErrNotFound = errors.New("merchant config not found")

// Config is the static gateway setup for one merchant.
type Config struct {
	ID          string
	Gateway     string
	Credentials transaction.Credentials
	TestMode    bool
}

// Validate checks that the gateway is one this build can talk to.
func (c Config) Validate() error {
	if c.ID == "" {
		return errors.New("merchant config has an empty ID")
	}
	if _, err := schema.Lookup(c.Gateway); err != nil {
		return fmt.Errorf("merchant %s: %w", c.ID, err)
	}
	return nil
}

// Repository fetches merchant configurations.
type Repository interface {
	Get(merchantID string) (Config, error)
}

// InMemoryRepository is a Repository backed by a map. It is safe for concurrent use.
type InMemoryRepository struct {
	mu      sync.RWMutex
	configs map[string]Config
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		configs: make(map[string]Config),
	}
}

// AddConfig stores config, replacing any previous config with the same ID.
func (r *InMemoryRepository) AddConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.configs[config.ID] = config
	r.mu.Unlock()
	return nil
}

func (r *InMemoryRepository) Get(merchantID string) (Config, error) {
	r.mu.RLock()
	config, ok := r.configs[merchantID]
	r.mu.RUnlock()
	if !ok {
		return Config{}, fmt.Errorf("%w for ID: %s", ErrNotFound, merchantID)
	}
	return config, nil
}
