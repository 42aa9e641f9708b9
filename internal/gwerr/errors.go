// Package gwerr defines the error kinds surfaced by gateway processing.
// ConfigurationError and ValidationError are raised before anything is sent,
// TransportError when the exchange itself fails, and TransactionError when the
// gateway answered but did not approve.
package gwerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/gateway-normalizer/internal/outcome"
)

var (
	ErrUnknownGateway        = errors.New("unknown gateway")
	ErrGatewayNotImplemented = errors.New("gateway not implemented")
	ErrMissingCredentials    = errors.New("missing gateway credentials")
	ErrMalformedResponse     = errors.New("malformed gateway response")
)

// ConfigurationError is a programmer error detected at construction time.
type ConfigurationError struct {
	Gateway string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Gateway == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error for gateway %q: %v", e.Gateway, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FieldError is a single problem with one logical field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Reason
}

// ValidationError carries every field problem found in one validation pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has at least one error.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// TransactionError is a business outcome: the gateway declined or rejected the transaction.
type TransactionError struct {
	Outcome outcome.Outcome
}

func (e *TransactionError) Error() string {
	return "transaction not approved: " + e.Outcome.String()
}

// Reason is the normalized category; empty for a plain decline.
func (e *TransactionError) Reason() outcome.ReasonCategory {
	return e.Outcome.Reason
}

// TransportError covers network failures and responses that could not be decoded.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
