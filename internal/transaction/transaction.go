// Package transaction is the mutable, gateway-independent bag of field values
// a caller builds up for a single payment attempt. It does no validation.
package transaction

import (
	"sort"
	"strings"

	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/schema"
)

// Credentials authenticate the merchant with an AIM-style gateway.
type Credentials struct {
	AccountNumber  string
	TransactionKey string
}

// Transaction is owned by one caller and must not be mutated concurrently.
type Transaction struct {
	profile   *schema.GatewayProfile
	values    map[string]any
	testMode  bool
	validated bool
}

// New resolves the gateway profile and stores the credentials. It fails
// before any field is set if the gateway is unknown or a credential is empty.
func New(gatewayID string, creds Credentials) (*Transaction, error) {
	profile, err := schema.Lookup(gatewayID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(creds.AccountNumber) == "" {
		return nil, &gwerr.ConfigurationError{Gateway: gatewayID, Err: missing("account_number")}
	}
	if strings.TrimSpace(creds.TransactionKey) == "" {
		return nil, &gwerr.ConfigurationError{Gateway: gatewayID, Err: missing("transaction_key")}
	}

	t := &Transaction{profile: profile, values: make(map[string]any)}
	t.values["account_number"] = creds.AccountNumber
	t.values["transaction_key"] = creds.TransactionKey
	return t, nil
}

func missing(field string) error {
	return &missingCredential{field: field}
}

type missingCredential struct{ field string }

func (m *missingCredential) Error() string { return gwerr.ErrMissingCredentials.Error() + ": " + m.field }
func (m *missingCredential) Unwrap() error { return gwerr.ErrMissingCredentials }

func (t *Transaction) Profile() *schema.GatewayProfile { return t.profile }
func (t *Transaction) Gateway() string { return t.profile.ID }

func (t *Transaction) SetTestMode(enable bool) {
	t.testMode = enable
	t.validated = false
}

func (t *Transaction) TestMode() bool { return t.testMode }

// Set overwrites the value of a logical field. A nil value unsets it.
func (t *Transaction) Set(field string, value any) {
	t.validated = false
	if value == nil {
		delete(t.values, field)
		return
	}
	t.values[field] = value
}

// SetDefault stores value only when field is unset. It reports whether it did.
func (t *Transaction) SetDefault(field string, value any) bool {
	if _, ok := t.values[field]; ok || value == nil {
		return false
	}
	t.values[field] = value
	t.validated = false
	return true
}

func (t *Transaction) Get(field string) (any, bool) {
	v, ok := t.values[field]
	return v, ok
}

func (t *Transaction) Has(field string) bool {
	_, ok := t.values[field]
	return ok
}

// Keys returns the set field names in sorted order.
func (t *Transaction) Keys() []string {
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a shallow copy of the field map.
func (t *Transaction) Values() map[string]any {
	out := make(map[string]any, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Clone copies the transaction, including its validated mark.
func (t *Transaction) Clone() *Transaction {
	return &Transaction{
		profile:   t.profile,
		values:    t.Values(),
		testMode:  t.testMode,
		validated: t.validated,
	}
}

// MarkValidated is called by the validator after a clean pass. Any later
// mutation clears the mark.
func (t *Transaction) MarkValidated() { t.validated = true }
func (t *Transaction) Validated() bool { return t.validated }

// SetGatewaySpecificField stores a field outside the common vocabulary.
// Keys missing from the profile are sent to the gateway unchanged.
func (t *Transaction) SetGatewaySpecificField(field string, value any) {
	t.Set(field, value)
}
