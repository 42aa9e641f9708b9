// Package schema holds the per-gateway field dictionaries. Profiles are
// built once at init and shared read-only between transactions.
package schema

import (
	"github.com/yourorg/gateway-normalizer/internal/gwerr"
)

// Kind is the value type a field is normalized as.
type Kind int

const (
	KindString Kind = iota
	KindMoney
	KindBoolean
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindMoney:
		return "money"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// FieldSpec is the validation and translation rule for one logical field.
type FieldSpec struct {
	Key           string
	WireName      string
	Required      bool
	Default       any // nil means no default
	Kind          Kind
	MaxLength     int // 0 means unbounded
	AllowedValues []string
}

// Allows reports whether v is in the closed value set. Fields without a set allow anything.
func (f FieldSpec) Allows(v any) bool {
	if len(f.AllowedValues) == 0 {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, allowed := range f.AllowedValues {
		if s == allowed {
			return true
		}
	}
	return false
}

// Rule is an optional conditional requirement evaluated after the field
// checks. When Expression is true and Field has no error yet, Reason is
// reported for Field. Profiles carry no rules; validators opt in.
type Rule struct {
	ID         string
	Expression string
	Field      string
	Reason     string
}

// GatewayProfile is a named, immutable set of FieldSpecs.
type GatewayProfile struct {
	ID       string
	Endpoint string
	// SandboxCard marks the gateway whose test mode swaps in a known-good card.
	SandboxCard bool
	// CannedResponse, when set, replaces the network call in test mode.
	CannedResponse string

	fields []FieldSpec
	index  map[string]int
}

func newProfile(id, endpoint string, fields []FieldSpec) *GatewayProfile {
	p := &GatewayProfile{
		ID:       id,
		Endpoint: endpoint,
		fields:   fields,
		index:    make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := p.index[f.Key]; dup {
			panic("schema: duplicate field key " + f.Key + " in profile " + id)
		}
		p.index[f.Key] = i
	}
	return p
}

// Field returns the FieldSpec for key.
func (p *GatewayProfile) Field(key string) (FieldSpec, bool) {
	i, ok := p.index[key]
	if !ok {
		return FieldSpec{}, false
	}
	return p.fields[i], true
}

// Fields returns a copy of the profile's specs in declaration order.
func (p *GatewayProfile) Fields() []FieldSpec {
	out := make([]FieldSpec, len(p.fields))
	copy(out, p.fields)
	return out
}

const (
	AuthorizeNet = "authorize_net"
	SecurePay    = "secure_pay"
	PayflowPro   = "payflow_pro"
)

// Lookup resolves a gateway identifier to its profile.
func Lookup(id string) (*GatewayProfile, error) {
	if p, ok := registry[id]; ok {
		return p, nil
	}
	if id == PayflowPro {
		return nil, &gwerr.ConfigurationError{Gateway: id, Err: gwerr.ErrGatewayNotImplemented}
	}
	return nil, &gwerr.ConfigurationError{Gateway: id, Err: gwerr.ErrUnknownGateway}
}

// Supported lists the identifiers Lookup resolves.
func Supported() []string {
	return []string{AuthorizeNet, SecurePay}
}
