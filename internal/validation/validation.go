// Package validation checks a transaction against its gateway profile,
// filling defaults and collecting every field problem in a single pass.
package validation

import (
	"fmt"
	"time"

	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/policy"
	"github.com/yourorg/gateway-normalizer/internal/schema"
	"github.com/yourorg/gateway-normalizer/internal/standardize"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
)

const (
	ReasonMissing      = "missing value"
	ReasonNotAllowed   = "must be one of the allowed values"
	ReasonNotString    = "must be a string"
	ReasonTooLong      = "too long"
	ReasonInvalidDate  = "must be a valid month/year"
	ReasonInvalidMoney = "must be a valid monetary amount"
	ReasonNotBoolean   = "must be boolean"
)

// Validator runs transactions against their profiles. The zero value is not
// usable; call New.
type Validator struct {
	now   func() time.Time
	rules *policy.RuleEnforcer
}

type Option func(*Validator)

// WithRules adds conditional requirement rules evaluated after the field
// checks. The rules are compiled immediately; an invalid expression panics.
func WithRules(rules ...schema.Rule) Option {
	return func(v *Validator) {
		if len(rules) > 0 {
			v.rules = policy.MustRuleEnforcer(rules)
		}
	}
}

func New(opts ...Option) *Validator {
	return NewWithClock(time.Now, opts...)
}

// NewWithClock pins the clock used for expiration checks.
func NewWithClock(now func() time.Time, opts ...Option) *Validator {
	if now == nil {
		panic("clock cannot be nil")
	}
	v := &Validator{now: now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns nil when tx is valid and a *gwerr.ValidationError listing
// every problem otherwise. Defaults are filled in either way.
func (v *Validator) Validate(tx *transaction.Transaction) error {
	profile := tx.Profile()

	for _, spec := range profile.Fields() {
		tx.SetDefault(spec.Key, spec.Default)
	}

	var problems []gwerr.FieldError
	failed := make(map[string]bool)

	for _, spec := range profile.Fields() {
		if spec.Required && !tx.Has(spec.Key) {
			problems = append(problems, gwerr.FieldError{Field: spec.Key, Reason: ReasonMissing})
			failed[spec.Key] = true
		}
	}

	now := v.now()
	for _, key := range tx.Keys() {
		spec, known := profile.Field(key)
		if !known {
			continue
		}
		value, _ := tx.Get(key)
		if reason := checkField(spec, value, now); reason != "" {
			problems = append(problems, gwerr.FieldError{Field: key, Reason: reason})
			failed[key] = true
		}
	}

	if v.rules != nil {
		ruleProblems, err := v.rules.Evaluate(tx.Values(), failed)
		if err != nil {
			return fmt.Errorf("validation: %w", err)
		}
		problems = append(problems, ruleProblems...)
	}

	if len(problems) > 0 {
		return &gwerr.ValidationError{Fields: problems}
	}
	tx.MarkValidated()
	return nil
}

// checkField applies the per-field checks in order and stops at the first failure.
func checkField(spec schema.FieldSpec, value any, now time.Time) string {
	if len(spec.AllowedValues) > 0 && !spec.Allows(value) {
		return ReasonNotAllowed
	}
	str, isString := standardize.String(value)
	if spec.Kind == schema.KindString && !isString {
		return ReasonNotString
	}
	if spec.MaxLength > 0 && isString && len(str) > spec.MaxLength {
		return ReasonTooLong
	}
	switch spec.Kind {
	case schema.KindDate:
		if _, ok := standardize.Date(value, now); !ok {
			return ReasonInvalidDate
		}
	case schema.KindMoney:
		if _, ok := standardize.Money(value); !ok {
			return ReasonInvalidMoney
		}
	case schema.KindBoolean:
		if _, ok := value.(bool); !ok {
			return ReasonNotBoolean
		}
	}
	return ""
}
