// Package policy evaluates conditional requirement rules against a
// transaction's field values. Rules are govaluate expressions over the
// logical field names; for every field f the parameter has_f is also bound.
package policy

import (
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/schema"
)

type compiledRule struct {
	rule       schema.Rule
	expression *govaluate.EvaluableExpression
}

// RuleEnforcer holds a compiled rule set. It is safe for concurrent use.
type RuleEnforcer struct {
	rules []compiledRule
}

// NewRuleEnforcer compiles rules. Empty or unparsable expressions are errors.
func NewRuleEnforcer(rules []schema.Rule) (*RuleEnforcer, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Expression) == "" {
			return nil, fmt.Errorf("policy rule ID '%s' has an empty expression", r.ID)
		}
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule ID '%s': %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: r, expression: expr})
	}
	return &RuleEnforcer{rules: compiled}, nil
}

// MustRuleEnforcer is NewRuleEnforcer for rule sets known at compile time.
func MustRuleEnforcer(rules []schema.Rule) *RuleEnforcer {
	e, err := NewRuleEnforcer(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate returns one FieldError per matching rule. Rules whose field is in
// skip are not evaluated. A rule that does not yield a boolean is an error.
func (e *RuleEnforcer) Evaluate(values map[string]any, skip map[string]bool) ([]gwerr.FieldError, error) {
	params := fieldParameters(values)
	var out []gwerr.FieldError
	for _, cr := range e.rules {
		if skip[cr.rule.Field] {
			continue
		}
		result, err := cr.expression.Eval(params)
		if err != nil {
			return nil, fmt.Errorf("evaluating rule ID '%s': %w", cr.rule.ID, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("rule ID '%s' did not evaluate to a boolean (got %T)", cr.rule.ID, result)
		}
		if matched {
			out = append(out, gwerr.FieldError{Field: cr.rule.Field, Reason: cr.rule.Reason})
			skip = withSkip(skip, cr.rule.Field)
		}
	}
	return out, nil
}

func withSkip(skip map[string]bool, field string) map[string]bool {
	next := make(map[string]bool, len(skip)+1)
	for k, v := range skip {
		next[k] = v
	}
	next[field] = true
	return next
}

// fieldParameters binds unset fields to the empty string so rules can refer to
// any field without tripping govaluate's missing-parameter error.
type fieldParameters map[string]any

func (p fieldParameters) Get(name string) (interface{}, error) {
	if field, ok := strings.CutPrefix(name, "has_"); ok {
		_, set := p[field]
		if set {
			return true, nil
		}
		if _, literal := p[name]; !literal {
			return false, nil
		}
	}
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", nil
}
