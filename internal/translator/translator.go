// Package translator turns a validated transaction into gateway wire fields
// and decodes the gateway's positional response.
package translator

import (
	"fmt"
	"net/url"
	"time"

	"github.com/yourorg/gateway-normalizer/internal/schema"
	"github.com/yourorg/gateway-normalizer/internal/standardize"
	"github.com/yourorg/gateway-normalizer/internal/transaction"
)

// protocolFields are sent with every request and win over caller-set values.
var protocolFields = map[string]string{
	"x_version":        "3.1",
	"x_delim_data":     "TRUE",
	"x_relay_response": "FALSE",
}

// Translate re-keys known fields to their wire names and re-encodes them by
// kind. Unknown fields are passed through under their own key.
func Translate(tx *transaction.Transaction, now time.Time) url.Values {
	profile := tx.Profile()
	form := url.Values{}

	for _, key := range tx.Keys() {
		value, _ := tx.Get(key)
		spec, known := profile.Field(key)
		if !known {
			form.Set(key, passthrough(value))
			continue
		}
		form.Set(spec.WireName, encode(spec, value, now))
	}

	for k, v := range protocolFields {
		form.Set(k, v)
	}
	return form
}

func encode(spec schema.FieldSpec, value any, now time.Time) string {
	switch spec.Kind {
	case schema.KindDate:
		s, _ := standardize.Date(value, now)
		return s
	case schema.KindMoney:
		s, _ := standardize.Money(value)
		return s
	case schema.KindBoolean:
		return standardize.Boolean(value)
	default:
		s, _ := standardize.String(value)
		return s
	}
}

// passthrough renders a field outside the profile the way a plain form
// encoder would: booleans as 1 and 0, everything else by its string form.
func passthrough(value any) string {
	switch x := value.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		if s, ok := standardize.String(x); ok {
			return s
		}
		return fmt.Sprint(x)
	}
}
