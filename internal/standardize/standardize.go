// Package standardize converts raw field values into the canonical string
// forms the AIM gateways expect.
package standardize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var expirationPattern = regexp.MustCompile(`^(\d{1,2})([-/])?(\d{2}|\d{4})$`)

// Date normalizes a card expiration date to MM/YY. Accepted inputs are M/YY,
// MM/YY, M/YYYY and MM/YYYY with '-', '/' or no separator. Cards expiring in a
// year before now's year are rejected; the month is not compared.
func Date(v any, now time.Time) (string, bool) {
	s, ok := String(v)
	if !ok {
		return "", false
	}
	m := expirationPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	month, _ := strconv.Atoi(m[1])
	if month < 1 || month > 12 {
		return "", false
	}

	yearText := m[3]
	if len(yearText) == 2 {
		yearText = "20" + yearText
	}
	year, _ := strconv.Atoi(yearText)
	if year < now.Year() {
		return "", false
	}

	return fmt.Sprintf("%02d/%s", month, yearText[2:]), true
}

// Money renders v as a two-decimal amount without currency symbol. Extra
// precision is rounded half away from zero, so "19.999" becomes "20.00".
func Money(v any) (string, bool) {
	d, ok := ParseMoney(v)
	if !ok {
		return "", false
	}
	return d.StringFixed(2), true
}

// ParseMoney parses v into a fixed-point amount. nil, booleans and empty
// strings are not amounts.
func ParseMoney(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil, bool:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint, uint64:
		s, _ := String(x)
		return parseMoneyString(s)
	case float32:
		if !finite(float64(x)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(x), true
	case float64:
		if !finite(x) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case json.Number:
		return parseMoneyString(x.String())
	case string:
		return parseMoneyString(x)
	default:
		return decimal.Decimal{}, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func parseMoneyString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Boolean renders the wire token for a boolean field.
func Boolean(v any) string {
	if Truthy(v) {
		return "TRUE"
	}
	return "FALSE"
}

// Truthy follows the loose rules used for boolean wire fields: false, zero,
// empty strings, "0" and "false" are falsy. Every numeric type is falsy
// exactly when its value is zero.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "false":
			return false
		}
		return true
	case decimal.Decimal:
		return !x.IsZero()
	}
	if s, ok := String(v); ok {
		if d, err := decimal.NewFromString(s); err == nil {
			return !d.IsZero()
		}
	}
	return true
}

// String returns the string form of strings and numeric values. Anything
// else (booleans, nil, composites) has no string form.
func String(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case decimal.Decimal:
		return x.String(), true
	default:
		return "", false
	}
}
