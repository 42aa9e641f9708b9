package logger

import "strings"

// MaskCard keeps the last four digits of a card number.
func MaskCard(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// Secret hides a credential entirely but records whether it was present.
func Secret(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}
