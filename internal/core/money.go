package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a user-entered decimal amount to cents.
// Both "12.34" and "12,34" are accepted; anything beyond two fractional
// digits is half-up rounded. Signs are rejected outright: direction belongs
// to the transaction type, so only strictly positive amounts parse.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > (1<<63-1)/100 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}
	cents := iv*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Euros returns the amount as a float for display and JSON payloads.
// Calculations stay in cents.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}
