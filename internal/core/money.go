// Package core provides the finance domain types shared across the editor,
// backend adapters and storage.
//
// This file contains parsing and formatting for monetary amounts. Amounts are
// carried as signed cents: expense and income rows coexist in one draft list,
// so the sign is meaningful and preserved.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money wraps an amount in cents for display and aggregation.
type Money struct {
	Cents int64
}

// ParseSignedCents converts a decimal string to signed cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an optional
// leading sign, and performs half-up rounding on the third decimal place.
// Returns an error for malformed input.
//
// Examples:
//
//	ParseSignedCents("12.34")  -> 1234, nil
//	ParseSignedCents("-12,34") -> -1234, nil
//	ParseSignedCents("12.346") -> 1235, nil (rounds up)
func ParseSignedCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")

	sign := int64(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}

	// Split into integer and fractional part
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	// Convert integer part - check for overflow
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	return sign * (iv*100 + fracCents), nil
}

// FormatCents renders cents as a decimal string for display, e.g. -1234 -> "-12.34".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Units returns the whole-unit value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}
