// Package helpers provides common utility functions used across the codebase.
package helpers

import (
	"fmt"

	"github.com/holiman/uint256"
)

// FormatUnits formats a 256-bit amount in smallest units as a decimal
// string with the given number of decimals. For example,
// FormatUnits(1_000000000000000000, 18) returns "1".
func FormatUnits(amount *uint256.Int, decimals uint8) string {
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	if decimals == 0 {
		return amount.Dec()
	}

	divisor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	whole := new(uint256.Int).Div(amount, divisor)
	frac := new(uint256.Int).Mod(amount, divisor)

	if frac.IsZero() {
		return whole.Dec()
	}

	fracStr := fmt.Sprintf("%0*s", int(decimals), frac.Dec())
	for len(fracStr) > 0 && fracStr[len(fracStr)-1] == '0' {
		fracStr = fracStr[:len(fracStr)-1]
	}

	return fmt.Sprintf("%s.%s", whole.Dec(), fracStr)
}

// ParseUnits parses a decimal string into smallest units with the given
// number of decimals. For example, ParseUnits("1", 18) returns 1e18.
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty amount string")
	}

	wholeStr, fracStr := s, ""
	for i, c := range s {
		if c == '.' {
			wholeStr, fracStr = s[:i], s[i+1:]
			break
		}
	}
	if wholeStr == "" {
		wholeStr = "0"
	}

	for _, c := range wholeStr {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid character in amount: %c", c)
		}
	}
	for _, c := range fracStr {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid character in amount: %c", c)
		}
	}
	for len(fracStr) < int(decimals) {
		fracStr += "0"
	}
	if len(fracStr) > int(decimals) {
		fracStr = fracStr[:decimals]
	}

	combined := wholeStr + fracStr
	if combined == "" {
		combined = "0"
	}

	amount, err := uint256.FromDecimal(combined)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	return amount, nil
}
