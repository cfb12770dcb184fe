package models

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// NativeDecimals is the base-unit scale of the chain's native coin.
const NativeDecimals = 18

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseAmount converts a decimal string like "1.5" into base units for the
// given token decimals. Pure string/big.Int arithmetic; no floats.
func ParseAmount(decimal string, decimals int) (*big.Int, error) {
	decimal = strings.TrimSpace(decimal)
	if !decimalPattern.MatchString(decimal) {
		return nil, fmt.Errorf("amount must be in decimal form like 1.23, got %q", decimal)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("decimals must be >= 0")
	}

	parts := strings.SplitN(decimal, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("amount precision exceeds token decimals (%d)", decimals)
	}

	combined := intPart + fracPart + strings.Repeat("0", decimals-len(fracPart))
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		combined = "0"
	}
	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", decimal)
	}
	return n, nil
}

// FormatAmount renders base units as a decimal string with trailing zeros
// trimmed, e.g. 1500000000000000000 with 18 decimals -> "1.5".
func FormatAmount(n *big.Int, decimals int) string {
	if n == nil {
		return "0"
	}
	s := new(big.Int).Abs(n).String()
	sign := ""
	if n.Sign() < 0 {
		sign = "-"
	}
	if decimals == 0 {
		return sign + s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	intPart := s[:len(s)-decimals]
	fracPart := strings.TrimRight(s[len(s)-decimals:], "0")
	if fracPart == "" {
		return sign + intPart
	}
	return sign + intPart + "." + fracPart
}
