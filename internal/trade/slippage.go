package trade

import (
	"fmt"
	"math"
	"math/big"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
)

// Slippage tolerance bounds, in percent.
const (
	MinSlippagePercent = 0.1
	MaxSlippagePercent = 50.0
)

// slippageScale is the integer denominator once the percentage has been
// quantized to thousandths of a percent. All bound arithmetic happens in
// big.Int from that point on.
const slippageScale = 100 * 1000

// ValidateSlippage rejects tolerances outside [0.1, 50] percent.
func ValidateSlippage(percent float64) error {
	if math.IsNaN(percent) || math.IsInf(percent, 0) ||
		percent < MinSlippagePercent || percent > MaxSlippagePercent {
		return apperr.New(apperr.KindInvalidSlippage,
			fmt.Sprintf("slippage must be between %.1f and %.0f percent, got %v",
				MinSlippagePercent, MaxSlippagePercent, percent))
	}
	return nil
}

// MinOut converts an expected output and a slippage tolerance into the
// minimum acceptable output: floor(expected * (100 - slippage) / 100).
// The division always floors, so the bound never exceeds the quote.
func MinOut(expectedOut *big.Int, slippagePercent float64) (*big.Int, error) {
	if err := ValidateSlippage(slippagePercent); err != nil {
		return nil, err
	}
	if expectedOut == nil || expectedOut.Sign() < 0 {
		return nil, fmt.Errorf("expected output must be a non-negative amount")
	}

	milliPct := int64(math.Round(slippagePercent * 1000))
	keep := big.NewInt(slippageScale - milliPct)

	minOut := new(big.Int).Mul(expectedOut, keep)
	return minOut.Quo(minOut, big.NewInt(slippageScale)), nil
}
