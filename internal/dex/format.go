package dex

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a raw token amount in whole units, trimming trailing zeros.
func FormatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

// ParseAmount converts a human amount such as "1.5" into raw units. More
// fractional digits than decimals is an error rather than a silent truncation.
func ParseAmount(text string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", text, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("parse amount %q: negative", text)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("parse amount %q: more than %d decimals", text, decimals)
	}
	return scaled.BigInt(), nil
}

// PriceImpact returns the percentage by which the execution price of a swap
// falls short of the pool's spot price, rounded to four places.
func PriceImpact(amountIn, amountOut, reserveIn, reserveOut *big.Int) decimal.Decimal {
	if amountIn == nil || amountOut == nil || reserveIn == nil || reserveOut == nil ||
		amountIn.Sign() == 0 || reserveIn.Sign() == 0 {
		return decimal.Zero
	}
	spot := decimal.NewFromBigInt(reserveOut, 0).Div(decimal.NewFromBigInt(reserveIn, 0))
	if spot.IsZero() {
		return decimal.Zero
	}
	exec := decimal.NewFromBigInt(amountOut, 0).Div(decimal.NewFromBigInt(amountIn, 0))
	hundred := decimal.NewFromInt(100)
	return decimal.NewFromInt(1).Sub(exec.Div(spot)).Mul(hundred).Round(4)
}
