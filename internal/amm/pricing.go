// Package amm implements constant-product pricing for Uniswap V2 style pools.
package amm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Fee is the proportional swap fee expressed as the fraction of the input that
// reaches the curve. Uniswap V2 uses 997/1000 (0.3%).
type Fee struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFee is the Uniswap V2 protocol fee.
var DefaultFee = Fee{Numerator: 997, Denominator: 1000}

// Validate checks that the fee is a proper fraction in (0, 1].
func (f Fee) Validate() error {
	if f.Denominator == 0 || f.Numerator == 0 || f.Numerator > f.Denominator {
		return fmt.Errorf("%w: %d/%d", ErrInvalidFee, f.Numerator, f.Denominator)
	}
	return nil
}

// Reserves is one hop of a path, oriented from the input token to the output token.
type Reserves struct {
	In  *big.Int
	Out *big.Int
}

// Pricer computes swap amounts for a fixed fee.
type Pricer struct {
	num *uint256.Int
	den *uint256.Int
}

// NewPricer builds a Pricer for fee.
func NewPricer(fee Fee) (*Pricer, error) {
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	return &Pricer{
		num: uint256.NewInt(fee.Numerator),
		den: uint256.NewInt(fee.Denominator),
	}, nil
}

var defaultPricer, _ = NewPricer(DefaultFee)

// GetAmountOut prices an exact-input swap with the default fee.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return defaultPricer.GetAmountOut(amountIn, reserveIn, reserveOut)
}

// GetAmountIn prices an exact-output swap with the default fee.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return defaultPricer.GetAmountIn(amountOut, reserveIn, reserveOut)
}

// GetAmountOut returns floor(in*num*rOut / (rIn*den + in*num)).
func (p *Pricer) GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	in, rIn, rOut, err := toU256("getAmountOut", amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if in.IsZero() {
		return nil, ErrInsufficientInputAmount
	}
	if rIn.IsZero() || rOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}

	inWithFee, overflow := new(uint256.Int).MulOverflow(in, p.num)
	if overflow {
		return nil, &OverflowError{Op: "amountIn*feeNumerator"}
	}
	numerator, overflow := new(uint256.Int).MulOverflow(inWithFee, rOut)
	if overflow {
		return nil, &OverflowError{Op: "amountInWithFee*reserveOut"}
	}
	denominator, overflow := new(uint256.Int).MulOverflow(rIn, p.den)
	if overflow {
		return nil, &OverflowError{Op: "reserveIn*feeDenominator"}
	}
	if _, overflow = denominator.AddOverflow(denominator, inWithFee); overflow {
		return nil, &OverflowError{Op: "denominator"}
	}

	out := new(uint256.Int).Div(numerator, denominator)
	return out.ToBig(), nil
}

// GetAmountIn returns floor(rIn*out*den / ((rOut-out)*num)) + 1.
func (p *Pricer) GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	out, rIn, rOut, err := toU256("getAmountIn", amountOut, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if out.IsZero() {
		return nil, ErrInsufficientOutputAmount
	}
	if rIn.IsZero() || rOut.IsZero() || !out.Lt(rOut) {
		return nil, ErrInsufficientLiquidity
	}

	numerator, overflow := new(uint256.Int).MulOverflow(rIn, out)
	if overflow {
		return nil, &OverflowError{Op: "reserveIn*amountOut"}
	}
	if _, overflow = numerator.MulOverflow(numerator, p.den); overflow {
		return nil, &OverflowError{Op: "numerator*feeDenominator"}
	}
	remaining := new(uint256.Int).Sub(rOut, out)
	denominator, overflow := new(uint256.Int).MulOverflow(remaining, p.num)
	if overflow {
		return nil, &OverflowError{Op: "(reserveOut-amountOut)*feeNumerator"}
	}

	in := new(uint256.Int).Div(numerator, denominator)
	if _, overflow = in.AddOverflow(in, uint256.NewInt(1)); overflow {
		return nil, &OverflowError{Op: "amountIn+1"}
	}
	return in.ToBig(), nil
}

// GetAmountsOut chains exact-input quotes across hops. The result has one
// more element than hops; the first is amountIn.
func (p *Pricer) GetAmountsOut(amountIn *big.Int, hops []Reserves) ([]*big.Int, error) {
	if len(hops) == 0 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*big.Int, len(hops)+1)
	amounts[0] = new(big.Int).Set(amountIn)
	for i, hop := range hops {
		out, err := p.GetAmountOut(amounts[i], hop.In, hop.Out)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// GetAmountsIn chains exact-output quotes backwards across hops. The last
// element is amountOut.
func (p *Pricer) GetAmountsIn(amountOut *big.Int, hops []Reserves) ([]*big.Int, error) {
	if len(hops) == 0 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*big.Int, len(hops)+1)
	amounts[len(hops)] = new(big.Int).Set(amountOut)
	for i := len(hops) - 1; i >= 0; i-- {
		in, err := p.GetAmountIn(amounts[i+1], hops[i].In, hops[i].Out)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		amounts[i] = in
	}
	return amounts, nil
}

// CheckMinOut fails when out is below minOut. A nil minOut accepts any value.
func CheckMinOut(out, minOut *big.Int) error {
	if minOut == nil || out.Cmp(minOut) >= 0 {
		return nil
	}
	return &SlippageError{Bound: "min_out", Computed: new(big.Int).Set(out), Limit: new(big.Int).Set(minOut)}
}

// CheckMaxIn fails when in exceeds maxIn. A nil maxIn accepts any value.
func CheckMaxIn(in, maxIn *big.Int) error {
	if maxIn == nil || in.Cmp(maxIn) <= 0 {
		return nil
	}
	return &SlippageError{Bound: "max_in", Computed: new(big.Int).Set(in), Limit: new(big.Int).Set(maxIn)}
}

const bpsDenominator = 10_000

// ApplySlippage returns floor(quote * (10000 - bps) / 10000).
func ApplySlippage(quote *big.Int, bps uint32) (*big.Int, error) {
	if bps > bpsDenominator {
		return nil, fmt.Errorf("slippage %d bps exceeds %d", bps, bpsDenominator)
	}
	q, overflow := uint256.FromBig(quote)
	if overflow || quote.Sign() < 0 {
		return nil, &OverflowError{Op: "slippage quote"}
	}
	scaled, overflow := new(uint256.Int).MulOverflow(q, uint256.NewInt(uint64(bpsDenominator-bps)))
	if overflow {
		return nil, &OverflowError{Op: "quote*(10000-bps)"}
	}
	return scaled.Div(scaled, uint256.NewInt(bpsDenominator)).ToBig(), nil
}

func toU256(op string, values ...*big.Int) (*uint256.Int, *uint256.Int, *uint256.Int, error) {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		if v == nil {
			return nil, nil, nil, fmt.Errorf("%s: nil amount", op)
		}
		if v.Sign() < 0 {
			return nil, nil, nil, &OverflowError{Op: op + " negative operand"}
		}
		u, overflow := uint256.FromBig(v)
		if overflow {
			return nil, nil, nil, &OverflowError{Op: op + " operand"}
		}
		out[i] = u
	}
	return out[0], out[1], out[2], nil
}
