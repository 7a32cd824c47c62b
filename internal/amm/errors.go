package amm

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInsufficientInputAmount  = errors.New("amm: insufficient input amount")
	ErrInsufficientOutputAmount = errors.New("amm: insufficient output amount")
	ErrInsufficientLiquidity    = errors.New("amm: insufficient liquidity")
	ErrArithmeticOverflow       = errors.New("amm: arithmetic overflow")
	ErrSlippageExceeded         = errors.New("amm: slippage exceeded")
	ErrIdenticalTokens          = errors.New("amm: identical tokens")
	ErrZeroAddress              = errors.New("amm: zero address")
	ErrInvalidFee               = errors.New("amm: invalid fee")
	ErrInvalidPath              = errors.New("amm: invalid path")
)

// SlippageError reports a computed amount that violates the caller's bound.
type SlippageError struct {
	// Bound is "min_out" or "max_in".
	Bound    string
	Computed *big.Int
	Limit    *big.Int
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("amm: slippage exceeded: %s limit %s, computed %s", e.Bound, e.Limit, e.Computed)
}

func (e *SlippageError) Is(target error) bool {
	return target == ErrSlippageExceeded
}

// OverflowError names the step at which 256-bit arithmetic overflowed.
type OverflowError struct {
	Op string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("amm: arithmetic overflow in %s", e.Op)
}

func (e *OverflowError) Is(target error) bool {
	return target == ErrArithmeticOverflow
}
