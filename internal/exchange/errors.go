package exchange

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"uniExchange/internal/amm"
)

var (
	ErrNotOwner       = errors.New("exchange: caller is not the owner")
	ErrTransferFailed = errors.New("exchange: transfer failed")
	ErrPairNotFound   = errors.New("exchange: pair not found")
	ErrSwapFailed     = errors.New("exchange: swap failed")
	ErrTokenNotInPool = errors.New("exchange: token not in pool")
	ErrNoMaxAmountIn  = errors.New("exchange: max amount in is required")
	ErrUnwrapFailed   = errors.New("exchange: unwrap failed")

	// Pricing failures are reported with the amm sentinels.
	ErrInsufficientLiquidity    = amm.ErrInsufficientLiquidity
	ErrSlippageExceeded         = amm.ErrSlippageExceeded
	ErrArithmeticOverflow       = amm.ErrArithmeticOverflow
	ErrInsufficientInputAmount  = amm.ErrInsufficientInputAmount
	ErrInsufficientOutputAmount = amm.ErrInsufficientOutputAmount
)

// NotOwnerError rejects a privileged call from any account but the owner.
type NotOwnerError struct {
	Caller common.Address
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("exchange: caller %s is not the owner", e.Caller.Hex())
}

func (e *NotOwnerError) Is(target error) bool {
	return target == ErrNotOwner
}

// TransferFailedError is a token or native transfer that reverted or returned false.
type TransferFailedError struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
	Err    error
}

func (e *TransferFailedError) Error() string {
	asset := "native"
	if e.Token != (common.Address{}) {
		asset = e.Token.Hex()
	}
	return fmt.Sprintf("exchange: transfer of %s %s from %s to %s failed: %v",
		e.Amount, asset, e.From.Hex(), e.To.Hex(), e.Err)
}

func (e *TransferFailedError) Unwrap() error { return e.Err }

func (e *TransferFailedError) Is(target error) bool {
	return target == ErrTransferFailed
}

// PairNotFoundError means the factory has no pair for the tokens.
type PairNotFoundError struct {
	TokenA common.Address
	TokenB common.Address
}

func (e *PairNotFoundError) Error() string {
	return fmt.Sprintf("exchange: no pair for %s/%s", e.TokenA.Hex(), e.TokenB.Hex())
}

func (e *PairNotFoundError) Is(target error) bool {
	return target == ErrPairNotFound
}

// SwapFailedError wraps the pool's revert reason unchanged.
type SwapFailedError struct {
	Pool common.Address
	Err  error
}

func (e *SwapFailedError) Error() string {
	return fmt.Sprintf("exchange: swap on pool %s failed: %v", e.Pool.Hex(), e.Err)
}

func (e *SwapFailedError) Unwrap() error { return e.Err }

func (e *SwapFailedError) Is(target error) bool {
	return target == ErrSwapFailed
}

// CompensationError reports a rollback step that could not be applied.
// Funds named by Step may need manual recovery.
type CompensationError struct {
	Step string
	Err  error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("exchange: compensation %q failed: %v", e.Step, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// UnwrapFailedError reports a committed swap whose wrapped-native output
// could not be unwrapped. Amount is held by custody as WETH.
type UnwrapFailedError struct {
	WrappedNative common.Address
	Amount        *big.Int
	Err           error
}

func (e *UnwrapFailedError) Error() string {
	return fmt.Sprintf("exchange: swap committed but unwrap of %s failed, output held as WETH %s: %v", e.Amount, e.WrappedNative.Hex(), e.Err)
}

func (e *UnwrapFailedError) Unwrap() error { return e.Err }

func (e *UnwrapFailedError) Is(target error) bool {
	return target == ErrUnwrapFailed
}
