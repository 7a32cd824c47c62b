package exchange

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"uniExchange/internal/model"
)

// TokenHost is the ERC20 surface. Every effect names the acting account.
type TokenHost interface {
	BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error)
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error
	Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error
}

// NativeHost moves the chain's native currency.
type NativeHost interface {
	NativeBalance(ctx context.Context, holder common.Address) (*big.Int, error)
	SendNative(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// WrappedNativeHost is the WETH9 surface.
type WrappedNativeHost interface {
	WrappedNative() common.Address
	Wrap(ctx context.Context, from common.Address, amount *big.Int) error
	Unwrap(ctx context.Context, from common.Address, amount *big.Int) error
}

// PoolHost covers the Uniswap V2 factory and pair contracts.
type PoolHost interface {
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
	PairTokens(ctx context.Context, pair common.Address) (token0, token1 common.Address, err error)
	GetReserves(ctx context.Context, pair common.Address) (reserve0, reserve1 *big.Int, err error)
	PairSwap(ctx context.Context, from, pair common.Address, amount0Out, amount1Out *big.Int, to common.Address) error
	// Skim sends the pair's balances above its reserves to to.
	Skim(ctx context.Context, from, pair, to common.Address) error
}

// RouterHost is the router02 surface.
type RouterHost interface {
	Router() common.Address
	RouterGetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	RouterGetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error)
	RouterAddLiquidity(ctx context.Context, from common.Address, params model.AddLiquidityParams) (model.LiquidityResult, error)
	RouterAddLiquidityETH(ctx context.Context, from common.Address, params model.AddLiquidityETHParams) (model.LiquidityResult, error)
	RouterSwapExactTokensForTokens(ctx context.Context, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]*big.Int, error)
}

// Host is everything the exchange needs from the execution environment.
type Host interface {
	TokenHost
	NativeHost
	WrappedNativeHost
	PoolHost
	RouterHost
}
