package exchange_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"uniExchange/internal/amm"
	"uniExchange/internal/exchange"
)

func TestPathQuotesMatchRouter(t *testing.T) {
	f := newFixture(t)
	paths := [][]common.Address{
		{f.tokenA, f.tokenB},
		{f.tokenB, f.tokenA, f.tokenC},
		{f.tokenC, f.tokenA, f.tokenB, f.weth},
	}
	for _, amountIn := range []*big.Int{big.NewInt(1_000), big.NewInt(123_456_789_000), e18(1)} {
		for _, path := range paths {
			local, err := f.ex.PathAmountsOut(f.ctx, amountIn, path)
			require.NoError(t, err)
			router, err := f.chain.RouterGetAmountsOut(f.ctx, amountIn, path)
			require.NoError(t, err)
			require.Equal(t, bigStrings(router), bigStrings(local))

			out := local[len(local)-1]
			localIn, err := f.ex.PathAmountsIn(f.ctx, out, path)
			require.NoError(t, err)
			routerIn, err := f.chain.RouterGetAmountsIn(f.ctx, out, path)
			require.NoError(t, err)
			require.Equal(t, bigStrings(routerIn), bigStrings(localIn))
		}
	}

	_, err := f.ex.PathAmountsOut(f.ctx, e18(1), []common.Address{f.tokenA})
	require.ErrorIs(t, err, amm.ErrInvalidPath)
}

func TestSwapViaRouter(t *testing.T) {
	f := newFixture(t)
	path := []common.Address{f.tokenC, f.tokenA, f.tokenB}
	quoted, err := f.ex.PathAmountsOut(f.ctx, e18(1), path)
	require.NoError(t, err)
	ownerB := f.balance(t, f.tokenB, f.owner)

	amounts, err := f.ex.SwapViaRouter(f.ctx, f.owner, path, e18(1), quoted[2])
	require.NoError(t, err)
	require.Equal(t, bigStrings(quoted), bigStrings(amounts))
	require.Equal(t, new(big.Int).Add(ownerB, quoted[2]).String(), f.balance(t, f.tokenB, f.owner).String())

	allowance, err := f.chain.Allowance(f.ctx, f.tokenC, f.custody, f.chain.Router())
	require.NoError(t, err)
	require.Zero(t, allowance.Sign())
}

func TestSwapViaRouterSlippageTouchesNothing(t *testing.T) {
	f := newFixture(t)
	path := []common.Address{f.tokenA, f.tokenB}
	before := f.snapshot(t)

	_, err := f.ex.SwapViaRouter(f.ctx, f.owner, path, e18(2), amount("1425507577923934802"))
	require.ErrorIs(t, err, exchange.ErrSlippageExceeded)
	require.Equal(t, before, f.snapshot(t))

	_, err = f.ex.SwapViaRouter(f.ctx, f.owner, path[:1], e18(2), nil)
	require.ErrorIs(t, err, amm.ErrInvalidPath)
}

func TestSwapViaRouterUnwindsOnRevert(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.chain.SetPairPaused(f.pairAB, true))
	before := f.snapshot(t)

	_, err := f.ex.SwapViaRouter(f.ctx, f.owner, []common.Address{f.tokenA, f.tokenB}, e18(2), nil)
	require.ErrorIs(t, err, exchange.ErrSwapFailed)
	requireRevertReason(t, err, "UniswapV2: LOCKED")
	require.Equal(t, before, f.snapshot(t))

	allowance, err := f.chain.Allowance(f.ctx, f.tokenA, f.custody, f.chain.Router())
	require.NoError(t, err)
	require.Zero(t, allowance.Sign())
}

func TestAddLiquidityFromCustody(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ex.Deposit(f.ctx, f.owner, f.tokenA, e18(2)))
	require.NoError(t, f.ex.Deposit(f.ctx, f.owner, f.tokenB, e18(1)))

	res, err := f.ex.AddLiquidity(f.ctx, f.owner, f.tokenA, f.tokenB, e18(2), e18(1), nil, nil)
	require.NoError(t, err)
	require.Equal(t, e18(1).String(), res.AmountA.String())
	require.Equal(t, e18(1).String(), res.AmountB.String())
	require.Positive(t, f.balance(t, f.pairAB, f.owner).Sign())

	require.Equal(t, e18(1).String(), f.balance(t, f.tokenA, f.custody).String())
	allowance, err := f.chain.Allowance(f.ctx, f.tokenA, f.custody, f.chain.Router())
	require.NoError(t, err)
	require.Zero(t, allowance.Sign())

	_, err = f.ex.AddLiquidity(f.ctx, f.stranger, f.tokenA, f.tokenB, e18(1), e18(1), nil, nil)
	require.ErrorIs(t, err, exchange.ErrNotOwner)
}

func TestAddLiquidityETHFromCustody(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ex.Deposit(f.ctx, f.owner, f.tokenB, e18(1)))
	require.NoError(t, f.ex.DepositETH(f.ctx, f.owner, e18(2)))

	res, err := f.ex.AddLiquidityETH(f.ctx, f.owner, f.tokenB, e18(1), nil, nil, e18(2))
	require.NoError(t, err)
	require.Equal(t, e18(1).String(), res.AmountB.String())

	held, err := f.ex.GetBalance(f.ctx)
	require.NoError(t, err)
	require.Equal(t, e18(1).String(), held.String(), "router refunds unused value to custody")
	require.Positive(t, f.balance(t, f.pairBW, f.owner).Sign())
}

func bigStrings(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
