package simchain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"uniExchange/internal/model"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

type world struct {
	chain  *Chain
	alice  common.Address
	tokenA common.Address
	tokenB common.Address
	pair   common.Address
}

func newWorld(t *testing.T) world {
	t.Helper()
	ctx := context.Background()
	c := New(WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }))
	w := world{
		chain:  c,
		alice:  c.NewAccount(),
		tokenA: c.DeployToken("Token A", "TKA", 18),
		tokenB: c.DeployToken("Token B", "TKB", 18),
	}
	require.NoError(t, c.Mint(w.tokenA, w.alice, e18(100)))
	require.NoError(t, c.Mint(w.tokenB, w.alice, e18(100)))
	require.NoError(t, c.Approve(ctx, w.tokenA, w.alice, c.Router(), e18(100)))
	require.NoError(t, c.Approve(ctx, w.tokenB, w.alice, c.Router(), e18(100)))

	res, err := c.RouterAddLiquidity(ctx, w.alice, model.AddLiquidityParams{
		TokenA:         w.tokenA,
		TokenB:         w.tokenB,
		AmountADesired: e18(5),
		AmountBDesired: e18(5),
		AmountAMin:     new(big.Int),
		AmountBMin:     new(big.Int),
		To:             w.alice,
		Deadline:       big.NewInt(1_700_000_600),
	})
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Sub(e18(5), big.NewInt(1000)).String(), res.Liquidity.String())

	w.pair, err = c.GetPair(ctx, w.tokenA, w.tokenB)
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, w.pair)
	return w
}

func TestAddLiquiditySetsReserves(t *testing.T) {
	w := newWorld(t)
	r0, r1, err := w.chain.GetReserves(context.Background(), w.pair)
	require.NoError(t, err)
	require.Equal(t, e18(5).String(), r0.String())
	require.Equal(t, e18(5).String(), r1.String())

	supply, err := w.chain.TotalSupply(w.pair)
	require.NoError(t, err)
	require.Equal(t, e18(5).String(), supply.String())
}

func TestGetPairIsOrderIndependent(t *testing.T) {
	w := newWorld(t)
	reversed, err := w.chain.GetPair(context.Background(), w.tokenB, w.tokenA)
	require.NoError(t, err)
	require.Equal(t, w.pair, reversed)

	_, err = w.chain.CreatePair(context.Background(), w.tokenB, w.tokenA)
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	require.Equal(t, "UniswapV2: PAIR_EXISTS", rev.Reason)
}

func TestPairSwapRejectsKViolationAndRollsBack(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.chain.Transfer(ctx, w.tokenA, w.alice, w.pair, e18(2)))
	token0, _, err := w.chain.PairTokens(ctx, w.pair)
	require.NoError(t, err)

	greedy := big.NewInt(1_426_000_000_000_000_000)
	amount0Out, amount1Out := new(big.Int), greedy
	if token0 == w.tokenB {
		amount0Out, amount1Out = greedy, new(big.Int)
	}
	before, err := w.chain.BalanceOf(ctx, w.tokenB, w.alice)
	require.NoError(t, err)

	err = w.chain.PairSwap(ctx, w.alice, w.pair, amount0Out, amount1Out, w.alice)
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	require.Equal(t, "UniswapV2: K", rev.Reason)

	after, err := w.chain.BalanceOf(ctx, w.tokenB, w.alice)
	require.NoError(t, err)
	require.Equal(t, before.String(), after.String(), "optimistic transfer must be rolled back")

	exact := big.NewInt(1_425_507_577_923_934_801)
	if token0 == w.tokenB {
		amount0Out = exact
	} else {
		amount1Out = exact
	}
	require.NoError(t, w.chain.PairSwap(ctx, w.alice, w.pair, amount0Out, amount1Out, w.alice))
}

func TestSkimReturnsExcess(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	require.NoError(t, w.chain.Transfer(ctx, w.tokenA, w.alice, w.pair, big.NewInt(777)))

	bob := w.chain.NewAccount()
	require.NoError(t, w.chain.Skim(ctx, bob, w.pair, bob))
	bal, err := w.chain.BalanceOf(ctx, w.tokenA, bob)
	require.NoError(t, err)
	require.Equal(t, "777", bal.String())
}

func TestWrapUnwrap(t *testing.T) {
	c := New()
	ctx := context.Background()
	bob := c.NewAccount()
	c.Fund(bob, e18(3))

	require.NoError(t, c.Wrap(ctx, bob, e18(2)))
	wbal, err := c.BalanceOf(ctx, c.WrappedNative(), bob)
	require.NoError(t, err)
	require.Equal(t, e18(2).String(), wbal.String())

	require.NoError(t, c.Unwrap(ctx, bob, e18(1)))
	native, err := c.NativeBalance(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, e18(2).String(), native.String())

	require.Error(t, c.Unwrap(ctx, bob, e18(5)))
	require.Error(t, c.Wrap(ctx, bob, e18(5)))
}

func TestTransferBlockedReturnsFalse(t *testing.T) {
	w := newWorld(t)
	bob := w.chain.NewAccount()
	w.chain.SetTransferBlocked(w.tokenA, bob, true)

	err := w.chain.Transfer(context.Background(), w.tokenA, w.alice, bob, big.NewInt(1))
	require.True(t, errors.Is(err, ErrReturnedFalse))

	w.chain.SetTransferBlocked(w.tokenA, bob, false)
	require.NoError(t, w.chain.Transfer(context.Background(), w.tokenA, w.alice, bob, big.NewInt(1)))
}

func TestTransferFromNeedsAllowance(t *testing.T) {
	w := newWorld(t)
	bob := w.chain.NewAccount()
	err := w.chain.TransferFrom(context.Background(), w.tokenA, bob, w.alice, bob, big.NewInt(1))
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	require.Equal(t, "ERC20: insufficient allowance", rev.Reason)
}

func TestRouterSwapExactTokensForTokens(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	bob := w.chain.NewAccount()
	path := []common.Address{w.tokenA, w.tokenB}

	quoted, err := w.chain.RouterGetAmountsOut(ctx, e18(2), path)
	require.NoError(t, err)
	require.Equal(t, "1425507577923934801", quoted[1].String())

	amounts, err := w.chain.RouterSwapExactTokensForTokens(ctx, w.alice, e18(2), quoted[1], path, bob, big.NewInt(1_700_000_600))
	require.NoError(t, err)
	require.Equal(t, quoted[1].String(), amounts[1].String())

	bal, err := w.chain.BalanceOf(ctx, w.tokenB, bob)
	require.NoError(t, err)
	require.Equal(t, quoted[1].String(), bal.String())
}

func TestRouterRejectsExpiredDeadline(t *testing.T) {
	w := newWorld(t)
	_, err := w.chain.RouterSwapExactTokensForTokens(context.Background(), w.alice, e18(1), big.NewInt(1),
		[]common.Address{w.tokenA, w.tokenB}, w.alice, big.NewInt(1_699_999_999))
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	require.Equal(t, "UniswapV2Router: EXPIRED", rev.Reason)
}

func TestRouterAddLiquidityETHRefundsExcess(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.chain.Fund(w.alice, e18(10))

	res, err := w.chain.RouterAddLiquidityETH(ctx, w.alice, model.AddLiquidityETHParams{
		Token:              w.tokenA,
		AmountTokenDesired: e18(1),
		AmountTokenMin:     new(big.Int),
		AmountETHMin:       new(big.Int),
		To:                 w.alice,
		Deadline:           big.NewInt(1_700_000_600),
		Value:              e18(1),
	})
	require.NoError(t, err)
	require.Equal(t, e18(1).String(), res.AmountB.String())

	// Second deposit at a 1:1 price only needs half the offered value.
	res, err = w.chain.RouterAddLiquidityETH(ctx, w.alice, model.AddLiquidityETHParams{
		Token:              w.tokenA,
		AmountTokenDesired: big.NewInt(500_000_000_000_000_000),
		AmountTokenMin:     new(big.Int),
		AmountETHMin:       new(big.Int),
		To:                 w.alice,
		Deadline:           big.NewInt(1_700_000_600),
		Value:              e18(1),
	})
	require.NoError(t, err)
	require.Equal(t, "500000000000000000", res.AmountB.String())

	native, err := w.chain.NativeBalance(ctx, w.alice)
	require.NoError(t, err)
	require.Equal(t, "8500000000000000000", native.String())
}

func TestAmountsInMatchesLibrary(t *testing.T) {
	w := newWorld(t)
	amounts, err := w.chain.RouterGetAmountsIn(context.Background(), big.NewInt(1_000_000_000_000_000),
		[]common.Address{w.tokenA, w.tokenB})
	require.NoError(t, err)
	require.Equal(t, "1003209669015047", amounts[0].String())
}

func TestTokenMeta(t *testing.T) {
	w := newWorld(t)
	meta, err := w.chain.TokenMeta(context.Background(), w.tokenA)
	require.NoError(t, err)
	require.Equal(t, "TKA", meta.Symbol)
	require.Equal(t, uint8(18), meta.Decimals)

	weth, err := w.chain.TokenMeta(context.Background(), w.chain.WrappedNative())
	require.NoError(t, err)
	require.Equal(t, "WETH", weth.Symbol)

	_, err = w.chain.TokenMeta(context.Background(), common.HexToAddress("0xdead"))
	require.Error(t, err)
}
