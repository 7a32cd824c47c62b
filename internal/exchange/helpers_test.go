package exchange_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"uniExchange/internal/exchange"
	"uniExchange/internal/model"
	"uniExchange/internal/simchain"
)

var _ exchange.Host = (*simchain.Chain)(nil)

var now = time.Unix(1_700_000_000, 0)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func amount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad amount " + s)
	}
	return v
}

type memorySink struct {
	mu       sync.Mutex
	receipts []model.Receipt
	err      error
}

func (m *memorySink) PutReceipts(_ context.Context, receipts []model.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.receipts = append(m.receipts, receipts...)
	return nil
}

func (m *memorySink) all() []model.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Receipt(nil), m.receipts...)
}

// fixture is a world with two 5e18/5e18 token pairs and a 1e18/1e18
// tokenB/WETH pair, and an exchange whose owner holds 100 of each token.
type fixture struct {
	ctx      context.Context
	chain    *simchain.Chain
	ex       *exchange.Exchange
	sink     *memorySink
	owner    common.Address
	custody  common.Address
	stranger common.Address
	tokenA   common.Address
	tokenB   common.Address
	tokenC   common.Address
	weth     common.Address
	pairAB   common.Address
	pairBW   common.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	c := simchain.New(simchain.WithClock(func() time.Time { return now }))
	f := &fixture{
		ctx:      ctx,
		chain:    c,
		sink:     &memorySink{},
		owner:    c.NewAccount(),
		custody:  c.NewAccount(),
		stranger: c.NewAccount(),
		tokenA:   c.DeployToken("Token A", "TKA", 18),
		tokenB:   c.DeployToken("Token B", "TKB", 18),
		tokenC:   c.DeployToken("Token C", "TKC", 18),
		weth:     c.WrappedNative(),
	}

	lp := c.NewAccount()
	c.Fund(lp, e18(10))
	c.Fund(f.owner, e18(10))
	c.Fund(f.stranger, e18(10))
	for _, token := range []common.Address{f.tokenA, f.tokenB, f.tokenC} {
		require.NoError(t, c.Mint(token, lp, e18(100)))
		require.NoError(t, c.Mint(token, f.owner, e18(100)))
		require.NoError(t, c.Mint(token, f.stranger, e18(100)))
		require.NoError(t, c.Approve(ctx, token, lp, c.Router(), math.MaxBig256))
		require.NoError(t, c.Approve(ctx, token, f.owner, f.custody, math.MaxBig256))
		require.NoError(t, c.Approve(ctx, token, f.stranger, f.custody, math.MaxBig256))
	}

	deadline := big.NewInt(now.Unix() + 600)
	for _, pair := range [][2]common.Address{{f.tokenA, f.tokenB}, {f.tokenA, f.tokenC}} {
		_, err := c.RouterAddLiquidity(ctx, lp, model.AddLiquidityParams{
			TokenA: pair[0], TokenB: pair[1],
			AmountADesired: e18(5), AmountBDesired: e18(5),
			AmountAMin: new(big.Int), AmountBMin: new(big.Int),
			To: lp, Deadline: deadline,
		})
		require.NoError(t, err)
	}
	_, err := c.RouterAddLiquidityETH(ctx, lp, model.AddLiquidityETHParams{
		Token:              f.tokenB,
		AmountTokenDesired: e18(1),
		AmountTokenMin:     new(big.Int),
		AmountETHMin:       new(big.Int),
		To:                 lp,
		Deadline:           deadline,
		Value:              e18(1),
	})
	require.NoError(t, err)

	f.pairAB, err = c.GetPair(ctx, f.tokenA, f.tokenB)
	require.NoError(t, err)
	f.pairBW, err = c.GetPair(ctx, f.tokenB, f.weth)
	require.NoError(t, err)

	f.ex, err = exchange.New(exchange.Config{
		Owner:   f.owner,
		Custody: f.custody,
		Now:     func() time.Time { return now },
	}, c, f.sink, zap.NewNop())
	require.NoError(t, err)
	return f
}

func (f *fixture) balance(t *testing.T, token, holder common.Address) *big.Int {
	t.Helper()
	bal, err := f.chain.BalanceOf(f.ctx, token, holder)
	require.NoError(t, err)
	return bal
}

func (f *fixture) native(t *testing.T, holder common.Address) *big.Int {
	t.Helper()
	bal, err := f.chain.NativeBalance(f.ctx, holder)
	require.NoError(t, err)
	return bal
}

func (f *fixture) k(t *testing.T, pair common.Address) *big.Int {
	t.Helper()
	r0, r1, err := f.chain.GetReserves(f.ctx, pair)
	require.NoError(t, err)
	return new(big.Int).Mul(r0, r1)
}

// snapshot captures every balance a failed call must leave unchanged.
func (f *fixture) snapshot(t *testing.T) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, holder := range []common.Address{f.owner, f.custody, f.stranger, f.pairAB, f.pairBW} {
		for _, token := range []common.Address{f.tokenA, f.tokenB, f.tokenC, f.weth} {
			out[holder.Hex()+token.Hex()] = f.balance(t, token, holder).String()
		}
		out[holder.Hex()+"native"] = f.native(t, holder).String()
	}
	return out
}

func requireRevertReason(t *testing.T, err error, reason string) {
	t.Helper()
	var rev *simchain.RevertError
	require.True(t, errors.As(err, &rev), "expected revert, got %v", err)
	require.Equal(t, reason, rev.Reason)
}
