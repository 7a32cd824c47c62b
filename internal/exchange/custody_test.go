package exchange_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"uniExchange/internal/exchange"
	"uniExchange/internal/model"
)

func TestWithdrawTokensIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ex.Deposit(f.ctx, f.stranger, f.tokenA, e18(3)))
	ownerBefore := f.balance(t, f.tokenA, f.owner)

	sent, err := f.ex.WithdrawTokens(f.ctx, f.owner, f.tokenA)
	require.NoError(t, err)
	require.Equal(t, e18(3).String(), sent.String())
	require.Equal(t, new(big.Int).Add(ownerBefore, e18(3)).String(), f.balance(t, f.tokenA, f.owner).String())

	sent, err = f.ex.WithdrawTokens(f.ctx, f.owner, f.tokenA)
	require.NoError(t, err)
	require.Zero(t, sent.Sign())
	require.Zero(t, f.balance(t, f.tokenA, f.custody).Sign())
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	f := newFixture(t)
	before := f.snapshot(t)

	require.NoError(t, f.ex.Deposit(f.ctx, f.owner, f.tokenC, e18(7)))
	require.NoError(t, f.ex.DepositETH(f.ctx, f.owner, e18(2)))
	held, err := f.ex.TokenBalance(f.ctx, f.tokenC)
	require.NoError(t, err)
	require.Equal(t, e18(7).String(), held.String())

	_, err = f.ex.WithdrawTokens(f.ctx, f.owner, f.tokenC)
	require.NoError(t, err)
	_, err = f.ex.WithdrawETH(f.ctx, f.owner)
	require.NoError(t, err)

	require.Equal(t, before, f.snapshot(t))

	kinds := make([]string, 0, 4)
	for _, r := range f.sink.all() {
		kinds = append(kinds, r.Kind)
	}
	require.Equal(t, []string{model.KindDeposit, model.KindDepositETH, model.KindWithdraw, model.KindWithdrawETH}, kinds)
}

func TestWithdrawRequiresOwner(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ex.Deposit(f.ctx, f.stranger, f.tokenA, e18(1)))
	require.NoError(t, f.ex.DepositETH(f.ctx, f.stranger, e18(1)))
	before := f.snapshot(t)

	_, err := f.ex.WithdrawTokens(f.ctx, f.stranger, f.tokenA)
	require.ErrorIs(t, err, exchange.ErrNotOwner)
	_, err = f.ex.WithdrawETH(f.ctx, f.stranger)
	require.ErrorIs(t, err, exchange.ErrNotOwner)

	require.Equal(t, before, f.snapshot(t))
}

func TestWithdrawETHEmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	sent, err := f.ex.WithdrawETH(f.ctx, f.owner)
	require.NoError(t, err)
	require.Zero(t, sent.Sign())
	require.Empty(t, f.sink.all())
}

func TestGetBalanceIsPublic(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ex.DepositETH(f.ctx, f.stranger, big.NewInt(42)))
	bal, err := f.ex.GetBalance(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "42", bal.String())
}

func TestDepositRejectsZero(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.ex.Deposit(f.ctx, f.owner, f.tokenA, new(big.Int)), exchange.ErrInsufficientInputAmount)
	require.ErrorIs(t, f.ex.DepositETH(f.ctx, f.owner, nil), exchange.ErrInsufficientInputAmount)
}

func TestSinkFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("disk full")

	out, err := f.ex.SwapTokens(f.ctx, f.owner, f.tokenA, f.tokenB, e18(2))
	require.NoError(t, err)
	require.Equal(t, "1425507577923934801", out.String())
}

func TestNewValidatesConfig(t *testing.T) {
	f := newFixture(t)
	_, err := exchange.New(exchange.Config{Custody: f.custody}, f.chain, nil, nil)
	require.Error(t, err)
	_, err = exchange.New(exchange.Config{Owner: f.owner}, f.chain, nil, nil)
	require.Error(t, err)
	_, err = exchange.New(exchange.Config{Owner: f.owner, Custody: f.custody}, nil, nil, nil)
	require.Error(t, err)

	ex, err := exchange.New(exchange.Config{Owner: f.owner, Custody: f.custody}, f.chain, nil, nil)
	require.NoError(t, err)
	require.Equal(t, f.owner, ex.Owner())
	require.Equal(t, f.custody, ex.Custody())
}
