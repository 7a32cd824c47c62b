package exchange

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"uniExchange/internal/amm"
	"uniExchange/internal/model"
)

// Every swap entry point runs preflight, intake, resolve, price, execute and
// settle in that order. Preflight prices against live reserves before any
// effect. Each effect after it pushes a compensating step onto a journal
// that unwinds on failure. The pair swap is the last effect and the only one
// that cannot be undone.

var minNonzeroOut = big.NewInt(1)

// SwapTokens sells exactly amountIn of tokenIn for tokenOut, paying the owner.
// Any nonzero output is accepted.
func (e *Exchange) SwapTokens(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	return e.SwapTokensWithLimit(ctx, caller, tokenIn, tokenOut, amountIn, nil)
}

// SwapTokensWithLimit is SwapTokens with a minimum output bound.
func (e *Exchange) SwapTokensWithLimit(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if minOut == nil {
		minOut = minNonzeroOut
	}

	if _, err := e.priceExactIn(ctx, tokenIn, tokenOut, amountIn, minOut); err != nil {
		return nil, err
	}

	j := newJournal(e.logger)
	if err := e.tokens.TransferFrom(ctx, tokenIn, e.owner, e.custody, amountIn); err != nil {
		return nil, err
	}
	j.push("refund intake", func(ctx context.Context) error {
		return e.tokens.Transfer(ctx, tokenIn, e.owner, amountIn)
	})

	q, err := e.priceExactIn(ctx, tokenIn, tokenOut, amountIn, minOut)
	if err != nil {
		return nil, j.unwind(ctx, err)
	}
	token0, _, err := amm.SortTokens(tokenIn, tokenOut)
	if err != nil {
		return nil, j.unwind(ctx, err)
	}
	if err := e.execute(ctx, j, q, token0, e.owner); err != nil {
		return nil, j.unwind(ctx, err)
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindSwap,
		Pool:      q.Pool.Hex(),
		TokenIn:   tokenIn.Hex(),
		TokenOut:  tokenOut.Hex(),
		AmountIn:  q.AmountIn.String(),
		AmountOut: q.AmountOut.String(),
		Recipient: e.owner.Hex(),
	})
	return q.AmountOut, nil
}

// SwapTokensETH buys exactly amountOut of tokenOut for the owner with native
// value. The whole value moves into custody; only the required input is
// wrapped and spent, and the rest stays in custody. It returns the input spent.
func (e *Exchange) SwapTokensETH(ctx context.Context, caller, tokenOut common.Address, amountOut, value *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutputAmount
	}
	if value == nil || value.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	weth := e.host.WrappedNative()

	if _, err := e.priceExactOut(ctx, weth, tokenOut, amountOut, value); err != nil {
		return nil, err
	}

	j := newJournal(e.logger)
	if err := e.sendNative(ctx, e.owner, e.custody, value); err != nil {
		return nil, err
	}
	j.push("refund value", func(ctx context.Context) error {
		return e.sendNative(ctx, e.custody, e.owner, value)
	})

	q, err := e.priceExactOut(ctx, weth, tokenOut, amountOut, value)
	if err != nil {
		return nil, j.unwind(ctx, err)
	}

	if err := e.host.Wrap(ctx, e.custody, q.AmountIn); err != nil {
		return nil, j.unwind(ctx, fmt.Errorf("wrap %s: %w", q.AmountIn, err))
	}
	j.push("unwrap", func(ctx context.Context) error {
		return e.host.Unwrap(ctx, e.custody, q.AmountIn)
	})

	token0, _, err := amm.SortTokens(weth, tokenOut)
	if err != nil {
		return nil, j.unwind(ctx, err)
	}
	if err := e.execute(ctx, j, q, token0, e.owner); err != nil {
		return nil, j.unwind(ctx, err)
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindSwapETH,
		Pool:      q.Pool.Hex(),
		TokenIn:   weth.Hex(),
		TokenOut:  tokenOut.Hex(),
		AmountIn:  q.AmountIn.String(),
		AmountOut: q.AmountOut.String(),
		Recipient: e.owner.Hex(),
	})
	return q.AmountIn, nil
}

// SwapTokensForETH sells exactly amountIn of tokenIn for wrapped native,
// which lands in custody and is unwrapped there.
func (e *Exchange) SwapTokensForETH(ctx context.Context, caller, tokenIn common.Address, amountIn, minOut *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if minOut == nil {
		minOut = minNonzeroOut
	}
	weth := e.host.WrappedNative()

	if _, err := e.priceExactIn(ctx, tokenIn, weth, amountIn, minOut); err != nil {
		return nil, err
	}

	j := newJournal(e.logger)
	if err := e.tokens.TransferFrom(ctx, tokenIn, e.owner, e.custody, amountIn); err != nil {
		return nil, err
	}
	j.push("refund intake", func(ctx context.Context) error {
		return e.tokens.Transfer(ctx, tokenIn, e.owner, amountIn)
	})

	q, err := e.priceExactIn(ctx, tokenIn, weth, amountIn, minOut)
	if err != nil {
		return nil, j.unwind(ctx, err)
	}
	token0, _, err := amm.SortTokens(tokenIn, weth)
	if err != nil {
		return nil, j.unwind(ctx, err)
	}
	if err := e.execute(ctx, j, q, token0, e.custody); err != nil {
		return nil, j.unwind(ctx, err)
	}

	receipt := model.Receipt{
		Kind:      model.KindSwapForETH,
		Pool:      q.Pool.Hex(),
		TokenIn:   tokenIn.Hex(),
		TokenOut:  weth.Hex(),
		AmountIn:  q.AmountIn.String(),
		AmountOut: q.AmountOut.String(),
		Recipient: e.custody.Hex(),
	}

	// The swap is committed. A failed unwrap leaves the output in custody as
	// wrapped native, where WithdrawTokens can still reach it.
	if err := e.host.Unwrap(ctx, e.custody, q.AmountOut); err != nil {
		e.logger.Error("unwrap after swap failed",
			zap.String("weth", weth.Hex()),
			zap.String("amount", q.AmountOut.String()),
			zap.Error(err),
		)
		e.record(ctx, receipt)
		return q.AmountOut, &UnwrapFailedError{WrappedNative: weth, Amount: new(big.Int).Set(q.AmountOut), Err: err}
	}

	e.record(ctx, receipt)
	return q.AmountOut, nil
}

// Swap buys exactly amountOut of tokenOut from pool with custody funds.
// The pool is used as given, without a factory lookup, so the input is
// always bounded by maxAmountIn. Output stays in custody. It returns the
// input spent.
func (e *Exchange) Swap(ctx context.Context, caller, pool, tokenOut common.Address, amountOut, maxAmountIn *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutputAmount
	}
	if maxAmountIn == nil || maxAmountIn.Sign() <= 0 {
		return nil, ErrNoMaxAmountIn
	}

	state, err := e.resolver.InspectPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	tokenIn, reserves, err := Orient(state, tokenOut)
	if err != nil {
		return nil, err
	}
	amountIn, err := e.pricer.GetAmountIn(amountOut, reserves.In, reserves.Out)
	if err != nil {
		return nil, err
	}
	if err := amm.CheckMaxIn(amountIn, maxAmountIn); err != nil {
		return nil, err
	}

	held, err := e.tokens.BalanceOf(ctx, tokenIn, e.custody)
	if err != nil {
		return nil, err
	}
	if held.Cmp(amountIn) < 0 {
		return nil, &TransferFailedError{
			Token:  tokenIn,
			From:   e.custody,
			To:     pool,
			Amount: amountIn,
			Err:    fmt.Errorf("custody holds %s", held),
		}
	}

	q := model.Quote{
		Pool:       pool,
		TokenIn:    tokenIn,
		TokenOut:   tokenOut,
		ReserveIn:  reserves.In,
		ReserveOut: reserves.Out,
		AmountIn:   amountIn,
		AmountOut:  new(big.Int).Set(amountOut),
	}
	j := newJournal(e.logger)
	if err := e.execute(ctx, j, q, state.Token0, e.custody); err != nil {
		return nil, j.unwind(ctx, err)
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindPoolSwap,
		Pool:      pool.Hex(),
		TokenIn:   tokenIn.Hex(),
		TokenOut:  tokenOut.Hex(),
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
		Recipient: e.custody.Hex(),
	})
	return amountIn, nil
}

// execute pays q.AmountIn into the pool and asks it for q.AmountOut.
func (e *Exchange) execute(ctx context.Context, j *journal, q model.Quote, token0, recipient common.Address) error {
	if err := e.tokens.Transfer(ctx, q.TokenIn, q.Pool, q.AmountIn); err != nil {
		return err
	}
	j.push("skim pool", func(ctx context.Context) error {
		return e.host.Skim(ctx, e.custody, q.Pool, e.custody)
	})

	amount0Out, amount1Out := amm.OutAmounts(token0, q.TokenOut, q.AmountOut)
	e.logger.Debug("pair swap",
		zap.String("pool", q.Pool.Hex()),
		zap.String("amount0_out", amount0Out.String()),
		zap.String("amount1_out", amount1Out.String()),
		zap.String("to", recipient.Hex()),
	)
	if err := e.host.PairSwap(ctx, e.custody, q.Pool, amount0Out, amount1Out, recipient); err != nil {
		return &SwapFailedError{Pool: q.Pool, Err: err}
	}
	return nil
}
