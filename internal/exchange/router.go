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

// SwapViaRouter sells exactly amountIn of path[0] through router02 along
// path, paying the owner. The router's quote is checked against the local
// pricer before anything moves.
func (e *Exchange) SwapViaRouter(ctx context.Context, caller common.Address, path []common.Address, amountIn, minOut *big.Int) ([]*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, amm.ErrInvalidPath
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if minOut == nil {
		minOut = minNonzeroOut
	}

	quoted, err := e.host.RouterGetAmountsOut(ctx, amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("router getAmountsOut: %w", err)
	}
	if len(quoted) != len(path) {
		return nil, fmt.Errorf("router getAmountsOut: %d amounts for %d tokens", len(quoted), len(path))
	}
	if err := amm.CheckMinOut(quoted[len(quoted)-1], minOut); err != nil {
		return nil, err
	}
	e.checkRouterParity(ctx, amountIn, path, quoted)

	tokenIn := path[0]
	router := e.host.Router()
	j := newJournal(e.logger)
	if err := e.tokens.TransferFrom(ctx, tokenIn, e.owner, e.custody, amountIn); err != nil {
		return nil, err
	}
	j.push("refund intake", func(ctx context.Context) error {
		return e.tokens.Transfer(ctx, tokenIn, e.owner, amountIn)
	})
	if err := e.tokens.Approve(ctx, tokenIn, router, amountIn); err != nil {
		return nil, j.unwind(ctx, err)
	}
	j.push("revoke router allowance", func(ctx context.Context) error {
		return e.tokens.Approve(ctx, tokenIn, router, new(big.Int))
	})

	amounts, err := e.host.RouterSwapExactTokensForTokens(ctx, e.custody, amountIn, minOut, path, e.owner, e.deadline())
	if err != nil {
		return nil, j.unwind(ctx, &SwapFailedError{Pool: router, Err: err})
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindRouterSwap,
		Pool:      router.Hex(),
		TokenIn:   tokenIn.Hex(),
		TokenOut:  path[len(path)-1].Hex(),
		AmountIn:  amountIn.String(),
		AmountOut: amounts[len(amounts)-1].String(),
		Recipient: e.owner.Hex(),
	})
	return amounts, nil
}

// AddLiquidity deposits custody funds into the tokenA/tokenB pair through the
// router. LP tokens go to the owner.
func (e *Exchange) AddLiquidity(ctx context.Context, caller, tokenA, tokenB common.Address, amountA, amountB, minA, minB *big.Int) (model.LiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return model.LiquidityResult{}, err
	}
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return model.LiquidityResult{}, ErrInsufficientInputAmount
	}
	if _, _, err := amm.SortTokens(tokenA, tokenB); err != nil {
		return model.LiquidityResult{}, err
	}

	router := e.host.Router()
	j := newJournal(e.logger)
	for _, grant := range []struct {
		token  common.Address
		amount *big.Int
	}{{tokenA, amountA}, {tokenB, amountB}} {
		token := grant.token
		if err := e.tokens.Approve(ctx, token, router, grant.amount); err != nil {
			return model.LiquidityResult{}, j.unwind(ctx, err)
		}
		j.push("revoke router allowance", func(ctx context.Context) error {
			return e.tokens.Approve(ctx, token, router, new(big.Int))
		})
	}

	res, err := e.host.RouterAddLiquidity(ctx, e.custody, model.AddLiquidityParams{
		TokenA:         tokenA,
		TokenB:         tokenB,
		AmountADesired: amountA,
		AmountBDesired: amountB,
		AmountAMin:     orZero(minA),
		AmountBMin:     orZero(minB),
		To:             e.owner,
		Deadline:       e.deadline(),
	})
	if err != nil {
		return model.LiquidityResult{}, j.unwind(ctx, fmt.Errorf("router addLiquidity: %w", err))
	}
	e.revokeLeftover(ctx, j)

	e.record(ctx, model.Receipt{
		Kind:      model.KindAddLiquidity,
		Pool:      router.Hex(),
		TokenIn:   tokenA.Hex(),
		TokenOut:  tokenB.Hex(),
		AmountIn:  res.AmountA.String(),
		AmountOut: res.AmountB.String(),
		Recipient: e.owner.Hex(),
	})
	return res, nil
}

// AddLiquidityETH deposits custody token and native value into the
// token/WETH pair through the router. Unused native is refunded to custody
// by the router.
func (e *Exchange) AddLiquidityETH(ctx context.Context, caller, token common.Address, amountToken, minToken, minETH, value *big.Int) (model.LiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return model.LiquidityResult{}, err
	}
	if amountToken == nil || value == nil || amountToken.Sign() <= 0 || value.Sign() <= 0 {
		return model.LiquidityResult{}, ErrInsufficientInputAmount
	}

	router := e.host.Router()
	j := newJournal(e.logger)
	if err := e.tokens.Approve(ctx, token, router, amountToken); err != nil {
		return model.LiquidityResult{}, err
	}
	j.push("revoke router allowance", func(ctx context.Context) error {
		return e.tokens.Approve(ctx, token, router, new(big.Int))
	})

	res, err := e.host.RouterAddLiquidityETH(ctx, e.custody, model.AddLiquidityETHParams{
		Token:              token,
		AmountTokenDesired: amountToken,
		AmountTokenMin:     orZero(minToken),
		AmountETHMin:       orZero(minETH),
		To:                 e.owner,
		Deadline:           e.deadline(),
		Value:              value,
	})
	if err != nil {
		return model.LiquidityResult{}, j.unwind(ctx, fmt.Errorf("router addLiquidityETH: %w", err))
	}
	e.revokeLeftover(ctx, j)

	e.record(ctx, model.Receipt{
		Kind:      model.KindAddLiquidityETH,
		Pool:      router.Hex(),
		TokenIn:   token.Hex(),
		TokenOut:  e.host.WrappedNative().Hex(),
		AmountIn:  res.AmountA.String(),
		AmountOut: res.AmountB.String(),
		Recipient: e.owner.Hex(),
	})
	return res, nil
}

// revokeLeftover clears router allowances the call did not use. Failures are
// logged because the liquidity is already committed.
func (e *Exchange) revokeLeftover(ctx context.Context, j *journal) {
	for i := len(j.steps) - 1; i >= 0; i-- {
		if err := j.steps[i].fn(ctx); err != nil {
			e.logger.Warn("revoke allowance failed", zap.Error(err))
		}
	}
	j.steps = nil
}

// checkRouterParity logs when the router disagrees with the local pricer.
func (e *Exchange) checkRouterParity(ctx context.Context, amountIn *big.Int, path []common.Address, quoted []*big.Int) {
	local, err := e.PathAmountsOut(ctx, amountIn, path)
	if err != nil {
		e.logger.Debug("local path quote failed", zap.Error(err))
		return
	}
	for i := range local {
		if local[i].Cmp(quoted[i]) != 0 {
			e.logger.Warn("router quote differs from local pricer",
				zap.Int("index", i),
				zap.String("router", quoted[i].String()),
				zap.String("local", local[i].String()),
			)
			return
		}
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
