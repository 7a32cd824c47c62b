package exchange

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"uniExchange/internal/amm"
	"uniExchange/internal/model"
)

// Quote prices an exact-input swap against live reserves. Any caller may quote.
func (e *Exchange) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (model.Quote, error) {
	pool, err := e.resolver.Resolve(ctx, tokenIn, tokenOut)
	if err != nil {
		return model.Quote{}, err
	}
	out, err := e.pricer.GetAmountOut(amountIn, pool.ReserveA, pool.ReserveB)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{
		Pool:       pool.Address,
		TokenIn:    tokenIn,
		TokenOut:   tokenOut,
		ReserveIn:  pool.ReserveA,
		ReserveOut: pool.ReserveB,
		AmountIn:   new(big.Int).Set(amountIn),
		AmountOut:  out,
	}, nil
}

// QuoteIn prices an exact-output swap against live reserves.
func (e *Exchange) QuoteIn(ctx context.Context, tokenIn, tokenOut common.Address, amountOut *big.Int) (model.Quote, error) {
	pool, err := e.resolver.Resolve(ctx, tokenIn, tokenOut)
	if err != nil {
		return model.Quote{}, err
	}
	in, err := e.pricer.GetAmountIn(amountOut, pool.ReserveA, pool.ReserveB)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{
		Pool:       pool.Address,
		TokenIn:    tokenIn,
		TokenOut:   tokenOut,
		ReserveIn:  pool.ReserveA,
		ReserveOut: pool.ReserveB,
		AmountIn:   in,
		AmountOut:  new(big.Int).Set(amountOut),
	}, nil
}

// PathAmountsOut chains exact-input quotes over every pair of path using the
// exchange's own pricer. It must agree with the router's getAmountsOut.
func (e *Exchange) PathAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	hops, err := e.pathReserves(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.pricer.GetAmountsOut(amountIn, hops)
}

// PathAmountsIn is the exact-output counterpart of PathAmountsOut.
func (e *Exchange) PathAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	hops, err := e.pathReserves(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.pricer.GetAmountsIn(amountOut, hops)
}

func (e *Exchange) pathReserves(ctx context.Context, path []common.Address) ([]amm.Reserves, error) {
	if len(path) < 2 {
		return nil, amm.ErrInvalidPath
	}
	hops := make([]amm.Reserves, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		pool, err := e.resolver.Resolve(ctx, path[i], path[i+1])
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		hops = append(hops, amm.Reserves{In: pool.ReserveA, Out: pool.ReserveB})
	}
	return hops, nil
}

// priceExactIn quotes and applies the output checks. A zero output is never accepted.
func (e *Exchange) priceExactIn(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int) (model.Quote, error) {
	q, err := e.Quote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return model.Quote{}, err
	}
	if q.AmountOut.Sign() == 0 {
		return model.Quote{}, ErrInsufficientOutputAmount
	}
	if err := amm.CheckMinOut(q.AmountOut, minOut); err != nil {
		return model.Quote{}, err
	}
	return q, nil
}

func (e *Exchange) priceExactOut(ctx context.Context, tokenIn, tokenOut common.Address, amountOut, maxIn *big.Int) (model.Quote, error) {
	q, err := e.QuoteIn(ctx, tokenIn, tokenOut, amountOut)
	if err != nil {
		return model.Quote{}, err
	}
	if err := amm.CheckMaxIn(q.AmountIn, maxIn); err != nil {
		return model.Quote{}, err
	}
	return q, nil
}
