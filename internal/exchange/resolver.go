package exchange

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"uniExchange/internal/amm"
	"uniExchange/internal/model"
)

// Resolver finds the pair for two tokens and reads its reserves. Results are
// never cached: every call reflects the current chain state.
type Resolver struct {
	host PoolHost
}

// NewResolver returns a Resolver over host.
func NewResolver(host PoolHost) *Resolver {
	return &Resolver{host: host}
}

// Resolve returns the pair for tokenA/tokenB with reserves in (A, B) order.
func (r *Resolver) Resolve(ctx context.Context, tokenA, tokenB common.Address) (model.PoolState, error) {
	token0, token1, err := amm.SortTokens(tokenA, tokenB)
	if err != nil {
		return model.PoolState{}, err
	}

	pair, err := r.host.GetPair(ctx, tokenA, tokenB)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("getPair: %w", err)
	}
	if pair == (common.Address{}) {
		return model.PoolState{}, &PairNotFoundError{TokenA: tokenA, TokenB: tokenB}
	}

	reserve0, reserve1, err := r.host.GetReserves(ctx, pair)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("getReserves %s: %w", pair.Hex(), err)
	}

	state := model.PoolState{
		Address:  pair,
		Token0:   token0,
		Token1:   token1,
		TokenA:   tokenA,
		TokenB:   tokenB,
		ReserveA: reserve0,
		ReserveB: reserve1,
	}
	if tokenA != token0 {
		state.ReserveA, state.ReserveB = reserve1, reserve0
	}
	return state, nil
}

// InspectPool reads a pair directly, bypassing the factory. TokenA and
// ReserveA are the pair's token0 side.
func (r *Resolver) InspectPool(ctx context.Context, pool common.Address) (model.PoolState, error) {
	if pool == (common.Address{}) {
		return model.PoolState{}, amm.ErrZeroAddress
	}
	token0, token1, err := r.host.PairTokens(ctx, pool)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("pair tokens %s: %w", pool.Hex(), err)
	}
	reserve0, reserve1, err := r.host.GetReserves(ctx, pool)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("getReserves %s: %w", pool.Hex(), err)
	}
	return model.PoolState{
		Address:  pool,
		Token0:   token0,
		Token1:   token1,
		TokenA:   token0,
		TokenB:   token1,
		ReserveA: reserve0,
		ReserveB: reserve1,
	}, nil
}

// Orient returns the pool's reserves as (in, out) for a swap into tokenOut.
func Orient(pool model.PoolState, tokenOut common.Address) (tokenIn common.Address, reserves amm.Reserves, err error) {
	switch tokenOut {
	case pool.TokenB:
		return pool.TokenA, amm.Reserves{In: pool.ReserveA, Out: pool.ReserveB}, nil
	case pool.TokenA:
		return pool.TokenB, amm.Reserves{In: pool.ReserveB, Out: pool.ReserveA}, nil
	default:
		return common.Address{}, amm.Reserves{}, fmt.Errorf("%w: %s not in %s", ErrTokenNotInPool, tokenOut.Hex(), pool.Address.Hex())
	}
}
