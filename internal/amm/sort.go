package amm

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SortTokens returns the pair in canonical order: numeric order of the
// 20-byte address, the same order a Uniswap V2 factory stores as token0/token1.
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	if a == b {
		return common.Address{}, common.Address{}, ErrIdenticalTokens
	}
	token0, token1 := a, b
	if Less(b, a) {
		token0, token1 = b, a
	}
	if token0 == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroAddress
	}
	return token0, token1, nil
}

// Less is the comparator shared by pair resolution and direct pool swaps.
func Less(a, b common.Address) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}

// OutAmounts places amountOut in the pool slot that holds tokenOut.
// token0 is the pool's first token; the other slot gets zero.
func OutAmounts(token0, tokenOut common.Address, amountOut *big.Int) (amount0Out, amount1Out *big.Int) {
	if tokenOut == token0 {
		return new(big.Int).Set(amountOut), new(big.Int)
	}
	return new(big.Int), new(big.Int).Set(amountOut)
}
