package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolState is a Uniswap V2 pair as read at one point in time. ReserveA and
// ReserveB follow the caller's token order, not the pair's canonical order.
type PoolState struct {
	Address  common.Address
	Token0   common.Address
	Token1   common.Address
	TokenA   common.Address
	TokenB   common.Address
	ReserveA *big.Int
	ReserveB *big.Int
}

// Quote is a priced single-hop swap.
type Quote struct {
	Pool       common.Address `json:"pool"`
	TokenIn    common.Address `json:"token_in"`
	TokenOut   common.Address `json:"token_out"`
	ReserveIn  *big.Int       `json:"reserve_in"`
	ReserveOut *big.Int       `json:"reserve_out"`
	AmountIn   *big.Int       `json:"amount_in"`
	AmountOut  *big.Int       `json:"amount_out"`
}
