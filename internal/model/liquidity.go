package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AddLiquidityParams mirrors router02.addLiquidity.
type AddLiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *big.Int
	AmountBDesired *big.Int
	AmountAMin     *big.Int
	AmountBMin     *big.Int
	To             common.Address
	Deadline       *big.Int
}

// AddLiquidityETHParams mirrors router02.addLiquidityETH. Value is the native
// amount attached to the call.
type AddLiquidityETHParams struct {
	Token              common.Address
	AmountTokenDesired *big.Int
	AmountTokenMin     *big.Int
	AmountETHMin       *big.Int
	To                 common.Address
	Deadline           *big.Int
	Value              *big.Int
}

// LiquidityResult is what the router reports for an add-liquidity call.
type LiquidityResult struct {
	AmountA   *big.Int
	AmountB   *big.Int
	Liquidity *big.Int
}
