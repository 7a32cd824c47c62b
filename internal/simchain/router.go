package simchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"uniExchange/internal/model"
)

// The library math below follows UniswapV2Library on plain big.Int so the
// router can serve as an independent oracle for other pricers.

func libraryQuote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if amountA.Sign() <= 0 {
		return nil, revert("UniswapV2Library: INSUFFICIENT_AMOUNT")
	}
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, revert("UniswapV2Library: INSUFFICIENT_LIQUIDITY")
	}
	return new(big.Int).Div(new(big.Int).Mul(amountA, reserveB), reserveA), nil
}

func libraryAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, revert("UniswapV2Library: INSUFFICIENT_INPUT_AMOUNT")
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, revert("UniswapV2Library: INSUFFICIENT_LIQUIDITY")
	}
	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Add(new(big.Int).Mul(reserveIn, big.NewInt(1000)), inWithFee)
	return numerator.Div(numerator, denominator), nil
}

func libraryAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, revert("UniswapV2Library: INSUFFICIENT_OUTPUT_AMOUNT")
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, revert("UniswapV2Library: INSUFFICIENT_LIQUIDITY")
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, revert("ds-math-sub-underflow")
	}
	numerator := new(big.Int).Mul(new(big.Int).Mul(reserveIn, amountOut), big.NewInt(1000))
	denominator := new(big.Int).Mul(new(big.Int).Sub(reserveOut, amountOut), big.NewInt(997))
	numerator.Div(numerator, denominator)
	return numerator.Add(numerator, big.NewInt(1)), nil
}

func (s *state) pairFor(tokenA, tokenB common.Address) (common.Address, *pair, error) {
	token0, token1 := sortPair(tokenA, tokenB)
	addr, ok := s.pairIndex[pairKey{token0: token0, token1: token1}]
	if !ok {
		return common.Address{}, nil, revert("")
	}
	return addr, s.pairs[addr], nil
}

func (s *state) reservesFor(tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	_, p, err := s.pairFor(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if tokenA == p.token0 {
		return p.reserve0, p.reserve1, nil
	}
	return p.reserve1, p.reserve0, nil
}

func (s *state) amountsOut(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, revert("UniswapV2Library: INVALID_PATH")
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := s.reservesFor(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		if amounts[i+1], err = libraryAmountOut(amounts[i], reserveIn, reserveOut); err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

func (s *state) amountsIn(amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, revert("UniswapV2Library: INVALID_PATH")
	}
	amounts := make([]*big.Int, len(path))
	amounts[len(path)-1] = new(big.Int).Set(amountOut)
	for i := len(path) - 1; i > 0; i-- {
		reserveIn, reserveOut, err := s.reservesFor(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		if amounts[i-1], err = libraryAmountIn(amounts[i], reserveIn, reserveOut); err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

// RouterGetAmountsOut is router02.getAmountsOut.
func (c *Chain) RouterGetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	var out []*big.Int
	err := c.view(ctx, func(s *state) error {
		var err error
		out, err = s.amountsOut(amountIn, path)
		return err
	})
	return out, err
}

// RouterGetAmountsIn is router02.getAmountsIn.
func (c *Chain) RouterGetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	var out []*big.Int
	err := c.view(ctx, func(s *state) error {
		var err error
		out, err = s.amountsIn(amountOut, path)
		return err
	})
	return out, err
}

func (c *Chain) ensure(deadline *big.Int) error {
	if deadline == nil || deadline.Cmp(c.timestamp()) < 0 {
		return revert("UniswapV2Router: EXPIRED")
	}
	return nil
}

func (s *state) optimalLiquidity(factory, tokenA, tokenB common.Address, aDesired, bDesired, aMin, bMin *big.Int) (*big.Int, *big.Int, error) {
	if _, _, err := s.pairFor(tokenA, tokenB); err != nil {
		if _, err := s.createPair(factory, tokenA, tokenB); err != nil {
			return nil, nil, err
		}
	}
	reserveA, reserveB, err := s.reservesFor(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if reserveA.Sign() == 0 && reserveB.Sign() == 0 {
		return new(big.Int).Set(aDesired), new(big.Int).Set(bDesired), nil
	}
	bOptimal, err := libraryQuote(aDesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if bOptimal.Cmp(bDesired) <= 0 {
		if bOptimal.Cmp(bMin) < 0 {
			return nil, nil, revert("UniswapV2Router: INSUFFICIENT_B_AMOUNT")
		}
		return new(big.Int).Set(aDesired), bOptimal, nil
	}
	aOptimal, err := libraryQuote(bDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if aOptimal.Cmp(aDesired) > 0 {
		return nil, nil, revert("")
	}
	if aOptimal.Cmp(aMin) < 0 {
		return nil, nil, revert("UniswapV2Router: INSUFFICIENT_A_AMOUNT")
	}
	return aOptimal, new(big.Int).Set(bDesired), nil
}

// RouterAddLiquidity is router02.addLiquidity sent by from.
func (c *Chain) RouterAddLiquidity(ctx context.Context, from common.Address, params model.AddLiquidityParams) (model.LiquidityResult, error) {
	var res model.LiquidityResult
	err := c.exec(ctx, func(s *state) error {
		if err := c.ensure(params.Deadline); err != nil {
			return err
		}
		amountA, amountB, err := s.optimalLiquidity(c.factory, params.TokenA, params.TokenB,
			params.AmountADesired, params.AmountBDesired, params.AmountAMin, params.AmountBMin)
		if err != nil {
			return err
		}
		pairAddr, _, err := s.pairFor(params.TokenA, params.TokenB)
		if err != nil {
			return err
		}
		if err := s.transferFrom(params.TokenA, c.router, from, pairAddr, amountA); err != nil {
			return err
		}
		if err := s.transferFrom(params.TokenB, c.router, from, pairAddr, amountB); err != nil {
			return err
		}
		liquidity, err := s.mintLiquidity(pairAddr, params.To)
		if err != nil {
			return err
		}
		res = model.LiquidityResult{AmountA: amountA, AmountB: amountB, Liquidity: liquidity}
		return nil
	})
	return res, err
}

// RouterAddLiquidityETH is router02.addLiquidityETH sent by from with
// params.Value attached. Unused value is refunded to from.
func (c *Chain) RouterAddLiquidityETH(ctx context.Context, from common.Address, params model.AddLiquidityETHParams) (model.LiquidityResult, error) {
	var res model.LiquidityResult
	err := c.exec(ctx, func(s *state) error {
		if err := checkAmount(params.Value); err != nil {
			return err
		}
		if err := s.moveNative(from, c.router, params.Value); err != nil {
			return err
		}
		if err := c.ensure(params.Deadline); err != nil {
			return err
		}
		amountToken, amountETH, err := s.optimalLiquidity(c.factory, params.Token, c.weth,
			params.AmountTokenDesired, params.Value, params.AmountTokenMin, params.AmountETHMin)
		if err != nil {
			return err
		}
		pairAddr, _, err := s.pairFor(params.Token, c.weth)
		if err != nil {
			return err
		}
		if err := s.transferFrom(params.Token, c.router, from, pairAddr, amountToken); err != nil {
			return err
		}
		if err := s.wrap(c.weth, c.router, amountETH); err != nil {
			return err
		}
		if err := s.transfer(c.weth, c.router, pairAddr, amountETH); err != nil {
			return err
		}
		liquidity, err := s.mintLiquidity(pairAddr, params.To)
		if err != nil {
			return err
		}
		if refund := new(big.Int).Sub(params.Value, amountETH); refund.Sign() > 0 {
			if err := s.moveNative(c.router, from, refund); err != nil {
				return err
			}
		}
		res = model.LiquidityResult{AmountA: amountToken, AmountB: amountETH, Liquidity: liquidity}
		return nil
	})
	return res, err
}

// RouterSwapExactTokensForTokens is router02.swapExactTokensForTokens sent by from.
func (c *Chain) RouterSwapExactTokensForTokens(ctx context.Context, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]*big.Int, error) {
	var amounts []*big.Int
	err := c.exec(ctx, func(s *state) error {
		if err := c.ensure(deadline); err != nil {
			return err
		}
		var err error
		amounts, err = s.amountsOut(amountIn, path)
		if err != nil {
			return err
		}
		if amounts[len(amounts)-1].Cmp(amountOutMin) < 0 {
			return revert("UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT")
		}
		first, _, err := s.pairFor(path[0], path[1])
		if err != nil {
			return err
		}
		if err := s.transferFrom(path[0], c.router, from, first, amounts[0]); err != nil {
			return err
		}
		for i := 0; i < len(path)-1; i++ {
			input, output := path[i], path[i+1]
			token0, _ := sortPair(input, output)
			amount0Out, amount1Out := new(big.Int), new(big.Int).Set(amounts[i+1])
			if input != token0 {
				amount0Out, amount1Out = amount1Out, amount0Out
			}
			recipient := to
			if i < len(path)-2 {
				if recipient, _, err = s.pairFor(output, path[i+2]); err != nil {
					return err
				}
			}
			pairAddr, _, err := s.pairFor(input, output)
			if err != nil {
				return err
			}
			if err := s.swap(pairAddr, amount0Out, amount1Out, recipient); err != nil {
				return err
			}
		}
		return nil
	})
	return amounts, err
}
