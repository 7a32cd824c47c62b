package simchain

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	minimumLiquidity = big.NewInt(1000)
	maxReserve       = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))
	// pairInitCodeHash is the Uniswap V2 pair creation code hash.
	pairInitCodeHash = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
)

type pair struct {
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
	paused   bool
}

func sortPair(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// CreatePair is factory.createPair.
func (c *Chain) CreatePair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	var addr common.Address
	err := c.exec(ctx, func(s *state) error {
		var err error
		addr, err = s.createPair(c.factory, tokenA, tokenB)
		return err
	})
	return addr, err
}

func (s *state) createPair(factory, tokenA, tokenB common.Address) (common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, revert("UniswapV2: IDENTICAL_ADDRESSES")
	}
	token0, token1 := sortPair(tokenA, tokenB)
	if token0 == (common.Address{}) {
		return common.Address{}, revert("UniswapV2: ZERO_ADDRESS")
	}
	key := pairKey{token0: token0, token1: token1}
	if _, ok := s.pairIndex[key]; ok {
		return common.Address{}, revert("UniswapV2: PAIR_EXISTS")
	}
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	addr := crypto.CreateAddress2(factory, salt, pairInitCodeHash.Bytes())

	s.pairs[addr] = &pair{token0: token0, token1: token1, reserve0: new(big.Int), reserve1: new(big.Int)}
	s.pairIndex[key] = addr
	s.tokens[addr] = newToken("Uniswap V2", "UNI-V2", 18)
	return addr, nil
}

// GetPair is factory.getPair. Unknown pairs return the zero address.
func (c *Chain) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	var addr common.Address
	err := c.view(ctx, func(s *state) error {
		token0, token1 := sortPair(tokenA, tokenB)
		addr = s.pairIndex[pairKey{token0: token0, token1: token1}]
		return nil
	})
	return addr, err
}

// PairTokens returns pair.token0 and pair.token1.
func (c *Chain) PairTokens(ctx context.Context, pairAddr common.Address) (common.Address, common.Address, error) {
	var token0, token1 common.Address
	err := c.view(ctx, func(s *state) error {
		p, err := s.pair(pairAddr)
		if err != nil {
			return err
		}
		token0, token1 = p.token0, p.token1
		return nil
	})
	return token0, token1, err
}

// GetReserves is pair.getReserves.
func (c *Chain) GetReserves(ctx context.Context, pairAddr common.Address) (*big.Int, *big.Int, error) {
	var r0, r1 *big.Int
	err := c.view(ctx, func(s *state) error {
		p, err := s.pair(pairAddr)
		if err != nil {
			return err
		}
		r0, r1 = new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
		return nil
	})
	return r0, r1, err
}

// PairSwap is pair.swap sent by from, with empty callback data.
func (c *Chain) PairSwap(ctx context.Context, from, pairAddr common.Address, amount0Out, amount1Out *big.Int, to common.Address) error {
	return c.exec(ctx, func(s *state) error {
		return s.swap(pairAddr, amount0Out, amount1Out, to)
	})
}

// Skim is pair.skim.
func (c *Chain) Skim(ctx context.Context, from, pairAddr, to common.Address) error {
	return c.exec(ctx, func(s *state) error {
		p, err := s.pair(pairAddr)
		if err != nil {
			return err
		}
		for _, side := range []struct {
			token   common.Address
			reserve *big.Int
		}{{p.token0, p.reserve0}, {p.token1, p.reserve1}} {
			bal, err := s.balanceOf(side.token, pairAddr)
			if err != nil {
				return err
			}
			excess := new(big.Int).Sub(bal, side.reserve)
			if excess.Sign() > 0 {
				if err := s.transfer(side.token, pairAddr, to, excess); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SetPairPaused makes every swap on the pair revert with LOCKED.
func (c *Chain) SetPairPaused(pairAddr common.Address, paused bool) error {
	return c.exec(context.Background(), func(s *state) error {
		p, err := s.pair(pairAddr)
		if err != nil {
			return err
		}
		p.paused = paused
		return nil
	})
}

func (s *state) pair(addr common.Address) (*pair, error) {
	p, ok := s.pairs[addr]
	if !ok {
		return nil, revert("call to non-contract " + addr.Hex())
	}
	return p, nil
}

func (s *state) pairBalances(addr common.Address, p *pair) (*big.Int, *big.Int, error) {
	balance0, err := s.balanceOf(p.token0, addr)
	if err != nil {
		return nil, nil, err
	}
	balance1, err := s.balanceOf(p.token1, addr)
	if err != nil {
		return nil, nil, err
	}
	return balance0, balance1, nil
}

func (s *state) update(p *pair, balance0, balance1 *big.Int) error {
	if balance0.Cmp(maxReserve) > 0 || balance1.Cmp(maxReserve) > 0 {
		return revert("UniswapV2: OVERFLOW")
	}
	p.reserve0 = new(big.Int).Set(balance0)
	p.reserve1 = new(big.Int).Set(balance1)
	return nil
}

func (s *state) mintLiquidity(addr common.Address, to common.Address) (*big.Int, error) {
	p, err := s.pair(addr)
	if err != nil {
		return nil, err
	}
	lp, err := s.token(addr)
	if err != nil {
		return nil, err
	}
	balance0, balance1, err := s.pairBalances(addr, p)
	if err != nil {
		return nil, err
	}
	amount0 := new(big.Int).Sub(balance0, p.reserve0)
	amount1 := new(big.Int).Sub(balance1, p.reserve1)

	var liquidity *big.Int
	if lp.totalSupply.Sign() == 0 {
		liquidity = new(big.Int).Sqrt(new(big.Int).Mul(amount0, amount1))
		liquidity.Sub(liquidity, minimumLiquidity)
		if liquidity.Sign() > 0 {
			lp.mint(common.Address{}, minimumLiquidity)
		}
	} else {
		l0 := new(big.Int).Div(new(big.Int).Mul(amount0, lp.totalSupply), p.reserve0)
		l1 := new(big.Int).Div(new(big.Int).Mul(amount1, lp.totalSupply), p.reserve1)
		liquidity = l0
		if l1.Cmp(l0) < 0 {
			liquidity = l1
		}
	}
	if liquidity.Sign() <= 0 {
		return nil, revert("UniswapV2: INSUFFICIENT_LIQUIDITY_MINTED")
	}
	lp.mint(to, liquidity)
	if err := s.update(p, balance0, balance1); err != nil {
		return nil, err
	}
	return liquidity, nil
}

// swap follows UniswapV2Pair.swap: optimistic transfer out, then the
// fee-adjusted constant-product check on the resulting balances.
func (s *state) swap(addr common.Address, amount0Out, amount1Out *big.Int, to common.Address) error {
	if err := checkAmount(amount0Out); err != nil {
		return err
	}
	if err := checkAmount(amount1Out); err != nil {
		return err
	}
	p, err := s.pair(addr)
	if err != nil {
		return err
	}
	if p.paused {
		return revert("UniswapV2: LOCKED")
	}
	if amount0Out.Sign() == 0 && amount1Out.Sign() == 0 {
		return revert("UniswapV2: INSUFFICIENT_OUTPUT_AMOUNT")
	}
	if amount0Out.Cmp(p.reserve0) >= 0 || amount1Out.Cmp(p.reserve1) >= 0 {
		return revert("UniswapV2: INSUFFICIENT_LIQUIDITY")
	}
	if to == p.token0 || to == p.token1 {
		return revert("UniswapV2: INVALID_TO")
	}
	if amount0Out.Sign() > 0 {
		if err := s.transfer(p.token0, addr, to, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out.Sign() > 0 {
		if err := s.transfer(p.token1, addr, to, amount1Out); err != nil {
			return err
		}
	}

	balance0, balance1, err := s.pairBalances(addr, p)
	if err != nil {
		return err
	}
	amount0In := amountIn(balance0, p.reserve0, amount0Out)
	amount1In := amountIn(balance1, p.reserve1, amount1Out)
	if amount0In.Sign() == 0 && amount1In.Sign() == 0 {
		return revert("UniswapV2: INSUFFICIENT_INPUT_AMOUNT")
	}

	thousand := big.NewInt(1000)
	three := big.NewInt(3)
	adjusted0 := new(big.Int).Sub(new(big.Int).Mul(balance0, thousand), new(big.Int).Mul(amount0In, three))
	adjusted1 := new(big.Int).Sub(new(big.Int).Mul(balance1, thousand), new(big.Int).Mul(amount1In, three))
	kAfter := new(big.Int).Mul(adjusted0, adjusted1)
	kBefore := new(big.Int).Mul(new(big.Int).Mul(p.reserve0, p.reserve1), big.NewInt(1_000_000))
	if kAfter.Cmp(kBefore) < 0 {
		return revert("UniswapV2: K")
	}
	return s.update(p, balance0, balance1)
}

func amountIn(balance, reserve, out *big.Int) *big.Int {
	floor := new(big.Int).Sub(reserve, out)
	if balance.Cmp(floor) > 0 {
		return floor.Sub(balance, floor)
	}
	return new(big.Int)
}
