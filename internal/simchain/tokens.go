package simchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"uniExchange/internal/model"
)

// TokenMeta returns the ERC20 metadata of token.
func (c *Chain) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	var out model.TokenMeta
	err := c.view(ctx, func(s *state) error {
		t, err := s.token(token)
		if err != nil {
			return err
		}
		out = model.TokenMeta{Address: token.Hex(), Decimals: t.decimals, Symbol: t.symbol, Name: t.name}
		return nil
	})
	return out, err
}

// BalanceOf returns holder's balance of token.
func (c *Chain) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	var out *big.Int
	err := c.view(ctx, func(s *state) error {
		bal, err := s.balanceOf(token, holder)
		out = bal
		return err
	})
	return out, err
}

// Allowance returns how much spender may move from owner's balance.
func (c *Chain) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var out *big.Int
	err := c.view(ctx, func(s *state) error {
		t, err := s.token(token)
		if err != nil {
			return err
		}
		out = t.allowance(owner, spender)
		return nil
	})
	return out, err
}

// Transfer is token.transfer sent by from.
func (c *Chain) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	return c.exec(ctx, func(s *state) error {
		return s.transfer(token, from, to, amount)
	})
}

// TransferFrom is token.transferFrom sent by spender.
func (c *Chain) TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	return c.exec(ctx, func(s *state) error {
		return s.transferFrom(token, spender, from, to, amount)
	})
}

// Approve is token.approve sent by owner.
func (c *Chain) Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error {
	return c.exec(ctx, func(s *state) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		t, err := s.token(token)
		if err != nil {
			return err
		}
		if spender == (common.Address{}) {
			return revert("ERC20: approve to the zero address")
		}
		t.setAllowance(owner, spender, amount)
		return nil
	})
}

// NativeBalance returns holder's native balance.
func (c *Chain) NativeBalance(ctx context.Context, holder common.Address) (*big.Int, error) {
	var out *big.Int
	err := c.view(ctx, func(s *state) error {
		out = s.nativeOf(holder)
		return nil
	})
	return out, err
}

// SendNative moves native currency from from to to.
func (c *Chain) SendNative(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return c.exec(ctx, func(s *state) error {
		return s.moveNative(from, to, amount)
	})
}

// Wrap is WETH9.deposit with value amount, sent by from.
func (c *Chain) Wrap(ctx context.Context, from common.Address, amount *big.Int) error {
	return c.exec(ctx, func(s *state) error {
		return s.wrap(c.weth, from, amount)
	})
}

// Unwrap is WETH9.withdraw(amount) sent by from.
func (c *Chain) Unwrap(ctx context.Context, from common.Address, amount *big.Int) error {
	return c.exec(ctx, func(s *state) error {
		return s.unwrap(c.weth, from, amount)
	})
}

func (s *state) wrap(weth, from common.Address, amount *big.Int) error {
	if err := s.moveNative(from, weth, amount); err != nil {
		return err
	}
	t, err := s.token(weth)
	if err != nil {
		return err
	}
	t.mint(from, amount)
	return nil
}

func (s *state) unwrap(weth, from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t, err := s.token(weth)
	if err != nil {
		return err
	}
	if err := t.burn(from, amount); err != nil {
		return err
	}
	return s.moveNative(weth, from, amount)
}
