package exchange

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Tokens performs ERC20 calls on behalf of the custody account.
type Tokens struct {
	host    TokenHost
	custody common.Address
}

// NewTokens binds a token accessor to a custody account.
func NewTokens(host TokenHost, custody common.Address) *Tokens {
	return &Tokens{host: host, custody: custody}
}

// BalanceOf reads holder's balance of token.
func (t *Tokens) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	bal, err := t.host.BalanceOf(ctx, token, holder)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", token.Hex(), err)
	}
	return bal, nil
}

// Transfer sends amount of token from custody to to.
func (t *Tokens) Transfer(ctx context.Context, token, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := t.host.Transfer(ctx, token, t.custody, to, amount); err != nil {
		return &TransferFailedError{Token: token, From: t.custody, To: to, Amount: new(big.Int).Set(amount), Err: err}
	}
	return nil
}

// TransferFrom moves amount of token from from to to, spending custody's allowance.
func (t *Tokens) TransferFrom(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := t.host.TransferFrom(ctx, token, t.custody, from, to, amount); err != nil {
		return &TransferFailedError{Token: token, From: from, To: to, Amount: new(big.Int).Set(amount), Err: err}
	}
	return nil
}

// Approve sets spender's allowance over custody's token.
func (t *Tokens) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	if err := t.host.Approve(ctx, token, t.custody, spender, amount); err != nil {
		return fmt.Errorf("approve %s for %s: %w", token.Hex(), spender.Hex(), err)
	}
	return nil
}
