package exchange

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"uniExchange/internal/model"
)

// WithdrawTokens sends custody's entire token balance to the owner. An empty
// balance is a successful no-op. It returns the amount sent.
func (e *Exchange) WithdrawTokens(ctx context.Context, caller, token common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	amount, err := e.tokens.BalanceOf(ctx, token, e.custody)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		e.logger.Debug("nothing to withdraw", zap.String("token", token.Hex()))
		return amount, nil
	}
	if err := e.tokens.Transfer(ctx, token, e.owner, amount); err != nil {
		return nil, err
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindWithdraw,
		TokenOut:  token.Hex(),
		AmountOut: amount.String(),
		Recipient: e.owner.Hex(),
	})
	return amount, nil
}

// WithdrawETH sends custody's entire native balance to the owner.
func (e *Exchange) WithdrawETH(ctx context.Context, caller common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.onlyOwner(caller); err != nil {
		return nil, err
	}
	amount, err := e.host.NativeBalance(ctx, e.custody)
	if err != nil {
		return nil, fmt.Errorf("native balance: %w", err)
	}
	if amount.Sign() == 0 {
		e.logger.Debug("nothing to withdraw", zap.String("asset", "native"))
		return amount, nil
	}
	if err := e.sendNative(ctx, e.custody, e.owner, amount); err != nil {
		return nil, err
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindWithdrawETH,
		AmountOut: amount.String(),
		Recipient: e.owner.Hex(),
	})
	return amount, nil
}

// GetBalance returns custody's native balance. Any caller may read it.
func (e *Exchange) GetBalance(ctx context.Context) (*big.Int, error) {
	bal, err := e.host.NativeBalance(ctx, e.custody)
	if err != nil {
		return nil, fmt.Errorf("native balance: %w", err)
	}
	return bal, nil
}

// TokenBalance returns custody's balance of token.
func (e *Exchange) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	return e.tokens.BalanceOf(ctx, token, e.custody)
}

// Deposit moves amount of token from caller into custody.
func (e *Exchange) Deposit(ctx context.Context, caller, token common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInsufficientInputAmount
	}
	if err := e.host.Transfer(ctx, token, caller, e.custody, amount); err != nil {
		return &TransferFailedError{Token: token, From: caller, To: e.custody, Amount: new(big.Int).Set(amount), Err: err}
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindDeposit,
		Caller:    caller.Hex(),
		TokenIn:   token.Hex(),
		AmountIn:  amount.String(),
		Recipient: e.custody.Hex(),
	})
	return nil
}

// DepositETH moves native value from caller into custody.
func (e *Exchange) DepositETH(ctx context.Context, caller common.Address, value *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if value == nil || value.Sign() <= 0 {
		return ErrInsufficientInputAmount
	}
	if err := e.sendNative(ctx, caller, e.custody, value); err != nil {
		return err
	}

	e.record(ctx, model.Receipt{
		Kind:      model.KindDepositETH,
		Caller:    caller.Hex(),
		AmountIn:  value.String(),
		Recipient: e.custody.Hex(),
	})
	return nil
}
