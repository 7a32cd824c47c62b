// Package simchain is an in-memory EVM world with ERC20 tokens, native
// balances, WETH9 and the Uniswap V2 factory, pair and router02 contracts.
// Each top-level call runs against a snapshot and reverts as a whole.
package simchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrReturnedFalse is a token call that returned false instead of reverting.
var ErrReturnedFalse = errors.New("simchain: call returned false")

// RevertError carries a contract revert reason.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func revert(reason string) error {
	return &RevertError{Reason: reason}
}

var deployer = common.HexToAddress("0x00000000000000000000000000000000000de910")

// Chain is safe for concurrent use.
type Chain struct {
	mu    sync.Mutex
	st    *state
	nonce uint64
	now   func() time.Time

	weth    common.Address
	factory common.Address
	router  common.Address
}

// Option configures a Chain.
type Option func(*Chain)

// WithClock sets the block timestamp source used for router deadlines.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// New deploys WETH, the factory and the router into an empty world.
func New(opts ...Option) *Chain {
	c := &Chain{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.weth = c.deployToken("Wrapped Ether", "WETH", 18)
	c.factory = c.nextAddress()
	c.router = c.nextAddress()
	return c
}

// WrappedNative returns the WETH9 address.
func (c *Chain) WrappedNative() common.Address { return c.weth }

// Factory returns the factory address.
func (c *Chain) Factory() common.Address { return c.factory }

// Router returns the router02 address.
func (c *Chain) Router() common.Address { return c.router }

// NewAccount returns a fresh externally owned address.
func (c *Chain) NewAccount() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextAddress()
}

// DeployToken deploys an ERC20 with zero supply.
func (c *Chain) DeployToken(name, symbol string, decimals uint8) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deployToken(name, symbol, decimals)
}

// Mint credits amount of token to to.
func (c *Chain) Mint(token, to common.Address, amount *big.Int) error {
	return c.exec(context.Background(), func(s *state) error {
		t, err := s.token(token)
		if err != nil {
			return err
		}
		t.mint(to, amount)
		return nil
	})
}

// Fund credits native currency to addr.
func (c *Chain) Fund(addr common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.creditNative(addr, amount)
}

// SetTransferBlocked makes transfers of token to to return false.
func (c *Chain) SetTransferBlocked(token, to common.Address, blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := blockKey{token: token, to: to}
	if blocked {
		c.st.blocked[key] = true
	} else {
		delete(c.st.blocked, key)
	}
}

// TotalSupply returns the token's total supply.
func (c *Chain) TotalSupply(token common.Address) (*big.Int, error) {
	var out *big.Int
	err := c.view(context.Background(), func(s *state) error {
		t, err := s.token(token)
		if err != nil {
			return err
		}
		out = new(big.Int).Set(t.totalSupply)
		return nil
	})
	return out, err
}

func (c *Chain) nextAddress() common.Address {
	addr := crypto.CreateAddress(deployer, c.nonce)
	c.nonce++
	return addr
}

func (c *Chain) deployToken(name, symbol string, decimals uint8) common.Address {
	addr := c.nextAddress()
	c.st.tokens[addr] = newToken(name, symbol, decimals)
	return addr
}

func (c *Chain) timestamp() *big.Int {
	return big.NewInt(c.now().Unix())
}

// exec runs fn against the live state and restores the snapshot if fn fails.
func (c *Chain) exec(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.st.clone()
	if err := fn(c.st); err != nil {
		c.st = snapshot
		return err
	}
	return nil
}

func (c *Chain) view(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.st)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("simchain: invalid amount %v", amount)
	}
	return nil
}
