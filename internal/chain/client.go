package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// RetryPolicy bounds retries of read-only calls. Transactions never retry.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	retry     RetryPolicy
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, retry RetryPolicy) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewClientFromRPC(rpcClient, retry), nil
}

// NewClientFromRPC wraps an already dialled RPC client.
func NewClientFromRPC(rpcClient *rpc.Client, retry RetryPolicy) *Client {
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		retry:     retry,
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Backend exposes the client for abigen-style bindings and bind.WaitMined.
func (c *Client) Backend() bind.ContractBackend {
	return c.ethClient
}

// DeployBackend exposes the receipt lookups used by bind.WaitMined.
func (c *Client) DeployBackend() bind.DeployBackend {
	return c.ethClient
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := WithRetry(ctx, c.retry.MaxRetries, c.retry.Backoff, func(ctx context.Context) error {
		var err error
		id, err = c.ethClient.ChainID(ctx)
		return err
	})
	return id, err
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// BalanceAt returns the native balance of account at the latest block.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var bal *big.Int
	err := WithRetry(ctx, c.retry.MaxRetries, c.retry.Backoff, func(ctx context.Context) error {
		var err error
		bal, err = c.ethClient.BalanceAt(ctx, account, nil)
		return err
	})
	return bal, err
}

// CallContract performs an eth_call for a contract method. Transport errors
// are retried; an execution revert is returned at once.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := WithRetry(ctx, c.retry.MaxRetries, c.retry.Backoff, func(ctx context.Context) error {
		var err error
		out, err = c.ethClient.CallContract(ctx, msg, blockNumber)
		if IsRevert(err) {
			return Permanent(err)
		}
		return err
	})
	return out, err
}
