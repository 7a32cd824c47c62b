package dex

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"uniExchange/internal/chain"
	"uniExchange/internal/model"
)

var (
	// ErrNoSigner is returned when an effect names an account without a key.
	ErrNoSigner = errors.New("no signer for account")
	// ErrReturnedFalse is a token call that returned false instead of reverting.
	ErrReturnedFalse = errors.New("call returned false")
	// ErrTxFailed is a mined transaction with a failed status.
	ErrTxFailed = errors.New("transaction failed")
)

// EVMHostConfig names the deployed contracts and the keys the host may sign with.
type EVMHostConfig struct {
	WrappedNative common.Address
	Factory       common.Address
	Router        common.Address
	Keys          []*ecdsa.PrivateKey
	// GasLimit overrides estimation when non-zero.
	GasLimit uint64
}

// EVMHost executes exchange effects against a live chain through a JSON-RPC
// endpoint. Every write is simulated with eth_call first so reverts and false
// returns surface before a transaction is broadcast.
type EVMHost struct {
	client  *chain.Client
	cfg     EVMHostConfig
	signers map[common.Address]*bind.TransactOpts
	decoder *PairDecoder
	logger  *zap.Logger

	// one transaction in flight per host keeps nonces sequential
	txMu sync.Mutex

	erc20   abi.ABI
	pair    abi.ABI
	factory abi.ABI
	router  abi.ABI
	weth    abi.ABI
}

// ParseKeys decodes hex private keys, with or without a 0x prefix.
func ParseKeys(hexKeys []string) ([]*ecdsa.PrivateKey, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(hexKeys))
	for i, raw := range hexKeys {
		raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
		if raw == "" {
			continue
		}
		key, err := crypto.HexToECDSA(raw)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// NewEVMHost builds a host bound to client's chain.
func NewEVMHost(ctx context.Context, client *chain.Client, cfg EVMHostConfig, logger *zap.Logger) (*EVMHost, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	h := &EVMHost{
		client:  client,
		cfg:     cfg,
		signers: make(map[common.Address]*bind.TransactOpts, len(cfg.Keys)),
		logger:  logger,
	}
	for _, key := range cfg.Keys {
		opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
		if err != nil {
			return nil, fmt.Errorf("transactor: %w", err)
		}
		h.signers[opts.From] = opts
	}

	if h.erc20, err = ERC20ABI(); err != nil {
		return nil, err
	}
	if h.pair, err = V2PairABI(); err != nil {
		return nil, err
	}
	if h.factory, err = V2FactoryABI(); err != nil {
		return nil, err
	}
	if h.router, err = V2RouterABI(); err != nil {
		return nil, err
	}
	if h.weth, err = WETHABI(); err != nil {
		return nil, err
	}
	if h.decoder, err = NewPairDecoder(); err != nil {
		return nil, err
	}
	return h, nil
}

// Signers lists the accounts the host can act for.
func (h *EVMHost) Signers() []common.Address {
	out := make([]common.Address, 0, len(h.signers))
	for addr := range h.signers {
		out = append(out, addr)
	}
	return out
}

func (h *EVMHost) WrappedNative() common.Address { return h.cfg.WrappedNative }

func (h *EVMHost) Router() common.Address { return h.cfg.Router }

// BalanceOf reads an ERC20 balance.
func (h *EVMHost) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	values, err := callMethod(ctx, h.client, token, h.erc20, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// NativeBalance reads the native balance of holder.
func (h *EVMHost) NativeBalance(ctx context.Context, holder common.Address) (*big.Int, error) {
	return h.client.BalanceAt(ctx, holder)
}

// GetPair asks the factory for the pair of two tokens. Unknown pairs come back
// as the zero address.
func (h *EVMHost) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	values, err := callMethod(ctx, h.client, h.cfg.Factory, h.factory, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

func (h *EVMHost) PairTokens(ctx context.Context, pair common.Address) (common.Address, common.Address, error) {
	values, err := callMethod(ctx, h.client, pair, h.pair, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}
	values, err = callMethod(ctx, h.client, pair, h.pair, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}
	return token0, token1, nil
}

func (h *EVMHost) GetReserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	values, err := callMethod(ctx, h.client, pair, h.pair, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("unexpected getReserves values: %d", len(values))
	}
	reserve0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return reserve0, reserve1, nil
}

func (h *EVMHost) RouterGetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	values, err := callMethod(ctx, h.client, h.cfg.Router, h.router, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	return asBigInts(values[0])
}

func (h *EVMHost) RouterGetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	values, err := callMethod(ctx, h.client, h.cfg.Router, h.router, "getAmountsIn", amountOut, path)
	if err != nil {
		return nil, err
	}
	return asBigInts(values[0])
}

// Transfer moves amount of token from from to to.
func (h *EVMHost) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	_, err := h.transact(ctx, from, token, h.erc20, nil, "transfer", to, amount)
	return err
}

// TransferFrom spends spender's allowance over from.
func (h *EVMHost) TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	_, err := h.transact(ctx, spender, token, h.erc20, nil, "transferFrom", from, to, amount)
	return err
}

func (h *EVMHost) Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error {
	_, err := h.transact(ctx, owner, token, h.erc20, nil, "approve", spender, amount)
	return err
}

// SendNative sends a plain value transfer.
func (h *EVMHost) SendNative(ctx context.Context, from, to common.Address, amount *big.Int) error {
	opts, err := h.signer(ctx, from, amount)
	if err != nil {
		return err
	}
	h.txMu.Lock()
	defer h.txMu.Unlock()

	bound := bind.NewBoundContract(to, abi.ABI{}, h.client.Backend(), h.client.Backend(), h.client.Backend())
	tx, err := bound.Transfer(opts)
	if err != nil {
		return fmt.Errorf("send native: %w", err)
	}
	_, err = h.waitMined(ctx, tx, "send native")
	return err
}

func (h *EVMHost) Wrap(ctx context.Context, from common.Address, amount *big.Int) error {
	_, err := h.transact(ctx, from, h.cfg.WrappedNative, h.weth, amount, "deposit")
	return err
}

func (h *EVMHost) Unwrap(ctx context.Context, from common.Address, amount *big.Int) error {
	_, err := h.transact(ctx, from, h.cfg.WrappedNative, h.weth, nil, "withdraw", amount)
	return err
}

// PairSwap calls pair.swap with empty callback data and logs the pair events
// from the receipt.
func (h *EVMHost) PairSwap(ctx context.Context, from, pair common.Address, amount0Out, amount1Out *big.Int, to common.Address) error {
	res, err := h.transact(ctx, from, pair, h.pair, nil, "swap", amount0Out, amount1Out, to, []byte{})
	if err != nil {
		return err
	}
	h.logPairEvents(res.receipt)
	return nil
}

func (h *EVMHost) Skim(ctx context.Context, from, pair, to common.Address) error {
	_, err := h.transact(ctx, from, pair, h.pair, nil, "skim", to)
	return err
}

func (h *EVMHost) RouterAddLiquidity(ctx context.Context, from common.Address, p model.AddLiquidityParams) (model.LiquidityResult, error) {
	res, err := h.transact(ctx, from, h.cfg.Router, h.router, nil, "addLiquidity",
		p.TokenA, p.TokenB, p.AmountADesired, p.AmountBDesired, p.AmountAMin, p.AmountBMin, p.To, p.Deadline)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	return liquidityResult(res.values)
}

func (h *EVMHost) RouterAddLiquidityETH(ctx context.Context, from common.Address, p model.AddLiquidityETHParams) (model.LiquidityResult, error) {
	res, err := h.transact(ctx, from, h.cfg.Router, h.router, p.Value, "addLiquidityETH",
		p.Token, p.AmountTokenDesired, p.AmountTokenMin, p.AmountETHMin, p.To, p.Deadline)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	return liquidityResult(res.values)
}

func (h *EVMHost) RouterSwapExactTokensForTokens(ctx context.Context, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]*big.Int, error) {
	res, err := h.transact(ctx, from, h.cfg.Router, h.router, nil, "swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	if err != nil {
		return nil, err
	}
	h.logPairEvents(res.receipt)
	if len(res.values) == 0 {
		return nil, fmt.Errorf("swapExactTokensForTokens: empty result")
	}
	return asBigInts(res.values[0])
}

type txResult struct {
	// values are the outputs of the pre-flight simulation
	values  []interface{}
	receipt *types.Receipt
}

func (h *EVMHost) signer(ctx context.Context, from common.Address, value *big.Int) (*bind.TransactOpts, error) {
	base, ok := h.signers[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSigner, from.Hex())
	}
	opts := *base
	opts.Context = ctx
	opts.Value = value
	opts.GasLimit = h.cfg.GasLimit
	return &opts, nil
}

func (h *EVMHost) transact(ctx context.Context, from, target common.Address, parsed abi.ABI, value *big.Int, method string, args ...interface{}) (txResult, error) {
	opts, err := h.signer(ctx, from, value)
	if err != nil {
		return txResult{}, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return txResult{}, fmt.Errorf("pack %s: %w", method, err)
	}

	h.txMu.Lock()
	defer h.txMu.Unlock()

	out, err := h.client.CallContract(ctx, ethereum.CallMsg{From: from, To: &target, Value: value, Data: data}, nil)
	if err != nil {
		return txResult{}, fmt.Errorf("simulate %s: %w", method, err)
	}
	values, err := simulatedValues(parsed, method, out)
	if err != nil {
		return txResult{}, err
	}

	bound := bind.NewBoundContract(target, parsed, h.client.Backend(), h.client.Backend(), h.client.Backend())
	tx, err := bound.Transact(opts, method, args...)
	if err != nil {
		return txResult{}, fmt.Errorf("send %s: %w", method, err)
	}
	receipt, err := h.waitMined(ctx, tx, method)
	if err != nil {
		return txResult{}, err
	}
	return txResult{values: values, receipt: receipt}, nil
}

// simulatedValues unpacks a simulation result. Tokens that omit the bool
// return are accepted; an explicit false is not.
func simulatedValues(parsed abi.ABI, method string, out []byte) ([]interface{}, error) {
	m, ok := parsed.Methods[method]
	if !ok || len(m.Outputs) == 0 {
		return nil, nil
	}
	if len(out) == 0 && len(m.Outputs) == 1 && m.Outputs[0].Type.T == abi.BoolTy {
		return nil, nil
	}
	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 1 && m.Outputs[0].Type.T == abi.BoolTy {
		ok, err := asBool(values[0])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", method, ErrReturnedFalse)
		}
	}
	return values, nil
}

func (h *EVMHost) waitMined(ctx context.Context, tx *types.Transaction, method string) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, h.client.DeployBackend(), tx)
	if err != nil {
		return nil, fmt.Errorf("wait %s %s: %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s %s: %w", method, tx.Hash().Hex(), ErrTxFailed)
	}
	h.logger.Debug("transaction mined",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return receipt, nil
}

func (h *EVMHost) logPairEvents(receipt *types.Receipt) {
	events, err := DecodeReceipt(h.decoder, receipt)
	if err != nil {
		h.logger.Warn("decode pair events failed", zap.Error(err))
	}
	for _, event := range events {
		h.logger.Info("pair event",
			zap.String("event", event.Name),
			zap.String("pool", event.Address.Hex()),
			zap.String("tx", event.TxHash.Hex()),
			zap.Any("data", event.Decoded),
		)
	}
}

func liquidityResult(values []interface{}) (model.LiquidityResult, error) {
	if len(values) != 3 {
		return model.LiquidityResult{}, fmt.Errorf("unexpected liquidity values: %d", len(values))
	}
	var out [3]*big.Int
	for i, v := range values {
		n, err := asBigInt(v)
		if err != nil {
			return model.LiquidityResult{}, err
		}
		out[i] = n
	}
	return model.LiquidityResult{AmountA: out[0], AmountB: out[1], Liquidity: out[2]}, nil
}
