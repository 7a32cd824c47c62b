package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uniExchange/internal/amm"
	"uniExchange/internal/chain"
	"uniExchange/internal/config"
	"uniExchange/internal/dex"
	"uniExchange/internal/exchange"
	"uniExchange/internal/storage"
	"uniExchange/internal/storage/postgres"
)

// env is everything a chain-backed command needs.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	client *chain.Client
	host   *dex.EVMHost
	ex     *exchange.Exchange
	meta   *dex.TokenMetaCache
	raw    bool

	closers []func()
}

func addChainFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("rpc", "", "JSON-RPC endpoint")
	f.String("owner", "", "exchange owner address")
	f.String("custody", "", "custody account address")
	f.StringSlice("keys", nil, "hex private keys for owner and custody (comma-separated)")
	f.String("weth", "", "WETH9 address")
	f.String("factory", "", "Uniswap V2 factory address")
	f.String("router", "", "Uniswap V2 router02 address")
	f.Uint64("fee-numerator", 997, "fee numerator")
	f.Uint64("fee-denominator", 1000, "fee denominator")
	f.Duration("deadline-ttl", 20*time.Minute, "router deadline offset")
	f.Uint32("slippage-bps", 50, "default slippage tolerance when no explicit bound is given")
	f.Uint64("gas-limit", 0, "fixed gas limit, 0 estimates")
	f.String("out", "./data/receipts.jsonl", "receipt JSONL path, empty disables")
	f.String("pg-dsn", "", "Postgres DSN for receipts")
	f.Int("max-retries", 5, "maximum retry attempts for reads")
	f.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.Bool("raw", false, "amounts are base units instead of whole tokens")
}

func loadEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	raw, _ := cmd.Flags().GetBool("raw")
	return newEnv(ctx, cfg, raw)
}

func newEnv(ctx context.Context, cfg config.Config, raw bool) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, meta: dex.NewTokenMetaCache(), raw: raw}
	e.closers = append(e.closers, func() { _ = logger.Sync() })

	e.client, err = chain.NewClient(ctx, cfg.RPCURL, chain.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff})
	if err != nil {
		e.close()
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	e.closers = append(e.closers, e.client.Close)

	keys, err := dex.ParseKeys(cfg.Keys)
	if err != nil {
		e.close()
		return nil, err
	}
	e.host, err = dex.NewEVMHost(ctx, e.client, dex.EVMHostConfig{
		WrappedNative: cfg.WrappedNative,
		Factory:       cfg.Factory,
		Router:        cfg.Router,
		Keys:          keys,
		GasLimit:      cfg.GasLimit,
	}, logger)
	if err != nil {
		e.close()
		return nil, err
	}

	sink, closeSink, err := openSink(ctx, cfg.Out, cfg.PGDSN)
	if err != nil {
		e.close()
		return nil, err
	}
	e.closers = append(e.closers, closeSink)

	e.ex, err = exchange.New(exchange.Config{
		Owner:       cfg.Owner,
		Custody:     cfg.Custody,
		Fee:         amm.Fee{Numerator: cfg.FeeNumerator, Denominator: cfg.FeeDenominator},
		DeadlineTTL: cfg.DeadlineTTL,
	}, e.host, sink, logger)
	if err != nil {
		e.close()
		return nil, err
	}

	logger.Info("exchange ready",
		zap.String("rpc", cfg.RPCURL),
		zap.String("owner", cfg.Owner.Hex()),
		zap.String("custody", cfg.Custody.Hex()),
		zap.Int("signers", len(e.host.Signers())),
	)
	return e, nil
}

// close runs closers in reverse so the logger is synced last.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func openSink(ctx context.Context, out, dsn string) (storage.Storage, func(), error) {
	var sinks storage.Multi
	closeFn := func() {}
	if out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(out))
	}
	if dsn != "" {
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		sinks = append(sinks, store)
		closeFn = store.Close
	}
	switch len(sinks) {
	case 0:
		return storage.Discard{}, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	default:
		return sinks, closeFn, nil
	}
}

func (e *env) tokenMeta(ctx context.Context, token common.Address) (decimals uint8, label string) {
	meta := e.meta.Lookup(ctx, e.client, token, e.logger)
	return meta.Decimals, meta.Label()
}

// amount parses text as whole tokens of token, or base units with --raw.
func (e *env) amount(ctx context.Context, token common.Address, text string) (*big.Int, error) {
	if text == "" {
		return nil, nil
	}
	if e.raw {
		v, ok := new(big.Int).SetString(text, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount %q", text)
		}
		return v, nil
	}
	decimals, _ := e.tokenMeta(ctx, token)
	return dex.ParseAmount(text, decimals)
}

func (e *env) nativeAmount(text string) (*big.Int, error) {
	if text == "" {
		return nil, nil
	}
	if e.raw {
		v, ok := new(big.Int).SetString(text, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount %q", text)
		}
		return v, nil
	}
	return dex.ParseAmount(text, 18)
}

func (e *env) format(ctx context.Context, token common.Address, v *big.Int) string {
	if e.raw {
		return v.String()
	}
	decimals, label := e.tokenMeta(ctx, token)
	return dex.FormatAmount(v, decimals) + " " + label
}

func (e *env) formatNative(v *big.Int) string {
	if e.raw {
		return v.String()
	}
	return dex.FormatAmount(v, 18) + " ETH"
}

// minOutFor applies the configured slippage to a fresh quote when the caller
// gave no explicit bound.
func (e *env) minOutFor(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, explicit *big.Int) (*big.Int, error) {
	if explicit != nil {
		return explicit, nil
	}
	q, err := e.ex.Quote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	return applySlippage(q.AmountOut, e.cfg.SlippageBps)
}

func applySlippage(v *big.Int, bps uint32) (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("amount is required")
	}
	return amm.ApplySlippage(v, bps)
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}
