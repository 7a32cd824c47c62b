// Package exchange is a custodial swap engine over Uniswap V2 pairs. The
// custody account holds the funds, and only the owner may move them.
package exchange

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"uniExchange/internal/amm"
	"uniExchange/internal/model"
	"uniExchange/internal/storage"
)

const defaultDeadlineTTL = 20 * time.Minute

// Config fixes the exchange's identity and pricing.
type Config struct {
	Owner   common.Address
	Custody common.Address
	Fee     amm.Fee
	// DeadlineTTL is added to the current time for router deadlines.
	DeadlineTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Exchange runs owner-only swaps and custody operations against a Host.
// Mutating calls are serialised.
type Exchange struct {
	mu sync.Mutex

	owner       common.Address
	custody     common.Address
	host        Host
	tokens      *Tokens
	resolver    *Resolver
	pricer      *amm.Pricer
	sink        storage.Storage
	logger      *zap.Logger
	now         func() time.Time
	deadlineTTL time.Duration
}

// New builds an Exchange. sink may be nil.
func New(cfg Config, host Host, sink storage.Storage, logger *zap.Logger) (*Exchange, error) {
	if host == nil {
		return nil, fmt.Errorf("host is nil")
	}
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("owner: %w", amm.ErrZeroAddress)
	}
	if cfg.Custody == (common.Address{}) {
		return nil, fmt.Errorf("custody: %w", amm.ErrZeroAddress)
	}
	fee := cfg.Fee
	if fee == (amm.Fee{}) {
		fee = amm.DefaultFee
	}
	pricer, err := amm.NewPricer(fee)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.DeadlineTTL
	if ttl <= 0 {
		ttl = defaultDeadlineTTL
	}

	return &Exchange{
		owner:       cfg.Owner,
		custody:     cfg.Custody,
		host:        host,
		tokens:      NewTokens(host, cfg.Custody),
		resolver:    NewResolver(host),
		pricer:      pricer,
		sink:        sink,
		logger:      logger,
		now:         now,
		deadlineTTL: ttl,
	}, nil
}

// Owner returns the immutable owner address.
func (e *Exchange) Owner() common.Address { return e.owner }

// Custody returns the account holding the exchange's funds.
func (e *Exchange) Custody() common.Address { return e.custody }

// Resolver exposes pair resolution for read-only callers.
func (e *Exchange) Resolver() *Resolver { return e.resolver }

func (e *Exchange) onlyOwner(caller common.Address) error {
	if caller != e.owner {
		e.logger.Warn("rejected non-owner call", zap.String("caller", caller.Hex()))
		return &NotOwnerError{Caller: caller}
	}
	return nil
}

func (e *Exchange) deadline() *big.Int {
	return big.NewInt(e.now().Add(e.deadlineTTL).Unix())
}

func (e *Exchange) sendNative(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := e.host.SendNative(ctx, from, to, amount); err != nil {
		return &TransferFailedError{From: from, To: to, Amount: new(big.Int).Set(amount), Err: err}
	}
	return nil
}

// record hands a receipt to the sink. A sink failure is logged and never
// fails the already committed operation.
func (e *Exchange) record(ctx context.Context, r model.Receipt) {
	if r.Caller == "" {
		r.Caller = e.owner.Hex()
	}
	r.Custody = e.custody.Hex()
	r.Timestamp = e.now().UTC().Format(time.RFC3339Nano)

	e.logger.Info("operation committed",
		zap.String("kind", r.Kind),
		zap.String("token_in", r.TokenIn),
		zap.String("token_out", r.TokenOut),
		zap.String("amount_in", r.AmountIn),
		zap.String("amount_out", r.AmountOut),
	)
	if e.sink == nil {
		return
	}
	if err := e.sink.PutReceipts(context.WithoutCancel(ctx), []model.Receipt{r}); err != nil {
		e.logger.Warn("receipt sink failed", zap.String("kind", r.Kind), zap.Error(err))
	}
}
