// Package api serves read-only exchange queries over HTTP.
package api

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"uniExchange/internal/dex"
	"uniExchange/internal/model"
)

// Service is the part of the exchange the API reads from.
type Service interface {
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (model.Quote, error)
	QuoteIn(ctx context.Context, tokenIn, tokenOut common.Address, amountOut *big.Int) (model.Quote, error)
	GetBalance(ctx context.Context) (*big.Int, error)
	TokenBalance(ctx context.Context, token common.Address) (*big.Int, error)
	Custody() common.Address
}

// MetaLookup resolves display metadata for a token. It never fails; unknown
// tokens come back with 18 decimals and no symbol.
type MetaLookup func(ctx context.Context, token common.Address) model.TokenMeta

// Handler serves the quote and balance endpoints.
type Handler struct {
	base    context.Context
	svc     Service
	meta    MetaLookup
	logger  *zap.Logger
	timeout time.Duration
}

// NewHandler builds a Handler. Request work is bounded by timeout and cancelled
// with base.
func NewHandler(base context.Context, svc Service, meta MetaLookup, logger *zap.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if meta == nil {
		meta = func(_ context.Context, token common.Address) model.TokenMeta {
			return model.TokenMeta{Address: token.Hex(), Decimals: 18}
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{base: base, svc: svc, meta: meta, logger: logger, timeout: timeout}
}

// NewApp builds a fiber app with every route registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.Register(app)
	return app
}

// Register mounts the routes on r.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/healthz", func(c fiber.Ctx) error { return c.SendString("ok") })
	r.Get("/quote", h.Quote())
	r.Get("/balance", h.Balance())
}

type QuoteRequest struct {
	TokenIn   string `query:"token_in"`
	TokenOut  string `query:"token_out"`
	AmountIn  string `query:"amount_in"`
	AmountOut string `query:"amount_out"`
}

type QuoteResponse struct {
	Pool               string `json:"pool"`
	TokenIn            string `json:"token_in"`
	TokenOut           string `json:"token_out"`
	AmountIn           string `json:"amount_in"`
	AmountOut          string `json:"amount_out"`
	AmountInFormatted  string `json:"amount_in_formatted"`
	AmountOutFormatted string `json:"amount_out_formatted"`
	PriceImpactPct     string `json:"price_impact_pct"`
}

type BalanceResponse struct {
	Custody   string `json:"custody"`
	Token     string `json:"token,omitempty"`
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
}

// Quote prices a single-hop swap. Exactly one of amount_in and amount_out
// selects exact-input or exact-output pricing.
func (h *Handler) Quote() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req QuoteRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", zap.Error(err))
			return ErrInvalidQueryParameters
		}
		tokenIn, err := parseAddress("token_in", req.TokenIn)
		if err != nil {
			return err
		}
		tokenOut, err := parseAddress("token_out", req.TokenOut)
		if err != nil {
			return err
		}
		if tokenIn == tokenOut {
			return ErrSameTokens
		}

		ctx, cancel := context.WithTimeout(h.base, h.timeout)
		defer cancel()

		var q model.Quote
		switch {
		case req.AmountIn != "" && req.AmountOut != "":
			return ErrAmountConflict
		case req.AmountIn != "":
			amount, err := parseAmount("amount_in", req.AmountIn)
			if err != nil {
				return err
			}
			q, err = h.svc.Quote(ctx, tokenIn, tokenOut, amount)
			if err != nil {
				return h.serviceError(err)
			}
		case req.AmountOut != "":
			amount, err := parseAmount("amount_out", req.AmountOut)
			if err != nil {
				return err
			}
			q, err = h.svc.QuoteIn(ctx, tokenIn, tokenOut, amount)
			if err != nil {
				return h.serviceError(err)
			}
		default:
			return ErrAmountRequired
		}

		metaIn := h.meta(ctx, tokenIn)
		metaOut := h.meta(ctx, tokenOut)
		h.logger.Debug("quote computed",
			zap.String("pool", q.Pool.Hex()),
			zap.String("in", q.AmountIn.String()),
			zap.String("out", q.AmountOut.String()),
		)
		return c.JSON(QuoteResponse{
			Pool:               q.Pool.Hex(),
			TokenIn:            q.TokenIn.Hex(),
			TokenOut:           q.TokenOut.Hex(),
			AmountIn:           q.AmountIn.String(),
			AmountOut:          q.AmountOut.String(),
			AmountInFormatted:  dex.FormatAmount(q.AmountIn, metaIn.Decimals),
			AmountOutFormatted: dex.FormatAmount(q.AmountOut, metaOut.Decimals),
			PriceImpactPct:     dex.PriceImpact(q.AmountIn, q.AmountOut, q.ReserveIn, q.ReserveOut).String(),
		})
	}
}

// Balance reports the custody's native balance, or its ERC20 balance when a
// token query parameter is given.
func (h *Handler) Balance() fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(h.base, h.timeout)
		defer cancel()

		resp := BalanceResponse{Custody: h.svc.Custody().Hex()}
		var (
			bal      *big.Int
			decimals uint8 = 18
		)
		if raw := c.Query("token"); raw != "" {
			token, err := parseAddress("token", raw)
			if err != nil {
				return err
			}
			if bal, err = h.svc.TokenBalance(ctx, token); err != nil {
				return h.serviceError(err)
			}
			resp.Token = token.Hex()
			decimals = h.meta(ctx, token).Decimals
		} else {
			var err error
			if bal, err = h.svc.GetBalance(ctx); err != nil {
				return h.serviceError(err)
			}
		}
		resp.Balance = bal.String()
		resp.Formatted = dex.FormatAmount(bal, decimals)
		return c.JSON(resp)
	}
}

func (h *Handler) serviceError(err error) error {
	if status, ok := statusFor(err); ok {
		return fiber.NewError(status, err.Error())
	}
	h.logger.Error("exchange query failed", zap.Error(err))
	return ErrQuoteFailedInternal
}

func parseAddress(field, raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, NewAddressRequired(field)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, NewInvalidAddress(field)
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, NewInvalidAmount(field, errInvalidInteger)
	}
	if amount.Sign() <= 0 {
		return nil, NewInvalidAmount(field, errNonPositive)
	}
	return amount, nil
}
