package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"

	"uniExchange/internal/amm"
	"uniExchange/internal/dex"
	"uniExchange/internal/exchange"
	"uniExchange/internal/model"
	"uniExchange/internal/simchain"
	"uniExchange/internal/storage"
)

// Options configures a run.
type Options struct {
	Fee    amm.Fee
	Sink   storage.Storage
	Logger *zap.Logger
	// Now fixes the simulated clock; it defaults to time.Now.
	Now func() time.Time
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int
	Op     string
	Result string
	Err    error
}

// Balance is one row of the closing balance sheet.
type Balance struct {
	Symbol  string
	Owner   string
	Custody string
}

// Report is what a run produced.
type Report struct {
	Name     string
	Owner    common.Address
	Custody  common.Address
	Steps    []StepResult
	Balances []Balance
}

type world struct {
	chain    *simchain.Chain
	ex       *exchange.Exchange
	owner    common.Address
	custody  common.Address
	stranger common.Address
	symbols  map[string]common.Address
	decimals map[string]uint8
	order    []string
}

// Run builds the scenario's world and executes its steps in order. It stops
// at the first step whose outcome does not match expectError.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sink := opts.Sink
	if sink == nil {
		sink = storage.Discard{}
	}

	w, err := build(ctx, sc, now)
	if err != nil {
		return nil, err
	}
	w.ex, err = exchange.New(exchange.Config{
		Owner:   w.owner,
		Custody: w.custody,
		Fee:     opts.Fee,
		Now:     now,
	}, w.chain, sink, logger)
	if err != nil {
		return nil, err
	}

	report := &Report{Name: sc.Name, Owner: w.owner, Custody: w.custody}
	for i, st := range sc.Steps {
		result, stepErr := w.step(ctx, st)
		report.Steps = append(report.Steps, StepResult{Index: i, Op: st.Op, Result: result, Err: stepErr})
		logger.Info("scenario step",
			zap.Int("index", i),
			zap.String("op", st.Op),
			zap.String("result", result),
			zap.Error(stepErr),
		)
		if err := checkExpectation(i, st, stepErr); err != nil {
			report.Balances, _ = w.balances(ctx)
			return report, err
		}
	}

	report.Balances, err = w.balances(ctx)
	return report, err
}

func checkExpectation(i int, st StepDef, err error) error {
	switch {
	case st.ExpectError == "" && err != nil:
		return fmt.Errorf("step %d (%s): %w", i, st.Op, err)
	case st.ExpectError != "" && err == nil:
		return fmt.Errorf("step %d (%s): expected error containing %q", i, st.Op, st.ExpectError)
	case st.ExpectError != "" && !strings.Contains(err.Error(), st.ExpectError):
		return fmt.Errorf("step %d (%s): error %q does not contain %q", i, st.Op, err, st.ExpectError)
	default:
		return nil
	}
}

func build(ctx context.Context, sc *Scenario, now func() time.Time) (*world, error) {
	c := simchain.New(simchain.WithClock(now))
	w := &world{
		chain:    c,
		owner:    c.NewAccount(),
		custody:  c.NewAccount(),
		stranger: c.NewAccount(),
		symbols:  map[string]common.Address{"WETH": c.WrappedNative()},
		decimals: map[string]uint8{"WETH": 18, NativeSymbol: 18},
	}
	lp := c.NewAccount()

	ownerETH, err := dex.ParseAmount(sc.OwnerETH, 18)
	if err != nil {
		return nil, fmt.Errorf("ownerEth: %w", err)
	}
	c.Fund(w.owner, ownerETH)
	c.Fund(w.stranger, ownerETH)

	for _, t := range sc.Tokens {
		addr := c.DeployToken(t.Name, t.Symbol, *t.Decimals)
		w.symbols[t.Symbol] = addr
		w.decimals[t.Symbol] = *t.Decimals
		w.order = append(w.order, t.Symbol)

		supply, err := dex.ParseAmount(t.OwnerSupply, *t.Decimals)
		if err != nil {
			return nil, fmt.Errorf("%s ownerSupply: %w", t.Symbol, err)
		}
		for _, holder := range []common.Address{w.owner, w.stranger} {
			if err := c.Mint(addr, holder, supply); err != nil {
				return nil, err
			}
			if err := c.Approve(ctx, addr, holder, w.custody, math.MaxBig256); err != nil {
				return nil, err
			}
		}
		if err := c.Approve(ctx, addr, lp, c.Router(), math.MaxBig256); err != nil {
			return nil, err
		}
	}
	w.order = append(w.order, "WETH")

	deadline := big.NewInt(now().Add(time.Hour).Unix())
	for i, p := range sc.Pools {
		amountA, err := w.amount(p.TokenA, p.AmountA)
		if err != nil {
			return nil, fmt.Errorf("pools[%d]: %w", i, err)
		}
		amountB, err := w.amount(p.TokenB, p.AmountB)
		if err != nil {
			return nil, fmt.Errorf("pools[%d]: %w", i, err)
		}
		tokenA := w.symbols[p.TokenA]
		if err := c.Mint(tokenA, lp, amountA); err != nil {
			return nil, err
		}

		if p.TokenB == NativeSymbol {
			c.Fund(lp, amountB)
			_, err = c.RouterAddLiquidityETH(ctx, lp, model.AddLiquidityETHParams{
				Token:              tokenA,
				AmountTokenDesired: amountA,
				AmountTokenMin:     new(big.Int),
				AmountETHMin:       new(big.Int),
				To:                 lp,
				Deadline:           deadline,
				Value:              amountB,
			})
		} else {
			tokenB := w.symbols[p.TokenB]
			if p.TokenB == "WETH" {
				c.Fund(lp, amountB)
				if err := c.Wrap(ctx, lp, amountB); err != nil {
					return nil, err
				}
				if err := c.Approve(ctx, tokenB, lp, c.Router(), math.MaxBig256); err != nil {
					return nil, err
				}
			} else if err := c.Mint(tokenB, lp, amountB); err != nil {
				return nil, err
			}
			_, err = c.RouterAddLiquidity(ctx, lp, model.AddLiquidityParams{
				TokenA:         tokenA,
				TokenB:         tokenB,
				AmountADesired: amountA,
				AmountBDesired: amountB,
				AmountAMin:     new(big.Int),
				AmountBMin:     new(big.Int),
				To:             lp,
				Deadline:       deadline,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("pools[%d] %s/%s: %w", i, p.TokenA, p.TokenB, err)
		}
	}
	return w, nil
}

func (w *world) amount(symbol, text string) (*big.Int, error) {
	if text == "" {
		return nil, nil
	}
	return dex.ParseAmount(text, w.decimals[symbol])
}

func (w *world) format(symbol string, v *big.Int) string {
	return dex.FormatAmount(v, w.decimals[symbol]) + " " + symbol
}

func (w *world) caller(st StepDef) common.Address {
	if st.Caller == "stranger" {
		return w.stranger
	}
	return w.owner
}

func (w *world) step(ctx context.Context, st StepDef) (string, error) {
	caller := w.caller(st)
	switch st.Op {
	case OpSwap:
		in, err := w.amount(st.In, st.Amount)
		if err != nil {
			return "", err
		}
		minOut, err := w.amount(st.Out, st.Limit)
		if err != nil {
			return "", err
		}
		out, err := w.ex.SwapTokensWithLimit(ctx, caller, w.symbols[st.In], w.symbols[st.Out], in, minOut)
		if err != nil {
			return "", err
		}
		return w.format(st.Out, out), nil

	case OpSwapETH:
		out, err := w.amount(st.Out, st.Amount)
		if err != nil {
			return "", err
		}
		value, err := w.amount(NativeSymbol, st.Value)
		if err != nil {
			return "", err
		}
		spent, err := w.ex.SwapTokensETH(ctx, caller, w.symbols[st.Out], out, value)
		if err != nil {
			return "", err
		}
		return "spent " + w.format(NativeSymbol, spent), nil

	case OpSwapForETH:
		in, err := w.amount(st.In, st.Amount)
		if err != nil {
			return "", err
		}
		minOut, err := w.amount(NativeSymbol, st.Limit)
		if err != nil {
			return "", err
		}
		out, err := w.ex.SwapTokensForETH(ctx, caller, w.symbols[st.In], in, minOut)
		if err != nil {
			return "", err
		}
		return w.format(NativeSymbol, out), nil

	case OpPoolSwap:
		pool, err := w.chain.GetPair(ctx, w.symbols[st.In], w.symbols[st.Out])
		if err != nil {
			return "", err
		}
		out, err := w.amount(st.Out, st.Amount)
		if err != nil {
			return "", err
		}
		maxIn, err := w.amount(st.In, st.Limit)
		if err != nil {
			return "", err
		}
		spent, err := w.ex.Swap(ctx, caller, pool, w.symbols[st.Out], out, maxIn)
		if err != nil {
			return "", err
		}
		return "spent " + w.format(st.In, spent), nil

	case OpRouterSwap:
		first, last := st.Path[0], st.Path[len(st.Path)-1]
		in, err := w.amount(first, st.Amount)
		if err != nil {
			return "", err
		}
		minOut, err := w.amount(last, st.Limit)
		if err != nil {
			return "", err
		}
		path := make([]common.Address, len(st.Path))
		for i, sym := range st.Path {
			path[i] = w.symbols[sym]
		}
		amounts, err := w.ex.SwapViaRouter(ctx, caller, path, in, minOut)
		if err != nil {
			return "", err
		}
		return w.format(last, amounts[len(amounts)-1]), nil

	case OpAddLiquidity:
		amountA, err := w.amount(st.In, st.Amount)
		if err != nil {
			return "", err
		}
		amountB, err := w.amount(st.Out, st.Value)
		if err != nil {
			return "", err
		}
		res, err := w.ex.AddLiquidity(ctx, caller, w.symbols[st.In], w.symbols[st.Out], amountA, amountB, new(big.Int), new(big.Int))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("used %s + %s, minted %s LP", w.format(st.In, res.AmountA), w.format(st.Out, res.AmountB), res.Liquidity), nil

	case OpDeposit:
		amount, err := w.amount(st.Token, st.Amount)
		if err != nil {
			return "", err
		}
		if err := w.ex.Deposit(ctx, caller, w.symbols[st.Token], amount); err != nil {
			return "", err
		}
		return w.format(st.Token, amount), nil

	case OpDepositETH:
		value, err := w.amount(NativeSymbol, st.Value)
		if err != nil {
			return "", err
		}
		if err := w.ex.DepositETH(ctx, caller, value); err != nil {
			return "", err
		}
		return w.format(NativeSymbol, value), nil

	case OpWithdraw:
		sent, err := w.ex.WithdrawTokens(ctx, caller, w.symbols[st.Token])
		if err != nil {
			return "", err
		}
		return w.format(st.Token, sent), nil

	case OpWithdrawETH:
		sent, err := w.ex.WithdrawETH(ctx, caller)
		if err != nil {
			return "", err
		}
		return w.format(NativeSymbol, sent), nil

	case OpQuote:
		in, err := w.amount(st.In, st.Amount)
		if err != nil {
			return "", err
		}
		q, err := w.ex.Quote(ctx, w.symbols[st.In], w.symbols[st.Out], in)
		if err != nil {
			return "", err
		}
		return w.format(st.Out, q.AmountOut), nil
	}
	return "", errors.New("unsupported op " + st.Op)
}

func (w *world) balances(ctx context.Context) ([]Balance, error) {
	out := make([]Balance, 0, len(w.order)+1)
	ownerNative, err := w.chain.NativeBalance(ctx, w.owner)
	if err != nil {
		return nil, err
	}
	custodyNative, err := w.ex.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, Balance{
		Symbol:  NativeSymbol,
		Owner:   dex.FormatAmount(ownerNative, 18),
		Custody: dex.FormatAmount(custodyNative, 18),
	})
	for _, sym := range w.order {
		token := w.symbols[sym]
		ownerBal, err := w.chain.BalanceOf(ctx, token, w.owner)
		if err != nil {
			return nil, err
		}
		custodyBal, err := w.ex.TokenBalance(ctx, token)
		if err != nil {
			return nil, err
		}
		out = append(out, Balance{
			Symbol:  sym,
			Owner:   dex.FormatAmount(ownerBal, w.decimals[sym]),
			Custody: dex.FormatAmount(custodyBal, w.decimals[sym]),
		})
	}
	return out, nil
}

// Print writes the step log and balance sheet as aligned text.
func (r *Report) Print(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scenario\t%s\n", r.Name)
	fmt.Fprintf(tw, "owner\t%s\n", r.Owner.Hex())
	fmt.Fprintf(tw, "custody\t%s\n\n", r.Custody.Hex())
	fmt.Fprintln(tw, "#\top\tresult")
	for _, st := range r.Steps {
		result := st.Result
		if st.Err != nil {
			result = "error: " + st.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", st.Index, st.Op, result)
	}
	fmt.Fprintln(tw, "\nasset\towner\tcustody")
	for _, b := range r.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Symbol, b.Owner, b.Custody)
	}
	return tw.Flush()
}
