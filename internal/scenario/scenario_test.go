package scenario

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"uniExchange/internal/model"
)

type recordingSink struct {
	receipts []model.Receipt
}

func (r *recordingSink) PutReceipts(_ context.Context, receipts []model.Receipt) error {
	r.receipts = append(r.receipts, receipts...)
	return nil
}

func fixedNow() time.Time { return time.Unix(1_700_000_000, 0) }

func TestLoadAppliesDefaults(t *testing.T) {
	sc, err := Load("testdata/demo.yaml")
	require.NoError(t, err)
	require.Equal(t, "demo", sc.Name)
	require.Len(t, sc.Tokens, 3)
	require.Equal(t, uint8(18), *sc.Tokens[0].Decimals)
	require.Equal(t, uint8(6), *sc.Tokens[2].Decimals)
	require.Equal(t, "100", sc.Tokens[0].OwnerSupply)
	require.Equal(t, "owner", sc.Steps[0].Caller)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown token":  "tokens: [{symbol: A}]\nsteps: [{op: withdraw, token: B}]",
		"reserved":       "tokens: [{symbol: ETH}]",
		"duplicate":      "tokens: [{symbol: A}, {symbol: A}]",
		"unknown op":     "tokens: [{symbol: A}]\nsteps: [{op: mint, token: A}]",
		"missing amount": "tokens: [{symbol: A}, {symbol: B}]\nsteps: [{op: swap, in: A, out: B}]",
		"native first":   "tokens: [{symbol: A}]\npools: [{tokenA: ETH, tokenB: A, amountA: '1', amountB: '1'}]",
		"bad caller":     "tokens: [{symbol: A}]\nsteps: [{op: withdraw-eth, caller: mallory}]",
		"not yaml":       "tokens: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestRunDemo(t *testing.T) {
	sc, err := Load("testdata/demo.yaml")
	require.NoError(t, err)
	sink := &recordingSink{}

	report, err := Run(context.Background(), sc, Options{Sink: sink, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, report.Steps, len(sc.Steps))

	require.Equal(t, "1.425507577923934801 TKB", report.Steps[0].Result)
	require.Equal(t, "1.425507577923934801 TKB", report.Steps[1].Result)
	require.Equal(t, "spent 0.001004013040121366 ETH", report.Steps[2].Result)
	// value minus the wrapped input comes back to the owner
	require.Equal(t, "0.008995986959878634 ETH", report.Steps[3].Result)
	require.Error(t, report.Steps[4].Err)
	require.Error(t, report.Steps[5].Err)
	require.Equal(t, "0.1 TKC", report.Steps[8].Result)

	for _, b := range report.Balances {
		switch b.Symbol {
		case "TKB", "TKC", "WETH":
			require.Equal(t, "0", b.Custody, b.Symbol)
		case "ETH":
			// swap-for-eth proceeds stay in custody
			require.NotEqual(t, "0", b.Custody)
		}
	}

	kinds := make([]string, 0, len(sink.receipts))
	for _, r := range sink.receipts {
		kinds = append(kinds, r.Kind)
	}
	require.Equal(t, []string{
		model.KindSwap,
		model.KindSwapETH,
		model.KindWithdrawETH,
		model.KindDeposit,
		model.KindPoolSwap,
		model.KindWithdraw,
		model.KindSwapForETH,
		model.KindRouterSwap,
	}, kinds)

	var buf bytes.Buffer
	require.NoError(t, report.Print(&buf))
	require.Contains(t, buf.String(), "scenario  demo")
	require.True(t, strings.Contains(buf.String(), "withdraw-eth"))
}

func TestRunStopsOnUnexpectedFailure(t *testing.T) {
	sc, err := Parse([]byte(`
tokens: [{symbol: A}, {symbol: B}]
steps:
  - {op: swap, in: A, out: B, amount: "1"}
  - {op: withdraw-eth}
`))
	require.NoError(t, err)

	report, err := Run(context.Background(), sc, Options{Now: fixedNow})
	require.Error(t, err)
	require.Contains(t, err.Error(), "step 0")
	require.Len(t, report.Steps, 1)
}

func TestRunFailsWhenExpectedErrorMissing(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - {op: withdraw-eth, expectError: "boom"}
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc, Options{Now: fixedNow})
	require.ErrorContains(t, err, "expected error")
}
