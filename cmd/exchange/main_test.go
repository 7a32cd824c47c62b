package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"uniExchange/internal/amm"
	"uniExchange/internal/exchange"
	"uniExchange/internal/storage"
)

func TestHint(t *testing.T) {
	comp := &exchange.CompensationError{Step: "refund tokenIn", Err: errors.New("boom")}
	require.Contains(t, hint(fmt.Errorf("swap: %w", comp)), `"refund tokenIn"`)
	require.Contains(t, hint(&amm.SlippageError{Bound: "min_out"}), "re-quote")
	require.Contains(t, hint(&exchange.UnwrapFailedError{Err: errors.New("boom")}), "WETH")
	require.Empty(t, hint(errors.New("other")))
}

func TestSimulateDemo(t *testing.T) {
	out := filepath.Join(t.TempDir(), "receipts.jsonl")
	cmd := newSimulateCmd()
	cmd.Flags().String("config", "", "")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{
		"--scenario", filepath.Join("..", "..", "internal", "scenario", "testdata", "demo.yaml"),
		"--out", out,
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())
	require.True(t, strings.Contains(buf.String(), "TKB"), buf.String())

	receipts, err := storage.ReadReceipts(out)
	require.NoError(t, err)
	require.NotEmpty(t, receipts)
	require.Equal(t, "swap", receipts[0].Kind)
}

func TestOpenSink(t *testing.T) {
	sink, closeFn, err := openSink(context.Background(), "", "")
	require.NoError(t, err)
	require.IsType(t, storage.Discard{}, sink)
	closeFn()

	path := filepath.Join(t.TempDir(), "r.jsonl")
	sink, closeFn, err = openSink(context.Background(), path, "")
	require.NoError(t, err)
	require.IsType(t, &storage.JsonlStorage{}, sink)
	closeFn()
}

func TestApplySlippageRequiresAmount(t *testing.T) {
	_, err := applySlippage(nil, 50)
	require.Error(t, err)
}

func TestSwapHelpNamesFundingSource(t *testing.T) {
	require.Contains(t, newSwapCmd().Short, "owner tokens")
	require.Contains(t, newSwapForETHCmd().Short, "owner tokens")
	require.Contains(t, newRouterSwapCmd().Short, "owner tokens")

	swapETH := newSwapETHCmd()
	require.Contains(t, swapETH.Short, "sent by the owner")
	require.Contains(t, swapETH.Flags().Lookup("value").Usage, "stays in custody")
	require.NotContains(t, swapETH.Flags().Lookup("value").Usage, "refunded")
}
