package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"uniExchange/internal/config"
	"uniExchange/internal/exchange"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "exchange",
		Short:        "Custodial Uniswap V2 exchange",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		newSwapCmd(),
		newSwapETHCmd(),
		newSwapForETHCmd(),
		newPoolSwapCmd(),
		newRouterSwapCmd(),
		newAddLiquidityCmd(),
		newAddLiquidityETHCmd(),
		newDepositCmd(),
		newDepositETHCmd(),
		newWithdrawCmd(),
		newWithdrawETHCmd(),
		newBalanceCmd(),
		newQuoteCmd(),
		newReceiptsCmd(),
		newServeCmd(),
		newSimulateCmd(),
	)

	if err := root.Execute(); err != nil {
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, "hint:", h)
		}
		os.Exit(1)
	}
}

// hint adds operator guidance for failures that need a manual follow-up.
func hint(err error) string {
	var comp *exchange.CompensationError
	switch {
	case errors.As(err, &comp):
		return fmt.Sprintf("compensation step %q failed; funds may be parked in custody, check balances before retrying", comp.Step)
	case errors.Is(err, exchange.ErrUnwrapFailed):
		return "the swap went through but its output is held in custody as WETH; withdraw it with withdraw --token <weth>"
	case errors.Is(err, exchange.ErrNotOwner):
		return "the configured owner does not match the exchange owner"
	case errors.Is(err, exchange.ErrSlippageExceeded):
		return "price moved beyond the accepted bound; re-quote and retry"
	default:
		return ""
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
