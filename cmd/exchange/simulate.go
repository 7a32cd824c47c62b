package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uniExchange/internal/amm"
	"uniExchange/internal/config"
	"uniExchange/internal/scenario"
	"uniExchange/internal/storage"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a YAML scenario against an in-memory chain",
		RunE:  runSimulate,
	}
	cmd.Flags().String("scenario", "", "scenario YAML path")
	cmd.Flags().String("out", "", "receipt JSONL path, empty discards")
	cmd.Flags().Uint64("fee-numerator", 997, "fee numerator")
	cmd.Flags().Uint64("fee-denominator", 1000, "fee denominator")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	var sink storage.Storage = storage.Discard{}
	if cfg.Out != "" {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := scenario.Run(ctx, sc, scenario.Options{
		Fee:    amm.Fee{Numerator: cfg.FeeNumerator, Denominator: cfg.FeeDenominator},
		Sink:   sink,
		Logger: logger,
	})
	if report != nil {
		if err := report.Print(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if runErr != nil {
		logger.Error("scenario failed", zap.String("scenario", sc.Name), zap.Error(runErr))
		return runErr
	}
	return nil
}
