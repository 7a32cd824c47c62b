package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uniExchange/internal/config"
	"uniExchange/internal/dex"
	"uniExchange/internal/model"
	"uniExchange/internal/storage"
	"uniExchange/internal/storage/postgres"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a direct-pair swap without trading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				tokenIn, err := addressFlag(cmd, "in")
				if err != nil {
					return err
				}
				tokenOut, err := addressFlag(cmd, "to-token")
				if err != nil {
					return err
				}
				inText, _ := cmd.Flags().GetString("amount")
				outText, _ := cmd.Flags().GetString("amount-out")
				if (inText == "") == (outText == "") {
					return fmt.Errorf("exactly one of --amount or --amount-out is required")
				}

				var q model.Quote
				if inText != "" {
					amountIn, err := e.amount(ctx, tokenIn, inText)
					if err != nil {
						return err
					}
					q, err = e.ex.Quote(ctx, tokenIn, tokenOut, amountIn)
					if err != nil {
						return err
					}
				} else {
					amountOut, err := e.amount(ctx, tokenOut, outText)
					if err != nil {
						return err
					}
					q, err = e.ex.QuoteIn(ctx, tokenIn, tokenOut, amountOut)
					if err != nil {
						return err
					}
				}

				impact := dex.PriceImpact(q.AmountIn, q.AmountOut, q.ReserveIn, q.ReserveOut)
				fmt.Fprintf(cmd.OutOrStdout(), "pool     %s\nin       %s\nout      %s\nimpact   %s%%\n",
					q.Pool.Hex(), e.format(ctx, tokenIn, q.AmountIn), e.format(ctx, tokenOut, q.AmountOut), impact.String())
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("in", "", "input token address")
	cmd.Flags().String("to-token", "", "output token address")
	cmd.Flags().String("amount", "", "exact input amount")
	cmd.Flags().String("amount-out", "", "exact output amount")
	return cmd
}

func newReceiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Print recorded receipts as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var receipts []model.Receipt
			if cfg.PGDSN != "" {
				store, err := postgres.NewStore(ctx, cfg.PGDSN)
				if err != nil {
					return fmt.Errorf("connect postgres: %w", err)
				}
				defer store.Close()
				if receipts, err = store.RecentReceipts(ctx, limit); err != nil {
					return err
				}
			} else {
				if cfg.Out == "" {
					return fmt.Errorf("either --out or --pg-dsn is required")
				}
				if receipts, err = storage.ReadReceipts(cfg.Out); err != nil {
					return err
				}
				if limit > 0 && len(receipts) > limit {
					receipts = receipts[len(receipts)-limit:]
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range receipts {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("out", "./data/receipts.jsonl", "receipt JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for receipts")
	cmd.Flags().Int("limit", 50, "most recent receipts to print, 0 prints all")
	return cmd
}
