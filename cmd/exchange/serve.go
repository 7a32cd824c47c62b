package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uniExchange/internal/api"
	"uniExchange/internal/config"
	"uniExchange/internal/model"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only quote and balance endpoints over HTTP",
		RunE:  runServe,
	}
	addChainFlags(cmd)
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	cmd.Flags().Duration("read-timeout", 10*time.Second, "HTTP read timeout and per-request chain timeout")
	cmd.Flags().Duration("write-timeout", 10*time.Second, "HTTP write timeout")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, cfg.Config, false)
	if err != nil {
		return err
	}
	defer e.close()

	meta := func(ctx context.Context, token common.Address) model.TokenMeta {
		return e.meta.Lookup(ctx, e.client, token, e.logger)
	}
	h := api.NewHandler(ctx, e.ex, meta, e.logger, cfg.ReadTimeout)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	h.Register(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Listen)
	}()
	e.logger.Info("http listening", zap.String("addr", cfg.Listen))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		e.logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
