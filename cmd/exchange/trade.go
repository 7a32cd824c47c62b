package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withEnv runs fn with a signal-aware context and a ready chain environment.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := loadEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap owner tokens through their direct pair, output to the owner",
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
				amountText, _ := cmd.Flags().GetString("amount")
				amountIn, err := e.amount(ctx, tokenIn, amountText)
				if err != nil {
					return err
				}
				minText, _ := cmd.Flags().GetString("min-out")
				explicit, err := e.amount(ctx, tokenOut, minText)
				if err != nil {
					return err
				}
				minOut, err := e.minOutFor(ctx, tokenIn, tokenOut, amountIn, explicit)
				if err != nil {
					return err
				}

				out, err := e.ex.SwapTokensWithLimit(ctx, e.cfg.Owner, tokenIn, tokenOut, amountIn, minOut)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "received %s\n", e.format(ctx, tokenOut, out))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("in", "", "input token address")
	cmd.Flags().String("to-token", "", "output token address")
	cmd.Flags().String("amount", "", "exact input amount")
	cmd.Flags().String("min-out", "", "minimum output, defaults to the quote less slippage-bps")
	return cmd
}

func newSwapETHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap-eth",
		Short: "Buy an exact token amount with ETH sent by the owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				tokenOut, err := addressFlag(cmd, "to-token")
				if err != nil {
					return err
				}
				amountText, _ := cmd.Flags().GetString("amount")
				amountOut, err := e.amount(ctx, tokenOut, amountText)
				if err != nil {
					return err
				}
				valueText, _ := cmd.Flags().GetString("value")
				value, err := e.nativeAmount(valueText)
				if err != nil {
					return err
				}

				spent, err := e.ex.SwapTokensETH(ctx, e.cfg.Owner, tokenOut, amountOut, value)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "spent %s for %s\n", e.formatNative(spent), e.format(ctx, tokenOut, amountOut))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("to-token", "", "output token address")
	cmd.Flags().String("amount", "", "exact output amount")
	cmd.Flags().String("value", "", "ETH sent by the owner; the unspent part stays in custody until withdraw-eth")
	return cmd
}

func newSwapForETHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap-for-eth",
		Short: "Sell owner tokens for ETH held in custody",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				tokenIn, err := addressFlag(cmd, "in")
				if err != nil {
					return err
				}
				amountText, _ := cmd.Flags().GetString("amount")
				amountIn, err := e.amount(ctx, tokenIn, amountText)
				if err != nil {
					return err
				}
				minText, _ := cmd.Flags().GetString("min-out")
				explicit, err := e.nativeAmount(minText)
				if err != nil {
					return err
				}
				minOut, err := e.minOutFor(ctx, tokenIn, e.host.WrappedNative(), amountIn, explicit)
				if err != nil {
					return err
				}

				out, err := e.ex.SwapTokensForETH(ctx, e.cfg.Owner, tokenIn, amountIn, minOut)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "received %s\n", e.formatNative(out))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("in", "", "input token address")
	cmd.Flags().String("amount", "", "exact input amount")
	cmd.Flags().String("min-out", "", "minimum ETH out, defaults to the quote less slippage-bps")
	return cmd
}

func newPoolSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool-swap",
		Short: "Buy an exact amount from a named pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				pool, err := addressFlag(cmd, "pool")
				if err != nil {
					return err
				}
				tokenOut, err := addressFlag(cmd, "to-token")
				if err != nil {
					return err
				}
				state, err := e.ex.Resolver().InspectPool(ctx, pool)
				if err != nil {
					return err
				}
				tokenIn := state.Token0
				if tokenIn == tokenOut {
					tokenIn = state.Token1
				}

				amountText, _ := cmd.Flags().GetString("amount")
				amountOut, err := e.amount(ctx, tokenOut, amountText)
				if err != nil {
					return err
				}
				maxText, _ := cmd.Flags().GetString("max-in")
				maxIn, err := e.amount(ctx, tokenIn, maxText)
				if err != nil {
					return err
				}

				spent, err := e.ex.Swap(ctx, e.cfg.Owner, pool, tokenOut, amountOut, maxIn)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "spent %s for %s\n", e.format(ctx, tokenIn, spent), e.format(ctx, tokenOut, amountOut))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("pool", "", "pair address")
	cmd.Flags().String("to-token", "", "token to receive")
	cmd.Flags().String("amount", "", "exact output amount")
	cmd.Flags().String("max-in", "", "maximum input amount")
	return cmd
}

func newRouterSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "router-swap",
		Short: "Swap owner tokens along a multi-hop path via the router",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				rawPath, _ := cmd.Flags().GetStringSlice("path")
				if len(rawPath) < 2 {
					return fmt.Errorf("--path needs at least two tokens")
				}
				path := make([]common.Address, len(rawPath))
				for i, item := range rawPath {
					if !common.IsHexAddress(item) {
						return fmt.Errorf("--path: invalid address %q", item)
					}
					path[i] = common.HexToAddress(item)
				}
				tokenIn, tokenOut := path[0], path[len(path)-1]

				amountText, _ := cmd.Flags().GetString("amount")
				amountIn, err := e.amount(ctx, tokenIn, amountText)
				if err != nil {
					return err
				}
				minText, _ := cmd.Flags().GetString("min-out")
				minOut, err := e.amount(ctx, tokenOut, minText)
				if err != nil {
					return err
				}
				if minOut == nil {
					amounts, err := e.ex.PathAmountsOut(ctx, amountIn, path)
					if err != nil {
						return err
					}
					if minOut, err = applySlippage(amounts[len(amounts)-1], e.cfg.SlippageBps); err != nil {
						return err
					}
				}

				amounts, err := e.ex.SwapViaRouter(ctx, e.cfg.Owner, path, amountIn, minOut)
				if err != nil {
					return err
				}
				e.logger.Debug("router swap amounts", zap.Int("hops", len(amounts)-1))
				fmt.Fprintf(cmd.OutOrStdout(), "received %s\n", e.format(ctx, tokenOut, amounts[len(amounts)-1]))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().StringSlice("path", nil, "token path, input first (comma-separated)")
	cmd.Flags().String("amount", "", "exact input amount")
	cmd.Flags().String("min-out", "", "minimum final output, defaults to the quote less slippage-bps")
	return cmd
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Provide custody tokens to a pair through the router",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				tokenA, err := addressFlag(cmd, "token-a")
				if err != nil {
					return err
				}
				tokenB, err := addressFlag(cmd, "token-b")
				if err != nil {
					return err
				}
				amountAText, _ := cmd.Flags().GetString("amount-a")
				amountA, err := e.amount(ctx, tokenA, amountAText)
				if err != nil {
					return err
				}
				amountBText, _ := cmd.Flags().GetString("amount-b")
				amountB, err := e.amount(ctx, tokenB, amountBText)
				if err != nil {
					return err
				}
				minA, err := applySlippage(amountA, e.cfg.SlippageBps)
				if err != nil {
					return err
				}
				minB, err := applySlippage(amountB, e.cfg.SlippageBps)
				if err != nil {
					return err
				}

				res, err := e.ex.AddLiquidity(ctx, e.cfg.Owner, tokenA, tokenB, amountA, amountB, minA, minB)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s and %s, minted %s LP\n",
					e.format(ctx, tokenA, res.AmountA), e.format(ctx, tokenB, res.AmountB), res.Liquidity)
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("token-a", "", "first token address")
	cmd.Flags().String("token-b", "", "second token address")
	cmd.Flags().String("amount-a", "", "desired amount of the first token")
	cmd.Flags().String("amount-b", "", "desired amount of the second token")
	return cmd
}

func newAddLiquidityETHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity-eth",
		Short: "Provide a custody token and ETH to the token/WETH pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				token, err := addressFlag(cmd, "token")
				if err != nil {
					return err
				}
				amountText, _ := cmd.Flags().GetString("amount")
				amount, err := e.amount(ctx, token, amountText)
				if err != nil {
					return err
				}
				valueText, _ := cmd.Flags().GetString("value")
				value, err := e.nativeAmount(valueText)
				if err != nil {
					return err
				}
				minToken, err := applySlippage(amount, e.cfg.SlippageBps)
				if err != nil {
					return err
				}
				minETH, err := applySlippage(value, e.cfg.SlippageBps)
				if err != nil {
					return err
				}

				res, err := e.ex.AddLiquidityETH(ctx, e.cfg.Owner, token, amount, minToken, minETH, value)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s and %s, minted %s LP\n",
					e.format(ctx, token, res.AmountA), e.formatNative(res.AmountB), res.Liquidity)
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("token", "", "token address")
	cmd.Flags().String("amount", "", "desired token amount")
	cmd.Flags().String("value", "", "ETH offered")
	return cmd
}
