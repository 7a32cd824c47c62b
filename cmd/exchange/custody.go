package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// depositor is --from when given, otherwise the owner.
func depositor(cmd *cobra.Command, e *env) (common.Address, error) {
	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		return addressFlag(cmd, "from")
	}
	return e.cfg.Owner, nil
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Move tokens from a signer into custody",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				from, err := depositor(cmd, e)
				if err != nil {
					return err
				}
				token, err := addressFlag(cmd, "token")
				if err != nil {
					return err
				}
				amountText, _ := cmd.Flags().GetString("amount")
				amount, err := e.amount(ctx, token, amountText)
				if err != nil {
					return err
				}
				if err := e.ex.Deposit(ctx, from, token, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deposited %s\n", e.format(ctx, token, amount))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("from", "", "signing account, defaults to the owner")
	cmd.Flags().String("token", "", "token address")
	cmd.Flags().String("amount", "", "amount to deposit")
	return cmd
}

func newDepositETHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit-eth",
		Short: "Move ETH from a signer into custody",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				from, err := depositor(cmd, e)
				if err != nil {
					return err
				}
				valueText, _ := cmd.Flags().GetString("value")
				value, err := e.nativeAmount(valueText)
				if err != nil {
					return err
				}
				if err := e.ex.DepositETH(ctx, from, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deposited %s\n", e.formatNative(value))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("from", "", "signing account, defaults to the owner")
	cmd.Flags().String("value", "", "ETH to deposit")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Send the full custody balance of a token to the owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				token, err := addressFlag(cmd, "token")
				if err != nil {
					return err
				}
				amount, err := e.ex.WithdrawTokens(ctx, e.cfg.Owner, token)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "withdrew %s\n", e.format(ctx, token, amount))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().String("token", "", "token address")
	return cmd
}

func newWithdrawETHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw-eth",
		Short: "Send the full custody ETH balance to the owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				amount, err := e.ex.WithdrawETH(ctx, e.cfg.Owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "withdrew %s\n", e.formatNative(amount))
				return nil
			})
		},
	}
	addChainFlags(cmd)
	return cmd
}

func newBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show custody balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				tokens, _ := cmd.Flags().GetStringSlice("token")

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "custody\t%s\n", e.ex.Custody().Hex())

				native, err := e.ex.GetBalance(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "ETH\t%s\n", e.formatNative(native))

				for _, item := range tokens {
					if !common.IsHexAddress(item) {
						return fmt.Errorf("--token: invalid address %q", item)
					}
					token := common.HexToAddress(item)
					bal, err := e.ex.TokenBalance(ctx, token)
					if err != nil {
						return err
					}
					_, label := e.tokenMeta(ctx, token)
					fmt.Fprintf(w, "%s\t%s\n", label, e.format(ctx, token, bal))
				}
				return w.Flush()
			})
		},
	}
	addChainFlags(cmd)
	cmd.Flags().StringSlice("token", nil, "token addresses to include (comma-separated)")
	return cmd
}
