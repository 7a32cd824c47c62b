package model

import "encoding/json"

// Receipt kinds.
const (
	KindSwap            = "swap"
	KindSwapETH         = "swap_eth"
	KindSwapForETH      = "swap_for_eth"
	KindPoolSwap        = "pool_swap"
	KindRouterSwap      = "router_swap"
	KindAddLiquidity    = "add_liquidity"
	KindAddLiquidityETH = "add_liquidity_eth"
	KindDeposit         = "deposit"
	KindDepositETH      = "deposit_eth"
	KindWithdraw        = "withdraw"
	KindWithdrawETH     = "withdraw_eth"
)

// Receipt is the audit record of one committed exchange operation. Amounts
// are base-10 strings so that uint256 values survive JSON.
type Receipt struct {
	Kind      string `json:"kind"`
	Caller    string `json:"caller"`
	Custody   string `json:"custody"`
	Pool      string `json:"pool,omitempty"`
	TokenIn   string `json:"token_in,omitempty"`
	TokenOut  string `json:"token_out,omitempty"`
	AmountIn  string `json:"amount_in,omitempty"`
	AmountOut string `json:"amount_out,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON keeps field names stable for JSONL consumers.
func (r Receipt) MarshalJSON() ([]byte, error) {
	type Alias Receipt
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a Receipt from JSON.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	type Alias Receipt
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Receipt(a)
	return nil
}
