package model

// PairSwapEventData is the decoded Uniswap V2 pair Swap event payload.
type PairSwapEventData struct {
	Pool       string `json:"pool"`
	Sender     string `json:"sender"`
	To         string `json:"to"`
	Amount0In  string `json:"amount0_in"`
	Amount1In  string `json:"amount1_in"`
	Amount0Out string `json:"amount0_out"`
	Amount1Out string `json:"amount1_out"`
}

// PairSyncEventData is the decoded Uniswap V2 pair Sync event payload.
type PairSyncEventData struct {
	Pool     string `json:"pool"`
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}
