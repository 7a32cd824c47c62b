// Package scenario builds an in-memory Uniswap V2 world from a YAML file and
// drives the exchange through it.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NativeSymbol names the chain's native currency in scenario files.
const NativeSymbol = "ETH"

// Scenario is the YAML document accepted by the simulate command.
type Scenario struct {
	Name     string     `yaml:"name"`
	OwnerETH string     `yaml:"ownerEth"`
	Tokens   []TokenDef `yaml:"tokens"`
	Pools    []PoolDef  `yaml:"pools"`
	Steps    []StepDef  `yaml:"steps"`
}

// TokenDef deploys one ERC20. OwnerSupply is minted to both the owner and
// the stranger account and approved to custody.
type TokenDef struct {
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	Decimals    *uint8 `yaml:"decimals"`
	OwnerSupply string `yaml:"ownerSupply"`
}

// PoolDef seeds a pair through the router. TokenB may be ETH.
type PoolDef struct {
	TokenA  string `yaml:"tokenA"`
	TokenB  string `yaml:"tokenB"`
	AmountA string `yaml:"amountA"`
	AmountB string `yaml:"amountB"`
}

// StepDef is one exchange call. Amounts are in whole token units.
type StepDef struct {
	Op     string   `yaml:"op"`
	Caller string   `yaml:"caller"`
	Token  string   `yaml:"token"`
	In     string   `yaml:"in"`
	Out    string   `yaml:"out"`
	Path   []string `yaml:"path"`
	Amount string   `yaml:"amount"`
	// Limit is min-out for exact-input ops and max-in for exact-output ops.
	Limit       string `yaml:"limit"`
	Value       string `yaml:"value"`
	ExpectError string `yaml:"expectError"`
}

// Op names.
const (
	OpSwap         = "swap"
	OpSwapETH      = "swap-eth"
	OpSwapForETH   = "swap-for-eth"
	OpPoolSwap     = "pool-swap"
	OpRouterSwap   = "router-swap"
	OpAddLiquidity = "add-liquidity"
	OpDeposit      = "deposit"
	OpDepositETH   = "deposit-eth"
	OpWithdraw     = "withdraw"
	OpWithdrawETH  = "withdraw-eth"
	OpQuote        = "quote"
)

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	sc.setDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	return &sc, nil
}

func (s *Scenario) setDefaults() {
	if s.Name == "" {
		s.Name = "scenario"
	}
	if s.OwnerETH == "" {
		s.OwnerETH = "10"
	}
	for i := range s.Tokens {
		if s.Tokens[i].Decimals == nil {
			d := uint8(18)
			s.Tokens[i].Decimals = &d
		}
		if s.Tokens[i].Name == "" {
			s.Tokens[i].Name = s.Tokens[i].Symbol
		}
		if s.Tokens[i].OwnerSupply == "" {
			s.Tokens[i].OwnerSupply = "100"
		}
	}
	for i := range s.Steps {
		s.Steps[i].Op = strings.ToLower(strings.TrimSpace(s.Steps[i].Op))
		if s.Steps[i].Caller == "" {
			s.Steps[i].Caller = "owner"
		}
	}
}

// Validate checks symbol references and required step fields.
func (s *Scenario) Validate() error {
	known := map[string]bool{NativeSymbol: true}
	for i, t := range s.Tokens {
		if t.Symbol == "" {
			return fmt.Errorf("tokens[%d].symbol is required", i)
		}
		if known[t.Symbol] {
			return fmt.Errorf("tokens[%d].symbol %q is reserved or duplicated", i, t.Symbol)
		}
		known[t.Symbol] = true
	}
	// WETH is always deployed.
	known["WETH"] = true

	for i, p := range s.Pools {
		if !known[p.TokenA] || !known[p.TokenB] {
			return fmt.Errorf("pools[%d] references an unknown token", i)
		}
		if p.TokenA == NativeSymbol {
			return fmt.Errorf("pools[%d].tokenA cannot be %s; put it in tokenB", i, NativeSymbol)
		}
		if p.AmountA == "" || p.AmountB == "" {
			return fmt.Errorf("pools[%d] amounts are required", i)
		}
	}

	for i, st := range s.Steps {
		if st.Caller != "owner" && st.Caller != "stranger" {
			return fmt.Errorf("steps[%d].caller must be owner or stranger", i)
		}
		for _, sym := range append([]string{st.Token, st.In, st.Out}, st.Path...) {
			if sym != "" && !known[sym] {
				return fmt.Errorf("steps[%d] references unknown token %q", i, sym)
			}
		}
		if err := requireFields(i, st); err != nil {
			return err
		}
	}
	return nil
}

func requireFields(i int, st StepDef) error {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("steps[%d] (%s): %s is required", i, st.Op, what)
		}
		return nil
	}
	switch st.Op {
	case OpSwap, OpQuote, OpPoolSwap, OpAddLiquidity:
		if err := need(st.In != "" && st.Out != "", "in and out"); err != nil {
			return err
		}
		if st.Op == OpPoolSwap {
			if err := need(st.Limit != "", "limit"); err != nil {
				return err
			}
		}
		if st.Op == OpAddLiquidity {
			if err := need(st.Value != "", "value (amount of out)"); err != nil {
				return err
			}
		}
		return need(st.Amount != "", "amount")
	case OpSwapETH:
		if err := need(st.Out != "" && st.Value != "", "out and value"); err != nil {
			return err
		}
		return need(st.Amount != "", "amount")
	case OpSwapForETH:
		if err := need(st.In != "", "in"); err != nil {
			return err
		}
		return need(st.Amount != "", "amount")
	case OpRouterSwap:
		if err := need(len(st.Path) >= 2, "path of two or more tokens"); err != nil {
			return err
		}
		return need(st.Amount != "", "amount")
	case OpDeposit:
		if err := need(st.Token != "", "token"); err != nil {
			return err
		}
		return need(st.Amount != "", "amount")
	case OpDepositETH:
		return need(st.Value != "", "value")
	case OpWithdraw:
		return need(st.Token != "", "token")
	case OpWithdrawETH:
		return nil
	default:
		return fmt.Errorf("steps[%d]: unsupported op %q", i, st.Op)
	}
}
