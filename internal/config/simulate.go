package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// SimulateConfig holds configuration for the simulate command. It needs no
// chain endpoint: the scenario builds its own in-memory world.
type SimulateConfig struct {
	Scenario       string
	Out            string
	FeeNumerator   uint64
	FeeDenominator uint64
	LogLevel       string
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out": "",
	})
	if err != nil {
		return SimulateConfig{}, err
	}
	cfg := SimulateConfig{
		Scenario:       v.GetString("scenario"),
		Out:            v.GetString("out"),
		FeeNumerator:   v.GetUint64("fee-numerator"),
		FeeDenominator: v.GetUint64("fee-denominator"),
		LogLevel:       v.GetString("log-level"),
	}
	if cfg.Scenario == "" {
		return SimulateConfig{}, fmt.Errorf("scenario is required")
	}
	return cfg, nil
}
