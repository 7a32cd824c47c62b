package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "EXCHANGE"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	Owner          common.Address
	Custody        common.Address
	Keys           []string
	WrappedNative  common.Address
	Factory        common.Address
	Router         common.Address
	FeeNumerator   uint64
	FeeDenominator uint64
	DeadlineTTL    time.Duration
	SlippageBps    uint32
	GasLimit       uint64
	Out            string
	PGDSN          string
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v)
}

// Validate checks the fields every chain-backed command needs.
func (c Config) Validate() error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, errors.New("rpc is required"))
	}
	for name, addr := range map[string]common.Address{
		"owner":   c.Owner,
		"custody": c.Custody,
		"weth":    c.WrappedNative,
		"factory": c.Factory,
		"router":  c.Router,
	} {
		if addr == (common.Address{}) {
			errs = append(errs, fmt.Errorf("%s address is required", name))
		}
	}
	if c.SlippageBps > 10_000 {
		errs = append(errs, fmt.Errorf("slippage-bps %d exceeds 10000", c.SlippageBps))
	}
	return errors.Join(errs...)
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fee-numerator", uint64(997))
	v.SetDefault("fee-denominator", uint64(1000))
	v.SetDefault("deadline-ttl", 20*time.Minute)
	v.SetDefault("slippage-bps", uint32(50))
	v.SetDefault("out", "./data/receipts.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		Keys:           getStringSlice(v, "keys"),
		FeeNumerator:   v.GetUint64("fee-numerator"),
		FeeDenominator: v.GetUint64("fee-denominator"),
		DeadlineTTL:    v.GetDuration("deadline-ttl"),
		SlippageBps:    v.GetUint32("slippage-bps"),
		GasLimit:       v.GetUint64("gas-limit"),
		Out:            v.GetString("out"),
		PGDSN:          v.GetString("pg-dsn"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
	}

	var err error
	for key, dst := range map[string]*common.Address{
		"owner":   &cfg.Owner,
		"custody": &cfg.Custody,
		"weth":    &cfg.WrappedNative,
		"factory": &cfg.Factory,
		"router":  &cfg.Router,
	} {
		if *dst, err = getAddress(v, key); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func getAddress(v *viper.Viper, key string) (common.Address, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, raw)
	}
	return common.HexToAddress(raw), nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
