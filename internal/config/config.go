package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	Owner          string
	Vault          string
	PGDSN          string
	Out            string
	Currency       string
	PriceTTL       time.Duration
	MinRunInterval time.Duration
	LogLevel       string

	UniswapManager string
	UniswapFactory string
	PancakeManager string
	PancakeFactory string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VALUATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("out", "./data/results.jsonl")
	v.SetDefault("currency", "usd")
	v.SetDefault("price-ttl", 5*time.Minute)
	v.SetDefault("min-run-interval", 30*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		Owner:          v.GetString("owner"),
		Vault:          v.GetString("vault"),
		PGDSN:          v.GetString("pg-dsn"),
		Out:            v.GetString("out"),
		Currency:       v.GetString("currency"),
		PriceTTL:       v.GetDuration("price-ttl"),
		MinRunInterval: v.GetDuration("min-run-interval"),
		LogLevel:       v.GetString("log-level"),
		UniswapManager: v.GetString("uniswap-manager"),
		UniswapFactory: v.GetString("uniswap-factory"),
		PancakeManager: v.GetString("pancake-manager"),
		PancakeFactory: v.GetString("pancake-factory"),
	}

	return cfg, nil
}
