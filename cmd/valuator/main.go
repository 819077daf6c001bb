package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/platform"
	"positionScope/internal/platform/univ3"

	"github.com/ethereum/go-ethereum/common"
)

func main() {
	root := &cobra.Command{
		Use:          "valuator",
		Short:        "Concentrated-liquidity position valuation engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Aggregate an owner's positions across platforms",
		RunE:  runPositions,
	}
	addEngineFlags(positionsCmd)
	root.AddCommand(positionsCmd)

	tvlCmd := &cobra.Command{
		Use:   "tvl",
		Short: "Compute a vault's total value locked",
		RunE:  runTVL,
	}
	addEngineFlags(tvlCmd)
	root.AddCommand(tvlCmd)

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode strategy parameters into contract-call groups",
		RunE:  runEncode,
	}
	encodeCmd.Flags().String("strategy", "", "strategy id")
	encodeCmd.Flags().String("template", "custom", "named template, or custom")
	encodeCmd.Flags().String("params", "", "JSON file of parameter values")
	encodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(encodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("owner", "", "owner address")
	cmd.Flags().String("vault", "", "vault address (optional for positions, required for tvl)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	cmd.Flags().String("out", "./data/results.jsonl", "output JSONL path")
	cmd.Flags().String("currency", "usd", "fiat currency code")
	cmd.Flags().Duration("price-ttl", 5*time.Minute, "price cache TTL")
	cmd.Flags().Duration("min-run-interval", 30*time.Second, "minimum time between passes for one owner")
	cmd.Flags().String("uniswap-manager", "0xC36442b4a4522E871399CD717aBDD847Ab11FE88", "Uniswap V3 position manager")
	cmd.Flags().String("uniswap-factory", "0x1F98431c8aD98523631AE4a59f267346ea31F984", "Uniswap V3 factory")
	cmd.Flags().String("pancake-manager", "", "PancakeSwap V3 position manager (optional)")
	cmd.Flags().String("pancake-factory", "", "PancakeSwap V3 factory (optional)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func buildRegistry(cfg config.Config, chainID uint64, client *chain.Client, logger *zap.Logger) (*platform.Registry, error) {
	registry := platform.NewRegistry()

	register := func(name, manager, factory string) error {
		if manager == "" && factory == "" {
			return nil
		}
		if !common.IsHexAddress(manager) || !common.IsHexAddress(factory) {
			return fmt.Errorf("%s: manager and factory addresses are required together", name)
		}
		registry.Register(chainID, univ3.NewAdapter(univ3.Config{
			Name:            name,
			PositionManager: common.HexToAddress(manager),
			Factory:         common.HexToAddress(factory),
		}, client, logger.Named(name)))
		return nil
	}

	if err := register("uniswap-v3", cfg.UniswapManager, cfg.UniswapFactory); err != nil {
		return nil, err
	}
	if err := register("pancake-v3", cfg.PancakeManager, cfg.PancakeFactory); err != nil {
		return nil, err
	}

	if len(registry.ForChain(chainID)) == 0 {
		return nil, fmt.Errorf("no platform adapters configured")
	}
	return registry, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
