package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/aggregate"
	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/model"
	"positionScope/internal/platform"
	"positionScope/internal/pricing"
	"positionScope/internal/storage"
	"positionScope/internal/storage/postgres"
)

// engine bundles the wired components one pass needs. Each command
// invocation builds one and tears it down when done.
type engine struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	chainID  uint64
	registry *platform.Registry
	sinks    []storage.Sink
	cleanup  []func()
}

func setupEngine(ctx context.Context, cmd *cobra.Command) (*engine, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Owner) {
		return nil, fmt.Errorf("owner address is required")
	}
	if cfg.Vault != "" && !common.IsHexAddress(cfg.Vault) {
		return nil, fmt.Errorf("invalid vault address: %s", cfg.Vault)
	}

	e := &engine{cfg: cfg, logger: logger}
	e.cleanup = append(e.cleanup, func() { _ = logger.Sync() })

	e.client, err = chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	e.cleanup = append(e.cleanup, e.client.Close)

	chainID, err := e.client.GetChainID(ctx)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	e.chainID = chainID.Uint64()

	e.registry, err = buildRegistry(cfg, e.chainID, e.client, logger)
	if err != nil {
		e.close()
		return nil, err
	}

	e.sinks = append(e.sinks, storage.NewJsonlSink(cfg.Out))
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			e.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.cleanup = append(e.cleanup, store.Close)
		e.sinks = append(e.sinks, store)
	}

	return e, nil
}

func (e *engine) close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

// collect runs the wallet pass and, when a vault is configured, the
// vault pass, merged with vault custody winning on shared positions.
func (e *engine) collect(ctx context.Context) aggregate.Result {
	agg := aggregate.NewAggregator(e.registry, e.logger)

	wallet := agg.Collect(ctx, common.HexToAddress(e.cfg.Owner), e.chainID, aggregate.CustodyWallet, "")
	if e.cfg.Vault == "" {
		return wallet
	}

	vault := agg.Collect(ctx, common.HexToAddress(e.cfg.Vault), e.chainID, aggregate.CustodyVault, e.cfg.Vault)
	return aggregate.Merge(wallet, vault)
}

func (e *engine) persistPositions(ctx context.Context, positions []model.Position) {
	for _, sink := range e.sinks {
		if err := sink.PutPositions(ctx, positions); err != nil {
			e.logger.Warn("persist positions failed", zap.Error(err))
		}
	}
}

func (e *engine) persistMetrics(ctx context.Context, metrics model.VaultMetrics) {
	for _, sink := range e.sinks {
		if err := sink.PutVaultMetrics(ctx, metrics); err != nil {
			e.logger.Warn("persist vault metrics failed", zap.Error(err))
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPositions(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := setupEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	guard := aggregate.NewRunGuard(e.cfg.MinRunInterval)
	if !guard.TryStart(e.cfg.Owner) {
		return fmt.Errorf("pass for %s started too recently", e.cfg.Owner)
	}

	res := e.collect(ctx)
	for name, err := range res.Errors {
		e.logger.Warn("source unavailable", zap.String("adapter", name), zap.Error(err))
	}
	e.logger.Info("aggregation pass complete",
		zap.Uint64("chain_id", e.chainID),
		zap.Int("positions", len(res.Positions)),
		zap.Int("failed_sources", len(res.Errors)),
	)

	e.persistPositions(ctx, res.Positions)

	return printJSON(cmd, res.Positions)
}

func runTVL(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := setupEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if e.cfg.Vault == "" {
		return fmt.Errorf("vault address is required")
	}

	guard := aggregate.NewRunGuard(e.cfg.MinRunInterval)
	if !guard.TryStart(e.cfg.Vault) {
		return fmt.Errorf("pass for %s started too recently", e.cfg.Vault)
	}

	res := e.collect(ctx)
	for name, err := range res.Errors {
		e.logger.Warn("source unavailable", zap.String("adapter", name), zap.Error(err))
	}

	vault := model.Vault{Address: e.cfg.Vault}
	for _, pos := range res.Positions {
		if pos.InVault {
			vault.PositionIDs = append(vault.PositionIDs, pos.Key())
		}
	}

	prices := pricing.NewCache(
		pricing.NewCoinGeckoFetcher("", e.cfg.Currency),
		e.logger,
		pricing.WithTTL(e.cfg.PriceTTL),
	)
	calc := aggregate.NewTVLCalculator(e.registry, prices, e.client, e.logger)
	metrics := calc.Compute(ctx, &vault, res, e.chainID)

	e.logger.Info("tvl pass complete",
		zap.String("vault", vault.Address),
		zap.String("positions_tvl", metrics.PositionsTVL),
		zap.String("idle_tvl", metrics.IdleTVL),
		zap.Bool("partial", metrics.HasPartialData),
	)

	e.persistPositions(ctx, res.Positions)
	e.persistMetrics(ctx, metrics)

	return printJSON(cmd, metrics)
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
