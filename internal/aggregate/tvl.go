package aggregate

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/platform"
	"positionScope/internal/pricing"
)

// TVLCalculator reduces a vault's position set to a fiat total. A
// missing pool, token, price, or adapter skips the affected position and
// flags the result as partial; it never aborts the pass.
type TVLCalculator struct {
	registry *platform.Registry
	prices   *pricing.Cache
	caller   platform.ContractCaller
	logger   *zap.Logger
	now      func() time.Time
}

// TVLOption adjusts calculator construction.
type TVLOption func(*TVLCalculator)

func WithClock(now func() time.Time) TVLOption {
	return func(c *TVLCalculator) { c.now = now }
}

// NewTVLCalculator builds a calculator. The caller is used only for the
// idle-balance pass; with a nil caller that pass is skipped.
func NewTVLCalculator(registry *platform.Registry, prices *pricing.Cache, caller platform.ContractCaller, logger *zap.Logger, opts ...TVLOption) *TVLCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &TVLCalculator{
		registry: registry,
		prices:   prices,
		caller:   caller,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute values the vault's positions and idle balances and replaces
// the vault's metrics wholesale. Vault position ids are position keys
// (platform:id) against the merged result.
func (c *TVLCalculator) Compute(ctx context.Context, vault *model.Vault, res Result, chainID uint64) model.VaultMetrics {
	positions := make(map[string]model.Position, len(res.Positions))
	for _, pos := range res.Positions {
		positions[pos.Key()] = pos
	}

	partial := false
	resolvable := make([]model.Position, 0, len(vault.PositionIDs))
	symbols := make(map[string]struct{})
	for _, id := range vault.PositionIDs {
		pos, ok := positions[id]
		if !ok {
			c.logger.Warn("vault position not in aggregation result",
				zap.String("vault", vault.Address),
				zap.String("position", id),
			)
			partial = true
			continue
		}
		pool, ok := res.Pools[pos.PoolAddress]
		if !ok {
			c.logger.Warn("position pool missing",
				zap.String("position", id),
				zap.String("pool", pos.PoolAddress),
				zap.Error(model.ErrMissingReferenceData),
			)
			partial = true
			continue
		}
		token0, ok0 := res.Tokens[pool.Token0]
		token1, ok1 := res.Tokens[pool.Token1]
		if !ok0 || !ok1 {
			c.logger.Warn("position token missing",
				zap.String("position", id),
				zap.String("pool", pos.PoolAddress),
				zap.Error(model.ErrMissingReferenceData),
			)
			partial = true
			continue
		}
		resolvable = append(resolvable, pos)
		symbols[token0.Symbol] = struct{}{}
		symbols[token1.Symbol] = struct{}{}
	}

	// One batch warm amortizes the network cost across positions.
	warm := c.prices.Get(ctx, keys(symbols))

	total := new(big.Rat)
	for _, pos := range resolvable {
		pool := res.Pools[pos.PoolAddress]
		token0 := res.Tokens[pool.Token0]
		token1 := res.Tokens[pool.Token1]

		adapter, ok := c.registry.Lookup(chainID, pos.Platform)
		if !ok {
			c.logger.Warn("no adapter for position platform", zap.String("platform", pos.Platform))
			partial = true
			continue
		}

		amounts, err := adapter.CalculateTokenAmounts(pos, pool, token0, token1)
		if err != nil {
			c.logger.Warn("token amounts failed", zap.String("position", pos.Key()), zap.Error(err))
			partial = true
			continue
		}
		fees, err := adapter.CalculateFees(pos, pool, token0, token1)
		if err != nil {
			c.logger.Warn("fee calculation failed", zap.String("position", pos.Key()), zap.Error(err))
			partial = true
			fees = platform.TokenAmounts{Amount0: big.NewInt(0), Amount1: big.NewInt(0)}
		}

		held0 := new(big.Int).Add(amounts.Amount0, fees.Amount0)
		held1 := new(big.Int).Add(amounts.Amount1, fees.Amount1)
		if !c.accumulate(total, held0, token0, warm) {
			partial = true
		}
		if !c.accumulate(total, held1, token1, warm) {
			partial = true
		}
	}

	idle, idlePartial := c.idleBalances(ctx, vault, res, warm)
	if idlePartial {
		partial = true
	}

	metrics := model.VaultMetrics{
		VaultAddress:   vault.Address,
		PositionsTVL:   formatFiat(total),
		IdleTVL:        formatFiat(idle),
		HasPartialData: partial,
		LastUpdate:     c.now().UTC(),
	}
	vault.Metrics = &metrics
	return metrics
}

// accumulate adds the fiat value of one token amount to the running
// total. A zero amount contributes zero; a missing price makes the
// result partial.
func (c *TVLCalculator) accumulate(total *big.Rat, amount *big.Int, token model.Token, warm map[string]*float64) bool {
	if amount == nil || amount.Sign() == 0 {
		return true
	}
	value := pricing.Value(amountRat(amount, token.Decimals), warm[token.Symbol])
	if value == nil {
		c.logger.Warn("no price for token", zap.String("symbol", token.Symbol))
		return false
	}
	total.Add(total, value)
	return true
}

// idleBalances values tokens the vault contract holds directly, outside
// any position. Computed as an independent pass and summed separately.
func (c *TVLCalculator) idleBalances(ctx context.Context, vault *model.Vault, res Result, warm map[string]*float64) (*big.Rat, bool) {
	idle := new(big.Rat)
	if c.caller == nil || !common.IsHexAddress(vault.Address) {
		return idle, false
	}

	partial := false
	owner := common.HexToAddress(vault.Address)
	for addr, token := range res.Tokens {
		if !common.IsHexAddress(addr) {
			continue
		}
		balance, err := platform.TokenBalance(ctx, c.caller, common.HexToAddress(addr), owner)
		if err != nil {
			c.logger.Warn("idle balance fetch failed", zap.String("token", addr), zap.Error(err))
			partial = true
			continue
		}
		if !c.accumulate(idle, balance, token, warm) {
			partial = true
		}
	}
	return idle, partial
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	return out
}
