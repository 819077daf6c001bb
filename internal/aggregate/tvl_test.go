package aggregate

import (
	"context"
	"math/big"
	"testing"
	"time"

	"positionScope/internal/model"
	"positionScope/internal/platform"
	"positionScope/internal/pricing"
)

type tableFetcher struct {
	prices map[string]float64
}

func (f *tableFetcher) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if price, ok := f.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

// tvlFixture wires one stub adapter holding a single position worth
// 1 USDC plus 1 WETH.
func tvlFixture(adapter *stubAdapter) (*platform.Registry, Result) {
	if adapter.name == "" {
		adapter.name = "stub"
	}
	if adapter.amounts.Amount0 == nil {
		adapter.amounts = platform.TokenAmounts{
			Amount0: big.NewInt(1_000_000),
			Amount1: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		}
	}

	registry := platform.NewRegistry()
	registry.Register(1, adapter)

	res := newResult()
	res.Positions = []model.Position{{ID: "1", Platform: adapter.name, PoolAddress: "pool-a", InVault: true}}
	res.Pools["pool-a"] = model.Pool{Address: "pool-a", Token0: "token-0", Token1: "token-1"}
	res.Tokens["token-0"] = model.Token{Address: "token-0", Symbol: "USDC", Decimals: 6}
	res.Tokens["token-1"] = model.Token{Address: "token-1", Symbol: "WETH", Decimals: 18}
	return registry, res
}

func usdWethCache() *pricing.Cache {
	return pricing.NewCache(&tableFetcher{prices: map[string]float64{
		"usd-coin": 1.0,
		"weth":     2000.0,
	}}, nil)
}

func TestComputeTotalsPositions(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	fixed := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil, WithClock(func() time.Time { return fixed }))

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	if metrics.PositionsTVL != "2001.00" {
		t.Fatalf("positions tvl = %s, want 2001.00", metrics.PositionsTVL)
	}
	if metrics.IdleTVL != "0.00" {
		t.Fatalf("idle tvl = %s, want 0.00", metrics.IdleTVL)
	}
	if metrics.HasPartialData {
		t.Fatal("complete pass flagged partial")
	}
	if !metrics.LastUpdate.Equal(fixed) {
		t.Fatalf("last update = %s, want %s", metrics.LastUpdate, fixed)
	}
	if vault.Metrics == nil || *vault.Metrics != metrics {
		t.Fatal("vault metrics not replaced with the computed value")
	}
}

func TestComputeIncludesFees(t *testing.T) {
	adapter := &stubAdapter{
		fees: platform.TokenAmounts{
			Amount0: big.NewInt(2_000_000),
			Amount1: big.NewInt(0),
		},
	}
	registry, res := tvlFixture(adapter)
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	// 1 USDC held plus 2 USDC uncollected fees plus 1 WETH at 2000.
	if metrics.PositionsTVL != "2003.00" {
		t.Fatalf("positions tvl = %s, want 2003.00", metrics.PositionsTVL)
	}
}

func TestComputeTwoPositions(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	res.Positions = append(res.Positions, model.Position{
		ID: "2", Platform: "stub", PoolAddress: "pool-a", InVault: true,
	})
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1", "stub:2"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	if metrics.PositionsTVL != "4002.00" {
		t.Fatalf("positions tvl = %s, want 4002.00 across both positions", metrics.PositionsTVL)
	}
	if metrics.HasPartialData {
		t.Fatal("complete two-position pass flagged partial")
	}
}

func TestComputeIdempotent(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)
	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}}

	first := calc.Compute(context.Background(), &vault, res, 1)
	second := calc.Compute(context.Background(), &vault, res, 1)

	if first.PositionsTVL != second.PositionsTVL || first.IdleTVL != second.IdleTVL {
		t.Fatalf("repeat pass changed totals: %+v vs %+v", first, second)
	}
	if first.HasPartialData != second.HasPartialData {
		t.Fatal("repeat pass changed the partial flag")
	}
}

func TestComputeMissingPriceIsPartial(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	cache := pricing.NewCache(&tableFetcher{prices: map[string]float64{"usd-coin": 1.0}}, nil)
	calc := NewTVLCalculator(registry, cache, nil, nil)

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	if !metrics.HasPartialData {
		t.Fatal("missing price not flagged partial")
	}
	if metrics.PositionsTVL != "1.00" {
		t.Fatalf("positions tvl = %s, want 1.00 from the priced token", metrics.PositionsTVL)
	}
}

func TestComputeMissingPositionIsPartial(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1", "stub:404"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	if !metrics.HasPartialData {
		t.Fatal("unresolvable position not flagged partial")
	}
	if metrics.PositionsTVL != "2001.00" {
		t.Fatalf("positions tvl = %s, want 2001.00 from the resolvable position", metrics.PositionsTVL)
	}
}

func TestComputeMissingPoolIsPartial(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	delete(res.Pools, "pool-a")
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	if !metrics.HasPartialData {
		t.Fatal("missing pool not flagged partial")
	}
	if metrics.PositionsTVL != "0.00" {
		t.Fatalf("positions tvl = %s, want 0.00", metrics.PositionsTVL)
	}
}

func TestComputeFeeFailureStillCountsAmounts(t *testing.T) {
	adapter := &stubAdapter{feesErr: model.ErrSourceUnavailable}
	registry, res := tvlFixture(adapter)
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)

	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}}
	metrics := calc.Compute(context.Background(), &vault, res, 1)

	if !metrics.HasPartialData {
		t.Fatal("fee failure not flagged partial")
	}
	if metrics.PositionsTVL != "2001.00" {
		t.Fatalf("positions tvl = %s, want principal counted without fees", metrics.PositionsTVL)
	}
}

func TestComputeReplacesMetricsWholesale(t *testing.T) {
	registry, res := tvlFixture(&stubAdapter{})
	calc := NewTVLCalculator(registry, usdWethCache(), nil, nil)

	stale := model.VaultMetrics{VaultAddress: "vault-a", PositionsTVL: "999999.99", HasPartialData: true}
	vault := model.Vault{Address: "vault-a", PositionIDs: []string{"stub:1"}, Metrics: &stale}

	metrics := calc.Compute(context.Background(), &vault, res, 1)
	if vault.Metrics.PositionsTVL != "2001.00" {
		t.Fatalf("vault metrics = %s, want the fresh total", vault.Metrics.PositionsTVL)
	}
	if vault.Metrics.HasPartialData != metrics.HasPartialData {
		t.Fatal("stale partial flag survived the replace")
	}
}
