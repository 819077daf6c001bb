package aggregate

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/platform"
)

// Custody records whether positions were discovered through the owner's
// wallet or through a vault contract holding them on the owner's behalf.
type Custody string

const (
	CustodyWallet Custody = "wallet"
	CustodyVault  Custody = "vault"
)

// Result is one aggregation pass: the merged position list plus the
// reference data needed to value it, and the per-adapter error map for
// sources that failed. A failed adapter never discards another
// adapter's positions.
type Result struct {
	Positions []model.Position
	Pools     map[string]model.Pool
	Tokens    map[string]model.Token
	Errors    map[string]error
}

func newResult() Result {
	return Result{
		Pools:  make(map[string]model.Pool),
		Tokens: make(map[string]model.Token),
		Errors: make(map[string]error),
	}
}

// Aggregator fans position discovery out to every adapter registered for
// a chain and merges the independent results.
type Aggregator struct {
	registry *platform.Registry
	logger   *zap.Logger
}

func NewAggregator(registry *platform.Registry, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{registry: registry, logger: logger}
}

// Collect queries all adapters concurrently for one owner and tags every
// returned position with the caller's custody context. Results are
// joined at a barrier; order across adapters is irrelevant.
func (a *Aggregator) Collect(ctx context.Context, owner common.Address, chainID uint64, custody Custody, vaultAddress string) Result {
	out := newResult()
	adapters := a.registry.ForChain(chainID)
	if len(adapters) == 0 {
		return out
	}

	type adapterResult struct {
		name string
		set  platform.PositionSet
		err  error
	}

	results := make(chan adapterResult, len(adapters))
	var wg sync.WaitGroup
	for _, adapter := range adapters {
		wg.Add(1)
		go func(adapter platform.Adapter) {
			defer wg.Done()
			set, err := adapter.GetPositions(ctx, owner, chainID)
			results <- adapterResult{name: adapter.Name(), set: set, err: err}
		}(adapter)
	}
	wg.Wait()
	close(results)

	for result := range results {
		if result.err != nil {
			a.logger.Warn("adapter query failed",
				zap.String("adapter", result.name),
				zap.Error(result.err),
			)
			out.Errors[result.name] = result.err
			continue
		}

		for _, pos := range result.set.Positions {
			pos.InVault = custody == CustodyVault
			if pos.InVault {
				pos.VaultAddress = vaultAddress
			}
			out.Positions = append(out.Positions, pos)
		}
		// Identical addresses describe identical on-chain state, so
		// last writer wins on the reference maps.
		for addr, pool := range result.set.Pools {
			out.Pools[addr] = pool
		}
		for addr, token := range result.set.Tokens {
			out.Tokens[addr] = token
		}
	}

	return out
}

// Merge combines the results of a wallet pass and any vault passes. A
// position id seen by both is kept once, with the vault pass winning the
// custody tag.
func Merge(wallet Result, vaults ...Result) Result {
	out := newResult()
	index := make(map[string]int)

	add := func(res Result) {
		for _, pos := range res.Positions {
			if at, ok := index[pos.Key()]; ok {
				if pos.InVault {
					out.Positions[at] = pos
				}
				continue
			}
			index[pos.Key()] = len(out.Positions)
			out.Positions = append(out.Positions, pos)
		}
		for addr, pool := range res.Pools {
			out.Pools[addr] = pool
		}
		for addr, token := range res.Tokens {
			out.Tokens[addr] = token
		}
		for name, err := range res.Errors {
			out.Errors[name] = err
		}
	}

	add(wallet)
	for _, vault := range vaults {
		add(vault)
	}
	return out
}
