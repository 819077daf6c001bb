package platform

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/model"
)

// ContractCaller is the on-chain read capability supplied to adapters.
// The engine performs no network transport itself.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenAmounts holds the two underlying token quantities of a position.
type TokenAmounts struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// PositionSet is one adapter's discovery result. Empty collections mean
// "no positions found"; that is not an error.
type PositionSet struct {
	Positions []model.Position
	Pools     map[string]model.Pool
	Tokens    map[string]model.Token
}

// Adapter is implemented once per integrated pool protocol.
type Adapter interface {
	Name() string

	// GetPositions discovers all positions owned by owner. Transport or
	// contract failures are reported as model.ErrSourceUnavailable.
	GetPositions(ctx context.Context, owner common.Address, chainID uint64) (PositionSet, error)

	// CalculateTokenAmounts converts liquidity plus tick range plus the
	// current pool price into the two underlying token quantities,
	// clamped to zero when the current tick is outside the range.
	CalculateTokenAmounts(pos model.Position, pool model.Pool, token0, token1 model.Token) (TokenAmounts, error)

	// CalculateFees computes accrued-but-uncollected fees since the
	// position's last checkpoint. Wraparound of the underlying
	// fee-growth counters is expected and corrected for.
	CalculateFees(pos model.Position, pool model.Pool, token0, token1 model.Token) (TokenAmounts, error)

	// IsPositionInRange reports whether the pool's current tick lies in
	// [TickLower, TickUpper], inclusive both ends.
	IsPositionInRange(pos model.Position, pool model.Pool) bool
}
