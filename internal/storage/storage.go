package storage

import (
	"context"

	"positionScope/internal/model"
)

// Sink receives the results of aggregation and TVL passes for
// downstream consumers.
type Sink interface {
	PutPositions(ctx context.Context, positions []model.Position) error
	PutVaultMetrics(ctx context.Context, metrics model.VaultMetrics) error
}
