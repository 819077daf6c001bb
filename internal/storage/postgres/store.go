package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionScope/internal/model"
)

// Store provides Postgres persistence for pass results.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutPositions upserts the pass's position snapshot.
func (s *Store) PutPositions(ctx context.Context, positions []model.Position) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pos := range positions {
		batch.Queue(`
			INSERT INTO positions (
				platform, position_id, pool_address, fee, tick_lower, tick_upper,
				liquidity, in_vault, vault_address, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (platform, position_id)
			DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				fee = EXCLUDED.fee,
				tick_lower = EXCLUDED.tick_lower,
				tick_upper = EXCLUDED.tick_upper,
				liquidity = EXCLUDED.liquidity,
				in_vault = EXCLUDED.in_vault,
				vault_address = EXCLUDED.vault_address,
				updated_at = now()
		`,
			pos.Platform,
			pos.ID,
			pos.PoolAddress,
			pos.Fee,
			pos.TickLower,
			pos.TickUpper,
			pos.Liquidity,
			pos.InVault,
			pos.VaultAddress,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range positions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutVaultMetrics upserts one vault's metrics wholesale.
func (s *Store) PutVaultMetrics(ctx context.Context, metrics model.VaultMetrics) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vault_metrics (
			vault_address, positions_tvl, idle_tvl, has_partial_data, last_update, updated_at
		) VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (vault_address)
		DO UPDATE SET
			positions_tvl = EXCLUDED.positions_tvl,
			idle_tvl = EXCLUDED.idle_tvl,
			has_partial_data = EXCLUDED.has_partial_data,
			last_update = EXCLUDED.last_update,
			updated_at = now()
	`,
		metrics.VaultAddress,
		metrics.PositionsTVL,
		metrics.IdleTVL,
		metrics.HasPartialData,
		metrics.LastUpdate,
	)
	return err
}
