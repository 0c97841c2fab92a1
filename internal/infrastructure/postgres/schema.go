package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaLockID clave del advisory lock que serializa el bootstrap entre réplicas.
const schemaLockID = 7351902

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouse_stocks (
		warehouse_id TEXT NOT NULL,
		product_id   TEXT NOT NULL,
		quantity     BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (warehouse_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS warehouse_movements (
		id               UUID PRIMARY KEY,
		seq              BIGSERIAL NOT NULL UNIQUE,
		movement_id      TEXT NOT NULL,
		warehouse_id     TEXT NOT NULL,
		product_id       TEXT NOT NULL,
		event_type       TEXT NOT NULL CHECK (event_type IN ('arrival', 'departure')),
		quantity         BIGINT NOT NULL CHECK (quantity > 0),
		timestamp        TIMESTAMPTZ NOT NULL,
		source_warehouse TEXT,
		delivery_key     TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_warehouse_movements_movement
		ON warehouse_movements (movement_id, timestamp, seq)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_warehouse_movements_delivery_key
		ON warehouse_movements (delivery_key) WHERE delivery_key IS NOT NULL`,
}

// EnsureSchema crea las tablas e índices si no existen. Idempotente.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("schema lock: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
