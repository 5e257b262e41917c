package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
)

//go:embed schema.sql
var schemaSQL string

// migrationLockKey serializes concurrent Migrate calls across processes.
const migrationLockKey = 7_305_512_018

// Migrate applies the embedded idempotent schema.
func Migrate(ctx context.Context, p *db.Postgres) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool is nil")
	}

	tx, err := p.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(migrationLockKey)); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return tx.Commit(ctx)
}

// Schema returns the embedded DDL.
func Schema() string {
	return schemaSQL
}
