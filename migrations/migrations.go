// Package migrations holds the database schema and applies it.
package migrations

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Apply runs the schema inside one transaction. Every statement is
// idempotent, so Apply is safe on an existing database.
func Apply(ctx context.Context, pool *pgxpool.Pool, channel string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, ForChannel(channel)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// ForChannel returns the schema with the change trigger publishing on
// channel instead of the default.
func ForChannel(channel string) string {
	if channel == "" || channel == defaultChannel {
		return schema
	}
	return strings.ReplaceAll(schema, "pg_notify('"+defaultChannel+"'", "pg_notify('"+channel+"'")
}

const defaultChannel = "table_changes"
