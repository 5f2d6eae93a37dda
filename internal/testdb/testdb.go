// Package testdb opens the integration test database.
package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"mbs-manager/internal/store"
	"mbs-manager/migrations"
)

// Open connects to TEST_DATABASE_URL, applies the schema and empties every
// table. Tests are skipped when the variable is unset so a live database is
// never wiped.
func Open(t *testing.T) *store.Client {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Apply(ctx, pool, "table_changes"); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE notifications, order_items, orders, inventory, products,
			categories, suppliers, customers, profiles, auth_sessions, auth_users CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return store.NewClient(pool)
}
