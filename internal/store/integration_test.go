//go:build integration

package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
	"mbs-manager/migrations"
)

// setupStore starts a PostgreSQL container with the schema applied.
func setupStore(t *testing.T) *store.Client {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("mbs"),
		postgres.WithUsername("mbs"),
		postgres.WithPassword("mbs"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Apply(ctx, pool, "table_changes"))
	require.NoError(t, migrations.Apply(ctx, pool, "table_changes"), "schema must be re-appliable")
	return store.NewClient(pool)
}

func TestStore_CommandsAndQueries(t *testing.T) {
	c := setupStore(t)
	ctx := context.Background()

	created, err := store.ExecOne[core.Supplier](ctx, c.DB(), store.Insert{
		Into: "suppliers",
		Rows: []store.Values{store.Values{}.Set("name", "Distillerie Neisson").Set("country", "France")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)

	_, err = store.Exec[core.Supplier](ctx, c.DB(), store.Insert{
		Into: "suppliers",
		Rows: []store.Values{
			store.Values{}.Set("name", "Brasserie Lorraine").Set("active", false),
		},
	})
	require.NoError(t, err)

	active, err := store.Select[core.Supplier](ctx, c.DB(), store.From("suppliers").Eq("active", true).Order("name", false))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Distillerie Neisson", active[0].Name)

	n, err := store.Count(ctx, c.DB(), store.From("suppliers"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.One[core.Supplier](ctx, c.DB(), store.From("suppliers").Eq("name", "nobody"))
	var qerr *core.RemoteQueryError
	require.ErrorAs(t, err, &qerr)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = store.Exec[core.Product](ctx, c.DB(), store.Insert{
		Into: "products",
		Rows: []store.Values{store.Values{}.Set("sku", "X").Set("name", "X").Set("selling_price", -1)},
	})
	var cerr *core.RemoteCommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "insert", cerr.Op)
}

func TestStore_FeedDeliversNotificationInserts(t *testing.T) {
	c := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := c.DB().Exec(ctx, `
		INSERT INTO auth_users (id, email, password_hash) VALUES ('00000000-0000-0000-0000-000000000001', 'a@b.c', 'x');
		INSERT INTO profiles (id, email, full_name) VALUES ('00000000-0000-0000-0000-000000000001', 'a@b.c', 'Alice');
	`)
	require.NoError(t, err)

	feed := store.NewFeed(c, "table_changes", zap.NewNop())
	got := make(chan core.Notification, 1)
	feed.Subscribe(store.Subscription{
		Table: "notifications", Column: "user_id", Value: "00000000-0000-0000-0000-000000000001", Kind: store.EventInsert,
	}, func(ch store.Change) {
		var n core.Notification
		if ch.Decode(&n) == nil {
			got <- n
		}
	})
	go feed.Run(ctx)

	require.Eventually(t, func() bool {
		_, err := store.Exec[core.Notification](ctx, c.DB(), store.Insert{
			Into: "notifications",
			Rows: []store.Values{store.Values{}.
				Set("user_id", "00000000-0000-0000-0000-000000000001").
				Set("title", "Stock bas").
				Set("message", "Rhum blanc sous le seuil")},
		})
		require.NoError(t, err)
		select {
		case n := <-got:
			return n.Title == "Stock bas"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)
}

func TestStore_FeedSendsKeysForOversizedRows(t *testing.T) {
	c := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const userID = "00000000-0000-0000-0000-000000000002"
	_, err := c.DB().Exec(ctx, `
		INSERT INTO auth_users (id, email, password_hash) VALUES ('`+userID+`', 'b@b.c', 'x');
		INSERT INTO profiles (id, email, full_name) VALUES ('`+userID+`', 'b@b.c', 'Bruno');
	`)
	require.NoError(t, err)

	feed := store.NewFeed(c, "table_changes", zap.NewNop())
	got := make(chan store.Change, 8)
	feed.Subscribe(store.Subscription{
		Table: "notifications", Column: "user_id", Value: userID, Kind: store.EventInsert,
	}, func(ch store.Change) { got <- ch })
	go feed.Run(ctx)

	long := strings.Repeat("x", 9000)
	require.Eventually(t, func() bool {
		created, err := store.ExecOne[core.Notification](ctx, c.DB(), store.Insert{
			Into: "notifications",
			Rows: []store.Values{store.Values{}.
				Set("user_id", userID).
				Set("title", "Rapport mensuel").
				Set("message", long)},
		})
		require.NoError(t, err, "oversized rows must still be writable")
		select {
		case ch := <-got:
			var keys struct {
				ID     string `json:"id"`
				UserID string `json:"user_id"`
				Title  string `json:"title"`
			}
			require.NoError(t, ch.Decode(&keys))
			return ch.Partial && keys.ID == created.ID && keys.UserID == userID && keys.Title == ""
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)

	customer, err := store.ExecOne[core.Customer](ctx, c.DB(), store.Insert{
		Into: "customers",
		Rows: []store.Values{store.Values{}.Set("company_name", "Le Bar").Set("contact_name", "Marc")},
	})
	require.NoError(t, err)
	_, err = store.ExecOne[core.Order](ctx, c.DB(), store.Insert{
		Into: "orders",
		Rows: []store.Values{store.Values{}.
			Set("order_number", "CMD-1").
			Set("customer_id", customer.ID).
			Set("notes", long)},
	})
	require.NoError(t, err, "orders carry no change trigger")
}
