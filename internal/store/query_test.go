package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_ToSQL(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "all columns",
			query:   From("suppliers"),
			wantSQL: `SELECT "suppliers".* FROM "suppliers"`,
		},
		{
			name:     "filter order",
			query:    From("customers").Eq("active", true).Order("company_name", false),
			wantSQL:  `SELECT "customers".* FROM "customers" WHERE "customers"."active" = $1 ORDER BY "customers"."company_name"`,
			wantArgs: []any{true},
		},
		{
			name:     "projection limit descending",
			query:    From("notifications").Select("id", "title").Eq("user_id", "u1").Order("created_at", true).Limit(20),
			wantSQL:  `SELECT "notifications"."id", "notifications"."title" FROM "notifications" WHERE "notifications"."user_id" = $1 ORDER BY "notifications"."created_at" DESC LIMIT 20`,
			wantArgs: []any{"u1"},
		},
		{
			name: "join with aliases",
			query: From("orders").Join(Join{
				Table: "customers", LocalKey: "customer_id", ForeignKey: "id",
				Columns: []string{"company_name"}, As: []string{"customer_company_name"},
			}),
			wantSQL: `SELECT "orders".*, "customers"."company_name" AS "customer_company_name" FROM "orders" LEFT JOIN "customers" ON "orders"."customer_id" = "customers"."id"`,
		},
		{
			name: "join default alias and qualified order",
			query: From("inventory").Join(Join{
				Table: "products", LocalKey: "product_id", ForeignKey: "id", Columns: []string{"name"},
			}).Order("products.name", false),
			wantSQL: `SELECT "inventory".*, "products"."name" AS "products_name" FROM "inventory" LEFT JOIN "products" ON "inventory"."product_id" = "products"."id" ORDER BY "products"."name"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestQuery_IsImmutable(t *testing.T) {
	base := From("orders").Eq("status", "draft")
	a := base.Eq("customer_id", "c1")
	b := base.Eq("customer_id", "c2")

	_, aArgs, _ := a.ToSQL()
	_, bArgs, _ := b.ToSQL()
	assert.Equal(t, []any{"draft", "c1"}, aArgs)
	assert.Equal(t, []any{"draft", "c2"}, bArgs)
}

func TestQuery_Errors(t *testing.T) {
	_, _, err := Query{}.ToSQL()
	assert.Error(t, err)

	_, _, err = From("orders").Join(Join{Table: "customers", Columns: []string{"a", "b"}, As: []string{"x"}}).ToSQL()
	assert.Error(t, err)
}

func TestQuery_CountSQL(t *testing.T) {
	sql, args, err := From("notifications").Eq("user_id", "u1").Eq("read", false).Order("created_at", true).Limit(3).CountSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT count(*) FROM "notifications" WHERE "notifications"."user_id" = $1 AND "notifications"."read" = $2`, sql)
	assert.Equal(t, []any{"u1", false}, args)
}

func TestIdent_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `"we""ird"`, ident(`we"ird`))
}
