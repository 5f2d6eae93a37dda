package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert_ToSQL(t *testing.T) {
	rows := []Values{
		Values{}.Set("order_id", "o1").Set("quantity", 2),
		Values{}.Set("order_id", "o1").Set("quantity", 5),
	}
	sql, args, err := Insert{Into: "order_items", Rows: rows}.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "order_items" ("order_id", "quantity") VALUES ($1, $2), ($3, $4) RETURNING *`, sql)
	assert.Equal(t, []any{"o1", 2, "o1", 5}, args)
}

func TestInsert_RejectsMismatchedRows(t *testing.T) {
	rows := []Values{
		Values{}.Set("a", 1),
		Values{}.Set("b", 2),
	}
	_, _, err := Insert{Into: "t", Rows: rows}.ToSQL()
	assert.Error(t, err)

	_, _, err = Insert{Into: "t"}.ToSQL()
	assert.Error(t, err)
}

func TestValues_SetOverwritesInPlace(t *testing.T) {
	v := Values{}.Set("a", 1).Set("b", 2).Set("a", 3)
	assert.Equal(t, []string{"a", "b"}, v.cols)
	assert.Equal(t, []any{3, 2}, v.vals)
}

func TestUpdate_ToSQL(t *testing.T) {
	cmd := Update{
		In:    "notifications",
		Set:   Values{}.Set("read", true),
		Where: []Filter{{Column: "user_id", Value: "u1"}, {Column: "read", Value: false}},
	}
	sql, args, err := cmd.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "notifications" SET "read" = $1 WHERE "notifications"."user_id" = $2 AND "notifications"."read" = $3 RETURNING *`, sql)
	assert.Equal(t, []any{true, "u1", false}, args)
}

func TestUpdateAndDelete_RequireFilter(t *testing.T) {
	_, _, err := Update{In: "orders", Set: Values{}.Set("status", "draft")}.ToSQL()
	assert.Error(t, err)

	_, _, err = Delete{From: "orders"}.ToSQL()
	assert.Error(t, err)
}

func TestDelete_ToSQL(t *testing.T) {
	sql, args, err := Delete{From: "order_items", Where: Eq("order_id", "o1")}.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "order_items" WHERE "order_items"."order_id" = $1 RETURNING *`, sql)
	assert.Equal(t, []any{"o1"}, args)
}
