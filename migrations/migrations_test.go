package migrations

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_DeclaresEveryTable(t *testing.T) {
	for _, table := range []string{
		"auth_users", "auth_sessions", "profiles", "categories", "suppliers",
		"products", "inventory", "customers", "orders", "order_items", "notifications",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestForChannel(t *testing.T) {
	assert.Equal(t, schema, ForChannel(""))
	custom := ForChannel("mbs_changes")
	assert.Contains(t, custom, "pg_notify('mbs_changes'")
	assert.False(t, strings.Contains(custom, "pg_notify('table_changes'"))
}

func TestSchema_OnlyNotificationsFeedTheChannel(t *testing.T) {
	created := regexp.MustCompile(`CREATE TRIGGER (\w+)\s+AFTER [A-Z ]+ ON (\w+)`).FindAllStringSubmatch(schema, -1)
	var tables []string
	for _, m := range created {
		tables = append(tables, m[2])
	}
	assert.Equal(t, []string{"notifications"}, tables)

	assert.Contains(t, schema, "DROP TRIGGER IF EXISTS orders_change_feed ON orders;")
	assert.Contains(t, schema, "DROP TRIGGER IF EXISTS inventory_change_feed ON inventory;")
}

func TestSchema_LargeRowsFallBackToKeys(t *testing.T) {
	assert.Contains(t, schema, "octet_length(payload) >= 7900")
	assert.Contains(t, schema, "'partial', true")
	assert.Contains(t, schema, "notify_table_change('user_id')")
}
