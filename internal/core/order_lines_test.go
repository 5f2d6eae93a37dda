package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbs-manager/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOrderTotal_OnlyValidLinesCount(t *testing.T) {
	lines := []core.OrderLine{
		{ProductID: "A", Quantity: 2, UnitPrice: dec("10")},
		{ProductID: "B", Quantity: 0, UnitPrice: dec("5")},
		{ProductID: "", Quantity: 3, UnitPrice: dec("0")},
	}
	assert.True(t, dec("20").Equal(core.OrderTotal(lines)), "got %s", core.OrderTotal(lines))
}

func TestOrderTotal_MissingProductExcludedEvenWithPrice(t *testing.T) {
	lines := []core.OrderLine{
		{ProductID: "", Quantity: 4, UnitPrice: dec("9.99")},
		{ProductID: "A", Quantity: -1, UnitPrice: dec("9.99")},
	}
	assert.True(t, core.OrderTotal(lines).IsZero())
}

func TestItemsFor(t *testing.T) {
	lines := []core.OrderLine{
		{ProductID: "A", Quantity: 3, UnitPrice: dec("1.20")},
		{ProductID: "", Quantity: 1, UnitPrice: dec("4")},
		{ProductID: "B", Quantity: 1, UnitPrice: dec("7")},
	}
	items := core.ItemsFor("order-1", lines)
	require.Len(t, items, 2)
	assert.Equal(t, "order-1", items[0].OrderID)
	assert.Equal(t, "A", items[0].ProductID)
	assert.True(t, dec("3.60").Equal(items[0].Subtotal))
	assert.Equal(t, "B", items[1].ProductID)
}

func TestNewOrderNumber(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "CMD-1700000000123", core.NewOrderNumber(ts))
}
