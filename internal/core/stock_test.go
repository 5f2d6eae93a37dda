package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mbs-manager/internal/core"
)

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		reserved int
		min      int
		want     core.StockStatus
	}{
		{"fully reserved", 10, 10, 2, core.StockOut},
		{"available equals min", 10, 5, 5, core.StockLow},
		{"above min", 10, 2, 5, core.StockNormal},
		{"negative available", 3, 5, 0, core.StockOut},
		{"one unit with zero min", 1, 0, 0, core.StockNormal},
		{"one above min", 6, 0, 5, core.StockNormal},
		{"one unit with min one", 1, 0, 1, core.StockLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.ClassifyStock(tt.quantity, tt.reserved, tt.min))
		})
	}
}

func TestInventoryItem_StatusAndValue(t *testing.T) {
	item := core.InventoryItem{
		Inventory:     core.Inventory{Quantity: 12, ReservedQuantity: 4},
		MinStockLevel: 8,
		SellingPrice:  dec("2.50"),
	}
	assert.Equal(t, 8, item.Available())
	assert.Equal(t, core.StockLow, item.Status())
	assert.Equal(t, "Faible", item.Status().Label())
	assert.True(t, dec("30").Equal(item.Value()))
}
