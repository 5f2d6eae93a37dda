package views

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

type Inventory struct {
	*List[core.InventoryItem]
}

type InventoryStats struct {
	Products   int             `json:"products"`
	LowStock   int             `json:"low_stock"`
	StockValue decimal.Decimal `json:"stock_value"`
}

func NewInventory(repos *repository.Set, log *zap.Logger) *Inventory {
	fetch := func(ctx context.Context) ([]core.InventoryItem, error) {
		rows, err := repos.Catalog.Inventory(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].ProductName) < strings.ToLower(rows[j].ProductName)
		})
		return rows, nil
	}
	return &Inventory{List: NewList("inventory", log, fetch)}
}

// Stats counts products, rows at or below their minimum (out of stock
// included) and the stock value at selling price.
func (v *Inventory) Stats() InventoryStats {
	rows := v.Rows()
	st := InventoryStats{Products: len(rows), StockValue: decimal.Zero}
	for _, r := range rows {
		if r.Status() != core.StockNormal {
			st.LowStock++
		}
		st.StockValue = st.StockValue.Add(r.Value())
	}
	return st
}
