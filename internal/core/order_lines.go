package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one line of an order draft.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Valid reports whether the line has a product and a positive quantity.
func (l OrderLine) Valid() bool {
	return l.ProductID != "" && l.Quantity > 0
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ValidLines drops lines without a product or with a non-positive quantity,
// keeping the order of the rest.
func ValidLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

// OrderTotal sums quantity times unit price over the valid lines only.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range ValidLines(lines) {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemsFor turns the valid lines into rows for orderID.
func ItemsFor(orderID string, lines []OrderLine) []OrderItem {
	valid := ValidLines(lines)
	items := make([]OrderItem, len(valid))
	for i, l := range valid {
		items[i] = OrderItem{
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		}
	}
	return items
}

// NewOrderNumber returns a time-based order number. Uniqueness is advisory:
// two orders created in the same millisecond collide and the store rejects
// the second.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("CMD-%d", now.UnixMilli())
}
