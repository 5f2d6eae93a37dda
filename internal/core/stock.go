package core

type StockStatus string

const (
	StockOut    StockStatus = "out"
	StockLow    StockStatus = "low"
	StockNormal StockStatus = "normal"
)

// ClassifyStock applies the stock rule: available (quantity - reserved) at
// or below zero is out, at or below minLevel is low, anything else normal.
func ClassifyStock(quantity, reserved, minLevel int) StockStatus {
	available := quantity - reserved
	switch {
	case available <= 0:
		return StockOut
	case available <= minLevel:
		return StockLow
	default:
		return StockNormal
	}
}

// Label is the French display label used by the stock pages.
func (s StockStatus) Label() string {
	switch s {
	case StockOut:
		return "Rupture"
	case StockLow:
		return "Faible"
	default:
		return "Normal"
	}
}
