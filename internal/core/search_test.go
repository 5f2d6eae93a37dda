package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mbs-manager/internal/core"
)

func TestMatches(t *testing.T) {
	assert.True(t, core.Matches("", "anything"))
	assert.True(t, core.Matches("RHUM", "Rhum Clément"))
	assert.True(t, core.Matches("clé", "x", "Rhum Clément"))
	assert.False(t, core.Matches("vodka", "Rhum", ""))
}

func TestFilter_Customers(t *testing.T) {
	email := "contact@lebar.mq"
	rows := []core.Customer{
		{CompanyName: "Hôtel Bakoua", ContactName: "Marie"},
		{CompanyName: "Le Bar", ContactName: "Paul", Email: &email},
		{CompanyName: "Carrefour", ContactName: "Jean"},
	}

	assert.Len(t, core.Filter(rows, ""), 3)

	got := core.Filter(rows, "LEBAR")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Le Bar", got[0].CompanyName)
	}

	got = core.Filter(rows, "jean")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Carrefour", got[0].CompanyName)
	}
}

func TestFilter_SuppliersIgnoreMissingOptionalFields(t *testing.T) {
	rows := []core.Supplier{{Name: "Distillerie Neisson"}, {Name: "Brasseur"}}
	got := core.Filter(rows, "neis")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Distillerie Neisson", got[0].Name)
	}
	assert.Empty(t, core.Filter(rows, "@"))
}

func TestFilter_InventoryBySKU(t *testing.T) {
	rows := []core.InventoryItem{
		{ProductName: "Rhum blanc", ProductSKU: "RH-001"},
		{ProductName: "Bière", ProductSKU: "BI-002"},
	}
	got := core.Filter(rows, "bi-")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Bière", got[0].ProductName)
	}
}
