package views

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository/repotest"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed() *repotest.Store {
	mem := repotest.New()
	email := "bar@lebar.mq"
	mem.Customers = []core.Customer{
		{ID: "c1", CompanyName: "Le Bar", ContactName: "Paul", Email: &email, CustomerType: core.CustomerBar, Active: true},
		{ID: "c2", CompanyName: "Hôtel Bakoua", ContactName: "Marie", CustomerType: core.CustomerHotel, Active: true},
		{ID: "c3", CompanyName: "Ancien Client", ContactName: "Luc", CustomerType: core.CustomerRetail, Active: false},
	}
	mem.Products = []core.Product{
		{ID: "p1", SKU: "RH-001", Name: "Rhum blanc", SellingPrice: d("10"), MinStockLevel: 5, Active: true},
		{ID: "p2", SKU: "BI-002", Name: "bière", SellingPrice: d("2.5"), MinStockLevel: 10, Active: true},
		{ID: "p3", SKU: "VI-003", Name: "Vin rouge", SellingPrice: d("8"), MinStockLevel: 2, Active: true},
	}
	mem.Inventory = []core.Inventory{
		{ID: "i1", ProductID: "p1", Quantity: 10, ReservedQuantity: 5}, // low: available 5 == min
		{ID: "i2", ProductID: "p2", Quantity: 40, ReservedQuantity: 0}, // normal
		{ID: "i3", ProductID: "p3", Quantity: 2, ReservedQuantity: 2},  // out
	}
	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mem.Orders = []core.Order{
		{ID: "o1", OrderNumber: "CMD-1", CustomerID: "c1", Status: core.OrderDelivered, TotalAmount: d("100"), OrderDate: t0, CreatedAt: t0},
		{ID: "o2", OrderNumber: "CMD-2", CustomerID: "c2", Status: core.OrderProcessing, TotalAmount: d("50"), OrderDate: t0.AddDate(0, 1, 0), CreatedAt: t0.Add(time.Hour)},
		{ID: "o3", OrderNumber: "CMD-3", CustomerID: "c1", Status: core.OrderDraft, TotalAmount: d("25.5"), OrderDate: t0.AddDate(0, 1, 2), CreatedAt: t0.Add(2 * time.Hour)},
	}
	mem.Items = []core.OrderItem{
		{ID: "it1", OrderID: "o1", ProductID: "p1", Quantity: 10, UnitPrice: d("10"), Subtotal: d("100")},
		{ID: "it2", OrderID: "o2", ProductID: "p2", Quantity: 20, UnitPrice: d("2.5"), Subtotal: d("50")},
	}
	return mem
}

func TestInventory_LoadSortsAndStats(t *testing.T) {
	mem := seed()
	v := NewInventory(mem.Set(), zap.NewNop())
	assert.Equal(t, Loading, v.Phase())

	v.Load(context.Background())
	require.Equal(t, Ready, v.Phase())

	rows := v.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"bière", "Rhum blanc", "Vin rouge"},
		[]string{rows[0].ProductName, rows[1].ProductName, rows[2].ProductName})

	st := v.Stats()
	assert.Equal(t, 3, st.Products)
	assert.Equal(t, 2, st.LowStock, "low and out-of-stock rows both count")
	assert.True(t, d("216").Equal(st.StockValue), "10*10 + 40*2.5 + 2*8, got %s", st.StockValue)

	v.SetSearch("rh-")
	if vis := v.Visible(); assert.Len(t, vis, 1) {
		assert.Equal(t, "Rhum blanc", vis[0].ProductName)
	}
}

func TestList_FetchFailureSettlesReady(t *testing.T) {
	mem := seed()
	v := NewCustomers(mem.Set(), zap.NewNop())
	v.Load(context.Background())
	require.Len(t, v.Rows(), 2)

	mem.FailOn("customers.Active")
	v.Load(context.Background())

	assert.Equal(t, Ready, v.Phase())
	assert.Len(t, v.Rows(), 2, "previous rows are kept")
	var qerr *core.RemoteQueryError
	assert.ErrorAs(t, v.LastError(), &qerr)
}

func TestCustomers_FilterAndCounts(t *testing.T) {
	v := NewCustomers(seed().Set(), zap.NewNop())
	v.Load(context.Background())

	v.SetSearch("LEBAR.MQ")
	if vis := v.Visible(); assert.Len(t, vis, 1) {
		assert.Equal(t, "c1", vis[0].ID)
	}

	counts := v.CountsByType()
	assert.Equal(t, 1, counts[core.CustomerBar])
	assert.Equal(t, 1, counts[core.CustomerHotel])
	assert.Equal(t, 0, counts[core.CustomerRetail], "inactive customers are not fetched")
	assert.Contains(t, counts, core.CustomerRestaurant)
}

func TestList_FormSavedClosesAndRefetches(t *testing.T) {
	mem := seed()
	v := NewSuppliers(mem.Set(), zap.NewNop())
	v.Load(context.Background())
	assert.Equal(t, 0, v.Count())

	v.OpenForm()
	require.True(t, v.FormOpen())
	mem.Suppliers = append(mem.Suppliers, core.Supplier{ID: "s1", Name: "Neisson", Active: true})
	v.FormSaved(context.Background())

	assert.False(t, v.FormOpen())
	assert.Equal(t, 1, v.Count())
	assert.Equal(t, 2, mem.CallCount("suppliers.Active"))
}

func TestOrders_StatusFilterAndStats(t *testing.T) {
	v := NewOrders(seed().Set(), zap.NewNop())
	v.Load(context.Background())

	rows := v.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "o3", rows[0].ID, "newest first")
	assert.Equal(t, "Le Bar", core.Deref(rows[0].CustomerName))

	st := v.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.InProgress)
	assert.Equal(t, 1, st.Delivered)
	assert.True(t, d("175.5").Equal(st.Revenue))

	v.SetSearch("le bar")
	assert.Len(t, v.Visible(), 2)
	require.NoError(t, v.SetStatus(string(core.OrderDraft)))
	if vis := v.Visible(); assert.Len(t, vis, 1) {
		assert.Equal(t, "o3", vis[0].ID)
	}
	assert.Error(t, v.SetStatus("lost"))
	assert.Equal(t, string(core.OrderDraft), v.Status())
}

func TestOrders_EditAndCreateTrackTarget(t *testing.T) {
	v := NewOrders(seed().Set(), zap.NewNop())
	assert.False(t, v.FormOpen())

	v.Edit("o1")
	assert.True(t, v.FormOpen())
	assert.Equal(t, "o1", v.Editing())

	v.Create()
	assert.True(t, v.FormOpen())
	assert.Empty(t, v.Editing(), "a new order has no target")

	v.FormSaved(context.Background())
	assert.False(t, v.FormOpen())
}

func TestOrders_DeleteRemovesItemsThenHeader(t *testing.T) {
	mem := seed()
	v := NewOrders(mem.Set(), zap.NewNop())
	v.Load(context.Background())

	require.NoError(t, v.Delete(context.Background(), "o1"))

	assert.Len(t, v.Rows(), 2)
	assert.Len(t, mem.Items, 1)
	assert.Equal(t, "orders.DeleteItems", mem.Calls[1])
	assert.Equal(t, "orders.DeleteHeader", mem.Calls[2])
}

func TestOrders_DeleteRestoresItemsWhenHeaderFails(t *testing.T) {
	mem := seed()
	mem.FailOn("orders.DeleteHeader")
	v := NewOrders(mem.Set(), zap.NewNop())

	err := v.Delete(context.Background(), "o1")
	require.Error(t, err)
	assert.Len(t, mem.Orders, 3)
	assert.Len(t, mem.Items, 2, "removed items are re-inserted")
}

func TestDashboard_Load(t *testing.T) {
	mem := seed()
	v := NewDashboard(mem.Set(), zap.NewNop())
	v.Load(context.Background())

	require.Equal(t, Ready, v.Phase())
	st := v.Stats()
	assert.True(t, d("175.5").Equal(st.TotalRevenue))
	assert.Equal(t, 3, st.TotalOrders)
	assert.Equal(t, 3, st.TotalCustomers, "inactive customers count on the dashboard")
	assert.Equal(t, 1, st.LowStockItems, "raw quantity: only 2 <= 2")
	assert.Len(t, v.RecentOrders(), 3)
}

func TestDashboard_FailureKeepsReady(t *testing.T) {
	mem := seed()
	mem.FailOn("inventory.List")
	v := NewDashboard(mem.Set(), zap.NewNop())
	v.Load(context.Background())

	assert.Equal(t, Ready, v.Phase())
	assert.Equal(t, 0, v.Stats().TotalOrders)
	assert.Empty(t, v.RecentOrders())
}

func TestSummarize(t *testing.T) {
	mem := seed()
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	st := Summarize(mem.Orders, mem.Items, 2, now)

	assert.True(t, d("75.5").Equal(st.MonthRevenue), "orders dated in March")
	assert.Equal(t, 30, st.UnitsSold)
	assert.True(t, d("58.5").Equal(st.AverageOrderValue))
	assert.Equal(t, 2, st.ActiveCustomers)
	assert.True(t, d("100").Equal(st.RevenueByStatus[core.OrderDelivered]))
}

func TestAnalytics_Load(t *testing.T) {
	v := NewAnalytics(seed().Set(), zap.NewNop())
	v.now = func() time.Time { return time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC) }
	v.Load(context.Background())

	assert.Equal(t, Ready, v.Phase())
	assert.True(t, d("100").Equal(v.Stats().MonthRevenue))
	assert.Equal(t, 2, v.Stats().ActiveCustomers)
}
