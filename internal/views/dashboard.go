package views

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

// RecentOrderCount is how many orders the dashboard lists.
const RecentOrderCount = 5

type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	LowStockItems  int             `json:"low_stock_items"`
}

// Dashboard aggregates orders, customers and inventory.
type Dashboard struct {
	repos *repository.Set
	log   *zap.Logger

	mu     sync.RWMutex
	phase  Phase
	stats  DashboardStats
	recent []core.Order
}

func NewDashboard(repos *repository.Set, log *zap.Logger) *Dashboard {
	return &Dashboard{repos: repos, log: log, phase: Loading, stats: DashboardStats{TotalRevenue: decimal.Zero}}
}

// Load runs the three aggregate fetches concurrently, then the recent orders.
// Any failure is logged and the dashboard keeps its previous figures.
func (d *Dashboard) Load(ctx context.Context) {
	d.mu.Lock()
	d.phase = Loading
	d.mu.Unlock()

	var (
		orders    []core.Order
		customers int
		inventory []core.InventoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = d.repos.Orders.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		customers, err = d.repos.Customers.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		inventory, err = d.repos.Catalog.Inventory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		d.log.Error("page fetch failed", zap.String("page", "dashboard"), zap.Error(err))
		d.settle(nil, nil)
		return
	}

	st := DashboardStats{TotalRevenue: decimal.Zero, TotalOrders: len(orders), TotalCustomers: customers}
	for _, o := range orders {
		st.TotalRevenue = st.TotalRevenue.Add(o.TotalAmount)
	}
	for _, item := range inventory {
		// The dashboard compares raw quantity, not available stock.
		if item.Quantity <= item.MinStockLevel {
			st.LowStockItems++
		}
	}

	recent, err := d.repos.Orders.Recent(ctx, RecentOrderCount)
	if err != nil {
		d.log.Error("page fetch failed", zap.String("page", "dashboard"), zap.String("table", "orders"), zap.Error(err))
		d.settle(&st, nil)
		return
	}
	d.settle(&st, recent)
}

func (d *Dashboard) settle(st *DashboardStats, recent []core.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phase = Ready
	if st != nil {
		d.stats = *st
	}
	if recent != nil {
		d.recent = recent
	}
}

func (d *Dashboard) Phase() Phase {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.phase
}

func (d *Dashboard) Stats() DashboardStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

func (d *Dashboard) RecentOrders() []core.Order {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]core.Order(nil), d.recent...)
}
