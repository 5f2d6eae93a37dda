package views

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

type AnalyticsStats struct {
	MonthRevenue      decimal.Decimal                      `json:"month_revenue"`
	UnitsSold         int                                  `json:"units_sold"`
	AverageOrderValue decimal.Decimal                      `json:"average_order_value"`
	ActiveCustomers   int                                  `json:"active_customers"`
	RevenueByStatus   map[core.OrderStatus]decimal.Decimal `json:"revenue_by_status"`
}

// Analytics derives sales figures from the fetched orders, items and
// customers.
type Analytics struct {
	repos *repository.Set
	log   *zap.Logger
	now   func() time.Time

	mu    sync.RWMutex
	phase Phase
	stats AnalyticsStats
}

func NewAnalytics(repos *repository.Set, log *zap.Logger) *Analytics {
	return &Analytics{repos: repos, log: log, now: time.Now, phase: Loading, stats: emptyAnalytics()}
}

func emptyAnalytics() AnalyticsStats {
	return AnalyticsStats{
		MonthRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		RevenueByStatus:   map[core.OrderStatus]decimal.Decimal{},
	}
}

func (a *Analytics) Load(ctx context.Context) {
	a.mu.Lock()
	a.phase = Loading
	a.mu.Unlock()

	var (
		orders    []core.Order
		items     []core.OrderItem
		customers []core.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { orders, err = a.repos.Orders.List(gctx); return err })
	g.Go(func() (err error) { items, err = a.repos.Orders.AllItems(gctx); return err })
	g.Go(func() (err error) { customers, err = a.repos.Customers.Active(gctx); return err })
	err := g.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.phase = Ready
	if err != nil {
		a.log.Error("page fetch failed", zap.String("page", "analytics"), zap.Error(err))
		return
	}
	a.stats = Summarize(orders, items, len(customers), a.now())
}

// Summarize computes the analytics figures. Month revenue counts orders
// dated in now's calendar month.
func Summarize(orders []core.Order, items []core.OrderItem, activeCustomers int, now time.Time) AnalyticsStats {
	st := emptyAnalytics()
	st.ActiveCustomers = activeCustomers

	total := decimal.Zero
	y, m, _ := now.Date()
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
		st.RevenueByStatus[o.Status] = st.RevenueByStatus[o.Status].Add(o.TotalAmount)
		oy, om, _ := o.OrderDate.Date()
		if oy == y && om == m {
			st.MonthRevenue = st.MonthRevenue.Add(o.TotalAmount)
		}
	}
	if len(orders) > 0 {
		st.AverageOrderValue = total.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}
	for _, it := range items {
		st.UnitsSold += it.Quantity
	}
	return st
}

func (a *Analytics) Phase() Phase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.phase
}

func (a *Analytics) Stats() AnalyticsStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}
