package views

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
)

// StatusAll disables the status filter.
const StatusAll = "all"

type Orders struct {
	*List[core.Order]
	repos *repository.Set
	log   *zap.Logger

	mu     sync.RWMutex
	status string
	// editing is the order the form is open for; "" means a new order.
	editing string
}

type OrderStats struct {
	Total      int             `json:"total"`
	InProgress int             `json:"in_progress"`
	Delivered  int             `json:"delivered"`
	Revenue    decimal.Decimal `json:"revenue"`
}

func NewOrders(repos *repository.Set, log *zap.Logger) *Orders {
	return &Orders{
		List:   NewList("orders", log, repos.Orders.List),
		repos:  repos,
		log:    log,
		status: StatusAll,
	}
}

// SetStatus filters by one order status, or StatusAll.
func (v *Orders) SetStatus(status string) error {
	if status != StatusAll && !core.OrderStatus(status).Valid() {
		return core.NewValidationError("status", "statut inconnu "+status)
	}
	v.mu.Lock()
	v.status = status
	v.mu.Unlock()
	return nil
}

func (v *Orders) Status() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Visible applies the search term and the status filter.
func (v *Orders) Visible() []core.Order {
	status := v.Status()
	matched := v.List.Visible()
	if status == StatusAll {
		return matched
	}
	out := matched[:0]
	for _, o := range matched {
		if string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out
}

// Edit opens the form on an existing order.
func (v *Orders) Edit(orderID string) {
	v.mu.Lock()
	v.editing = orderID
	v.mu.Unlock()
	v.OpenForm()
}

// Create opens the form on a new order.
func (v *Orders) Create() {
	v.Edit("")
}

func (v *Orders) Editing() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.editing
}

func (v *Orders) Stats() OrderStats {
	rows := v.Rows()
	st := OrderStats{Total: len(rows), Revenue: decimal.Zero}
	for _, o := range rows {
		if o.Status.InProgress() {
			st.InProgress++
		}
		if o.Status == core.OrderDelivered {
			st.Delivered++
		}
		st.Revenue = st.Revenue.Add(o.TotalAmount)
	}
	return st
}

// Delete removes the order's items and then its header, restoring the items
// if the header cannot be deleted, and re-fetches on success.
func (v *Orders) Delete(ctx context.Context, orderID string) error {
	var removed []core.OrderItem
	err := store.NewPlan(v.log).
		Add(store.Step{
			Name: "delete order items",
			Do: func(ctx context.Context) error {
				var err error
				removed, err = v.repos.Orders.DeleteItems(ctx, orderID)
				return err
			},
			Undo: func(ctx context.Context) error {
				_, err := v.repos.Orders.InsertItems(ctx, removed)
				return err
			},
		}).
		Add(store.Step{
			Name: "delete order",
			Do:   func(ctx context.Context) error { return v.repos.Orders.DeleteHeader(ctx, orderID) },
		}).
		Run(ctx)
	if err != nil {
		return err
	}
	v.Load(ctx)
	return nil
}
