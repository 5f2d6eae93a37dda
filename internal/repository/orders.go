package repository

import (
	"context"
	"time"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

type OrderRepository interface {
	// List returns every order, newest first, with the customer's names.
	List(ctx context.Context) ([]core.Order, error)
	Recent(ctx context.Context, limit int) ([]core.Order, error)
	Get(ctx context.Context, id string) (*core.Order, error)
	Items(ctx context.Context, orderID string) ([]core.OrderItem, error)
	AllItems(ctx context.Context) ([]core.OrderItem, error)

	CreateHeader(ctx context.Context, h OrderHeader) (*core.Order, error)
	UpdateHeader(ctx context.Context, id string, h OrderHeader) (*core.Order, error)
	DeleteHeader(ctx context.Context, id string) error
	// InsertItems writes all items in one statement.
	InsertItems(ctx context.Context, items []core.OrderItem) ([]core.OrderItem, error)
	// DeleteItems removes every item of the order and returns what it removed.
	DeleteItems(ctx context.Context, orderID string) ([]core.OrderItem, error)
}

type orderRepository struct {
	db  store.DB
	now func() time.Time
}

func NewOrderRepository(client *store.Client) OrderRepository {
	return &orderRepository{db: client.DB(), now: time.Now}
}

var ordersWithCustomer = store.From("orders").Join(store.Join{
	Table:      "customers",
	LocalKey:   "customer_id",
	ForeignKey: "id",
	Columns:    []string{"company_name", "contact_name"},
	As:         []string{"customer_company_name", "customer_contact_name"},
})

func (r *orderRepository) List(ctx context.Context) ([]core.Order, error) {
	return store.Select[core.Order](ctx, r.db, ordersWithCustomer.Order("created_at", true))
}

func (r *orderRepository) Recent(ctx context.Context, limit int) ([]core.Order, error) {
	return store.Select[core.Order](ctx, r.db, ordersWithCustomer.Order("created_at", true).Limit(limit))
}

func (r *orderRepository) Get(ctx context.Context, id string) (*core.Order, error) {
	return store.One[core.Order](ctx, r.db, ordersWithCustomer.Eq("id", id))
}

func (r *orderRepository) Items(ctx context.Context, orderID string) ([]core.OrderItem, error) {
	return store.Select[core.OrderItem](ctx, r.db, store.From("order_items").Eq("order_id", orderID).Order("created_at", false))
}

func (r *orderRepository) AllItems(ctx context.Context) ([]core.OrderItem, error) {
	return store.Select[core.OrderItem](ctx, r.db, store.From("order_items"))
}

func (r *orderRepository) CreateHeader(ctx context.Context, h OrderHeader) (*core.Order, error) {
	v := h.values()
	if h.CreatedBy != "" {
		v = v.Set("created_by", h.CreatedBy)
	}
	return store.ExecOne[core.Order](ctx, r.db, store.Insert{Into: "orders", Rows: []store.Values{v}})
}

func (r *orderRepository) UpdateHeader(ctx context.Context, id string, h OrderHeader) (*core.Order, error) {
	return store.ExecOne[core.Order](ctx, r.db, store.Update{
		In:    "orders",
		Set:   h.values().Set("updated_at", r.now()),
		Where: store.Eq("id", id),
	})
}

func (r *orderRepository) DeleteHeader(ctx context.Context, id string) error {
	_, err := store.ExecCount(ctx, r.db, store.Delete{From: "orders", Where: store.Eq("id", id)})
	return err
}

func (r *orderRepository) InsertItems(ctx context.Context, items []core.OrderItem) ([]core.OrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	rows := make([]store.Values, len(items))
	for i, it := range items {
		v := store.Values{}
		if it.ID != "" {
			v = v.Set("id", it.ID)
		}
		rows[i] = v.
			Set("order_id", it.OrderID).
			Set("product_id", it.ProductID).
			Set("quantity", it.Quantity).
			Set("unit_price", it.UnitPrice).
			Set("subtotal", it.Subtotal)
	}
	return store.Exec[core.OrderItem](ctx, r.db, store.Insert{Into: "order_items", Rows: rows})
}

func (r *orderRepository) DeleteItems(ctx context.Context, orderID string) ([]core.OrderItem, error) {
	return store.Exec[core.OrderItem](ctx, r.db, store.Delete{From: "order_items", Where: store.Eq("order_id", orderID)})
}
