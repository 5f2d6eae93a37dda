package repository

import (
	"context"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

// CatalogRepository covers categories, products and their inventory rows.
type CatalogRepository interface {
	Categories(ctx context.Context) ([]core.Category, error)
	ActiveProducts(ctx context.Context) ([]core.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*core.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Inventory(ctx context.Context) ([]core.InventoryItem, error)
	CreateInventory(ctx context.Context, productID string, quantity int) (*core.Inventory, error)
}

type catalogRepository struct {
	db store.DB
}

func NewCatalogRepository(client *store.Client) CatalogRepository {
	return &catalogRepository{db: client.DB()}
}

func (r *catalogRepository) Categories(ctx context.Context) ([]core.Category, error) {
	return store.Select[core.Category](ctx, r.db, store.From("categories").Order("name", false))
}

func (r *catalogRepository) ActiveProducts(ctx context.Context) ([]core.Product, error) {
	return store.Select[core.Product](ctx, r.db, store.From("products").Eq("active", true).Order("name", false))
}

func (r *catalogRepository) CreateProduct(ctx context.Context, in ProductInput) (*core.Product, error) {
	return store.ExecOne[core.Product](ctx, r.db, store.Insert{Into: "products", Rows: []store.Values{in.values()}})
}

func (r *catalogRepository) DeleteProduct(ctx context.Context, id string) error {
	_, err := store.ExecCount(ctx, r.db, store.Delete{From: "products", Where: store.Eq("id", id)})
	return err
}

// inventoryQuery joins each inventory row with the product fields the stock
// pages show.
var inventoryQuery = store.From("inventory").Join(store.Join{
	Table:      "products",
	LocalKey:   "product_id",
	ForeignKey: "id",
	Columns:    []string{"sku", "name", "selling_price", "min_stock_level", "unit_type"},
	As:         []string{"product_sku", "product_name", "selling_price", "min_stock_level", "unit_type"},
})

// Inventory returns every inventory row in store order. Pages sort by
// product name themselves.
func (r *catalogRepository) Inventory(ctx context.Context) ([]core.InventoryItem, error) {
	return store.Select[core.InventoryItem](ctx, r.db, inventoryQuery)
}

func (r *catalogRepository) CreateInventory(ctx context.Context, productID string, quantity int) (*core.Inventory, error) {
	return store.ExecOne[core.Inventory](ctx, r.db, store.Insert{
		Into: "inventory",
		Rows: []store.Values{store.Values{}.Set("product_id", productID).Set("quantity", quantity)},
	})
}
