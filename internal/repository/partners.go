package repository

import (
	"context"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

type CustomerRepository interface {
	// Active lists active customers by company name.
	Active(ctx context.Context) ([]core.Customer, error)
	// Count counts every customer row, active or not.
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, in CustomerInput) (*core.Customer, error)
}

type customerRepository struct {
	db store.DB
}

func NewCustomerRepository(client *store.Client) CustomerRepository {
	return &customerRepository{db: client.DB()}
}

func (r *customerRepository) Active(ctx context.Context) ([]core.Customer, error) {
	return store.Select[core.Customer](ctx, r.db, store.From("customers").Eq("active", true).Order("company_name", false))
}

func (r *customerRepository) Count(ctx context.Context) (int, error) {
	return store.Count(ctx, r.db, store.From("customers"))
}

func (r *customerRepository) Create(ctx context.Context, in CustomerInput) (*core.Customer, error) {
	return store.ExecOne[core.Customer](ctx, r.db, store.Insert{Into: "customers", Rows: []store.Values{in.values()}})
}

type SupplierRepository interface {
	Active(ctx context.Context) ([]core.Supplier, error)
	Create(ctx context.Context, in SupplierInput) (*core.Supplier, error)
}

type supplierRepository struct {
	db store.DB
}

func NewSupplierRepository(client *store.Client) SupplierRepository {
	return &supplierRepository{db: client.DB()}
}

func (r *supplierRepository) Active(ctx context.Context) ([]core.Supplier, error) {
	return store.Select[core.Supplier](ctx, r.db, store.From("suppliers").Eq("active", true).Order("name", false))
}

func (r *supplierRepository) Create(ctx context.Context, in SupplierInput) (*core.Supplier, error) {
	return store.ExecOne[core.Supplier](ctx, r.db, store.Insert{Into: "suppliers", Rows: []store.Values{in.values()}})
}
