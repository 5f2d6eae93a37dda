package forms

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
)

type ProductDraft struct {
	SKU             string          `json:"sku" jsonschema:"title=SKU,minLength=1"`
	Name            string          `json:"name" jsonschema:"title=Nom,minLength=1"`
	Description     string          `json:"description,omitempty"`
	CategoryID      string          `json:"category_id,omitempty"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	UnitType        core.UnitType   `json:"unit_type" jsonschema:"enum=bottle,enum=case,enum=pallet,default=case"`
	UnitsPerCase    int             `json:"units_per_case" jsonschema:"default=12"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	MinStockLevel   int             `json:"min_stock_level"`
	MaxStockLevel   int             `json:"max_stock_level" jsonschema:"default=1000"`
	InitialQuantity int             `json:"initial_quantity"`
	Barcode         string          `json:"barcode,omitempty"`
}

func DefaultProductDraft() ProductDraft {
	return ProductDraft{
		UnitType:      core.UnitCase,
		UnitsPerCase:  12,
		CostPrice:     decimal.Zero,
		SellingPrice:  decimal.Zero,
		MaxStockLevel: 1000,
	}
}

type ProductForm struct {
	status
	repos     *repository.Set
	log       *zap.Logger
	onSuccess OnSuccess

	mu    sync.Mutex
	draft ProductDraft
}

func NewProductForm(repos *repository.Set, log *zap.Logger, onSuccess OnSuccess) *ProductForm {
	return &ProductForm{repos: repos, log: log, onSuccess: onSuccess, draft: DefaultProductDraft()}
}

func (f *ProductForm) Draft() ProductDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *ProductForm) SetDraft(d ProductDraft) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
}

func (f *ProductForm) Reset() {
	f.SetDraft(DefaultProductDraft())
}

// Set assigns one field from text input.
func (f *ProductForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &f.draft
	switch field {
	case "sku":
		d.SKU = value
	case "name":
		d.Name = value
	case "description":
		d.Description = value
	case "category_id":
		d.CategoryID = value
	case "supplier_id":
		d.SupplierID = value
	case "unit_type":
		d.UnitType = core.UnitType(value)
	case "units_per_case":
		d.UnitsPerCase = ParseInt(value)
	case "cost_price":
		d.CostPrice = ParseMoney(value)
	case "selling_price":
		d.SellingPrice = ParseMoney(value)
	case "min_stock_level":
		d.MinStockLevel = ParseInt(value)
	case "max_stock_level":
		d.MaxStockLevel = ParseInt(value)
	case "initial_quantity":
		d.InitialQuantity = ParseInt(value)
	case "barcode":
		d.Barcode = value
	default:
		return fmt.Errorf("unknown product field %q", field)
	}
	return nil
}

func (d ProductDraft) validate() error {
	if blank(d.SKU) {
		return core.NewValidationError("sku", "Le SKU est requis")
	}
	if blank(d.Name) {
		return core.NewValidationError("name", "Le nom est requis")
	}
	return nil
}

// Submit inserts the product and, when an initial quantity is given, its
// inventory row. If the inventory insert fails the product is deleted again.
func (f *ProductForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	d := f.Draft()
	err := f.submit(ctx, d)
	f.end(err)
	if err != nil {
		return err
	}
	f.Reset()
	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}
	return nil
}

func (f *ProductForm) submit(ctx context.Context, d ProductDraft) error {
	if err := d.validate(); err != nil {
		return err
	}

	var product *core.Product
	plan := store.NewPlan(f.log).Add(store.Step{
		Name: "insert product",
		Do: func(ctx context.Context) error {
			var err error
			product, err = f.repos.Catalog.CreateProduct(ctx, repository.ProductInput{
				SKU:           d.SKU,
				Name:          d.Name,
				Description:   d.Description,
				CategoryID:    d.CategoryID,
				SupplierID:    d.SupplierID,
				UnitType:      d.UnitType,
				UnitsPerCase:  d.UnitsPerCase,
				CostPrice:     d.CostPrice,
				SellingPrice:  d.SellingPrice,
				MinStockLevel: d.MinStockLevel,
				MaxStockLevel: d.MaxStockLevel,
				Barcode:       d.Barcode,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return f.repos.Catalog.DeleteProduct(ctx, product.ID)
		},
	})
	if d.InitialQuantity > 0 {
		plan.Add(store.Step{
			Name: "insert inventory",
			Do: func(ctx context.Context) error {
				_, err := f.repos.Catalog.CreateInventory(ctx, product.ID, d.InitialQuantity)
				return err
			},
		})
	}
	return plan.Run(ctx)
}
