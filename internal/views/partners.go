package views

import (
	"context"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

type Customers struct {
	*List[core.Customer]
}

func NewCustomers(repos *repository.Set, log *zap.Logger) *Customers {
	return &Customers{List: NewList("customers", log, repos.Customers.Active)}
}

// CountsByType counts fetched customers per type. Every type is present,
// zero when unused.
func (v *Customers) CountsByType() map[core.CustomerType]int {
	counts := make(map[core.CustomerType]int, len(core.CustomerTypes))
	for _, t := range core.CustomerTypes {
		counts[t] = 0
	}
	for _, c := range v.Rows() {
		counts[c.CustomerType]++
	}
	return counts
}

type Suppliers struct {
	*List[core.Supplier]
}

func NewSuppliers(repos *repository.Set, log *zap.Logger) *Suppliers {
	return &Suppliers{List: NewList("suppliers", log, repos.Suppliers.Active)}
}

func (v *Suppliers) Count() int {
	return len(v.Rows())
}

// Lookups are the option lists the product form offers.
type Lookups struct {
	Categories []core.Category `json:"categories"`
	Suppliers  []core.Supplier `json:"suppliers"`
}

// LoadLookups fetches categories and active suppliers. Failures are logged
// and leave the corresponding list empty.
func LoadLookups(ctx context.Context, repos *repository.Set, log *zap.Logger) Lookups {
	var l Lookups
	var err error
	if l.Categories, err = repos.Catalog.Categories(ctx); err != nil {
		log.Error("page fetch failed", zap.String("page", "product_form"), zap.String("table", "categories"), zap.Error(err))
	}
	if l.Suppliers, err = repos.Suppliers.Active(ctx); err != nil {
		log.Error("page fetch failed", zap.String("page", "product_form"), zap.String("table", "suppliers"), zap.Error(err))
	}
	return l
}
