package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

// ProfileInput is the row written when an identity is first provisioned.
type ProfileInput struct {
	ID       string
	Email    string
	FullName string
	Role     core.Role
}

// ProfileUpdate is the field set the profile form may change. Role is not
// part of it.
type ProfileUpdate struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
}

type ProductInput struct {
	SKU           string
	Name          string
	Description   string
	CategoryID    string
	SupplierID    string
	UnitType      core.UnitType
	UnitsPerCase  int
	CostPrice     decimal.Decimal
	SellingPrice  decimal.Decimal
	MinStockLevel int
	MaxStockLevel int
	Barcode       string
}

func (p ProductInput) values() store.Values {
	return store.Values{}.
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("description", core.StringPtr(p.Description)).
		Set("category_id", core.StringPtr(p.CategoryID)).
		Set("supplier_id", core.StringPtr(p.SupplierID)).
		Set("unit_type", p.UnitType).
		Set("units_per_case", p.UnitsPerCase).
		Set("cost_price", p.CostPrice).
		Set("selling_price", p.SellingPrice).
		Set("min_stock_level", p.MinStockLevel).
		Set("max_stock_level", p.MaxStockLevel).
		Set("barcode", core.StringPtr(p.Barcode))
}

type CustomerInput struct {
	CompanyName  string
	ContactName  string
	Email        string
	Phone        string
	Mobile       string
	Address      string
	City         string
	PostalCode   string
	Country      string
	TaxID        string
	PaymentTerms string
	CreditLimit  decimal.Decimal
	CustomerType core.CustomerType
	Notes        string
}

func (c CustomerInput) values() store.Values {
	return store.Values{}.
		Set("company_name", c.CompanyName).
		Set("contact_name", c.ContactName).
		Set("email", core.StringPtr(c.Email)).
		Set("phone", core.StringPtr(c.Phone)).
		Set("mobile", core.StringPtr(c.Mobile)).
		Set("address", core.StringPtr(c.Address)).
		Set("city", core.StringPtr(c.City)).
		Set("postal_code", core.StringPtr(c.PostalCode)).
		Set("country", c.Country).
		Set("tax_id", core.StringPtr(c.TaxID)).
		Set("payment_terms", c.PaymentTerms).
		Set("credit_limit", c.CreditLimit).
		Set("customer_type", c.CustomerType).
		Set("notes", core.StringPtr(c.Notes))
}

type SupplierInput struct {
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	City          string
	Country       string
	PaymentTerms  string
	Notes         string
}

func (s SupplierInput) values() store.Values {
	return store.Values{}.
		Set("name", s.Name).
		Set("contact_person", core.StringPtr(s.ContactPerson)).
		Set("email", core.StringPtr(s.Email)).
		Set("phone", core.StringPtr(s.Phone)).
		Set("address", core.StringPtr(s.Address)).
		Set("city", core.StringPtr(s.City)).
		Set("country", s.Country).
		Set("payment_terms", core.StringPtr(s.PaymentTerms)).
		Set("notes", core.StringPtr(s.Notes))
}

// OrderHeader is the writable part of an order.
type OrderHeader struct {
	OrderNumber   string
	CustomerID    string
	OrderDate     time.Time
	DeliveryDate  *time.Time
	Status        core.OrderStatus
	PaymentStatus core.PaymentStatus
	TotalAmount   decimal.Decimal
	Notes         string
	CreatedBy     string
}

// HeaderOf extracts the writable fields of a stored order, for restoring it.
func HeaderOf(o core.Order) OrderHeader {
	return OrderHeader{
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		OrderDate:     o.OrderDate,
		DeliveryDate:  o.DeliveryDate,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		Notes:         core.Deref(o.Notes),
		CreatedBy:     core.Deref(o.CreatedBy),
	}
}

func (h OrderHeader) values() store.Values {
	return store.Values{}.
		Set("order_number", h.OrderNumber).
		Set("customer_id", h.CustomerID).
		Set("order_date", h.OrderDate).
		Set("delivery_date", h.DeliveryDate).
		Set("status", h.Status).
		Set("payment_status", h.PaymentStatus).
		Set("total_amount", h.TotalAmount).
		Set("notes", core.StringPtr(h.Notes))
}

type NotificationInput struct {
	UserID  string
	Title   string
	Message string
	Type    core.NotificationType
	Link    string
}
