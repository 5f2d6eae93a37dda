package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rows are decoded from the store by column name (`db` tags). Fields tagged
// with a joined column name are filled only by queries that project them.

// Profile is the application-side record of a signed-in identity.
type Profile struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	Role        Role      `db:"role" json:"role"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	CompanyName *string   `db:"company_name" json:"company_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Supplier struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson *string   `db:"contact_person" json:"contact_person,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	City          *string   `db:"city" json:"city,omitempty"`
	Country       string    `db:"country" json:"country"`
	PaymentTerms  *string   `db:"payment_terms" json:"payment_terms,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a catalog entry. Stock lives in its Inventory row.
type Product struct {
	ID            string          `db:"id" json:"id"`
	SKU           string          `db:"sku" json:"sku"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CategoryID    *string         `db:"category_id" json:"category_id,omitempty"`
	SupplierID    *string         `db:"supplier_id" json:"supplier_id,omitempty"`
	UnitType      UnitType        `db:"unit_type" json:"unit_type"`
	UnitsPerCase  int             `db:"units_per_case" json:"units_per_case"`
	CostPrice     decimal.Decimal `db:"cost_price" json:"cost_price"`
	SellingPrice  decimal.Decimal `db:"selling_price" json:"selling_price"`
	MinStockLevel int             `db:"min_stock_level" json:"min_stock_level"`
	MaxStockLevel int             `db:"max_stock_level" json:"max_stock_level"`
	Barcode       *string         `db:"barcode" json:"barcode,omitempty"`
	ImageURL      *string         `db:"image_url" json:"image_url,omitempty"`
	Active        bool            `db:"active" json:"active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type Inventory struct {
	ID               string    `db:"id" json:"id"`
	ProductID        string    `db:"product_id" json:"product_id"`
	Quantity         int       `db:"quantity" json:"quantity"`
	ReservedQuantity int       `db:"reserved_quantity" json:"reserved_quantity"`
	LastCountedAt    time.Time `db:"last_counted_at" json:"last_counted_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Available is quantity minus reserved. It is not clamped.
func (i Inventory) Available() int {
	return i.Quantity - i.ReservedQuantity
}

// InventoryItem is an inventory row joined with the product fields the
// stock pages display.
type InventoryItem struct {
	Inventory
	ProductSKU    string          `db:"product_sku" json:"product_sku"`
	ProductName   string          `db:"product_name" json:"product_name"`
	SellingPrice  decimal.Decimal `db:"selling_price" json:"selling_price"`
	MinStockLevel int             `db:"min_stock_level" json:"min_stock_level"`
	UnitType      UnitType        `db:"unit_type" json:"unit_type"`
}

// Status classifies the row by its available quantity.
func (i InventoryItem) Status() StockStatus {
	return ClassifyStock(i.Quantity, i.ReservedQuantity, i.MinStockLevel)
}

// Value is quantity times selling price.
func (i InventoryItem) Value() decimal.Decimal {
	return i.SellingPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Customer struct {
	ID           string          `db:"id" json:"id"`
	CompanyName  string          `db:"company_name" json:"company_name"`
	ContactName  string          `db:"contact_name" json:"contact_name"`
	Email        *string         `db:"email" json:"email,omitempty"`
	Phone        *string         `db:"phone" json:"phone,omitempty"`
	Mobile       *string         `db:"mobile" json:"mobile,omitempty"`
	Address      *string         `db:"address" json:"address,omitempty"`
	City         *string         `db:"city" json:"city,omitempty"`
	PostalCode   *string         `db:"postal_code" json:"postal_code,omitempty"`
	Country      string          `db:"country" json:"country"`
	TaxID        *string         `db:"tax_id" json:"tax_id,omitempty"`
	PaymentTerms string          `db:"payment_terms" json:"payment_terms"`
	CreditLimit  decimal.Decimal `db:"credit_limit" json:"credit_limit"`
	CustomerType CustomerType    `db:"customer_type" json:"customer_type"`
	AssignedTo   *string         `db:"assigned_to" json:"assigned_to,omitempty"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Order is an order header. CustomerName and ContactName are joined from
// customers for list display.
type Order struct {
	ID            string          `db:"id" json:"id"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	CustomerID    string          `db:"customer_id" json:"customer_id"`
	OrderDate     time.Time       `db:"order_date" json:"order_date"`
	DeliveryDate  *time.Time      `db:"delivery_date" json:"delivery_date,omitempty"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaymentStatus PaymentStatus   `db:"payment_status" json:"payment_status"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	CreatedBy     *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`

	CustomerName *string `db:"customer_company_name" json:"customer_company_name,omitempty"`
	ContactName  *string `db:"customer_contact_name" json:"customer_contact_name,omitempty"`
}

type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Read      bool             `db:"read" json:"read"`
	Link      *string          `db:"link" json:"link,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// StringPtr returns nil for blank strings, so optional text columns store NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
