package forms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
)

// OrderDraft is the header part of the order form.
type OrderDraft struct {
	CustomerID    string             `json:"customer_id" jsonschema:"title=Client,minLength=1"`
	OrderDate     time.Time          `json:"order_date"`
	DeliveryDate  *time.Time         `json:"delivery_date,omitempty"`
	Status        core.OrderStatus   `json:"status" jsonschema:"enum=draft,enum=confirmed,enum=processing,enum=shipped,enum=delivered,enum=cancelled,default=draft"`
	PaymentStatus core.PaymentStatus `json:"payment_status" jsonschema:"enum=pending,enum=partial,enum=paid,default=pending"`
	Notes         string             `json:"notes,omitempty"`
	Lines         []core.OrderLine   `json:"lines" jsonschema:"minItems=1"`
}

func newLine() core.OrderLine {
	return core.OrderLine{Quantity: 1, UnitPrice: decimal.Zero}
}

func DefaultOrderDraft(now time.Time) OrderDraft {
	return OrderDraft{
		OrderDate:     now,
		Status:        core.OrderDraft,
		PaymentStatus: core.PaymentPending,
		Lines:         []core.OrderLine{newLine()},
	}
}

// OrderForm creates an order or, when opened on an existing one, replaces
// its header and items.
type OrderForm struct {
	status
	repos     *repository.Set
	log       *zap.Logger
	onSuccess OnSuccess
	userID    func() string
	now       func() time.Time

	mu        sync.Mutex
	orderID   string
	draft     OrderDraft
	customers []core.Customer
	products  []core.Product
}

// NewOrderForm builds the form. userID supplies created_by for new orders
// and may return "".
func NewOrderForm(repos *repository.Set, log *zap.Logger, userID func() string, onSuccess OnSuccess) *OrderForm {
	f := &OrderForm{
		repos:     repos,
		log:       log,
		onSuccess: onSuccess,
		userID:    userID,
		now:       time.Now,
	}
	f.draft = DefaultOrderDraft(f.now())
	return f
}

// Open loads the selectable customers and products. With a non-empty
// orderID it also loads that order's header and items into the draft.
// Lookup failures are logged and leave the lists empty.
func (f *OrderForm) Open(ctx context.Context, orderID string) error {
	customers, err := f.repos.Customers.Active(ctx)
	if err != nil {
		f.log.Error("failed to load customers", zap.String("form", "order"), zap.Error(err))
	}
	products, err := f.repos.Catalog.ActiveProducts(ctx)
	if err != nil {
		f.log.Error("failed to load products", zap.String("form", "order"), zap.Error(err))
	}

	draft := DefaultOrderDraft(f.now())
	if orderID != "" {
		order, err := f.repos.Orders.Get(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		items, err := f.repos.Orders.Items(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
		draft = OrderDraft{
			CustomerID:    order.CustomerID,
			OrderDate:     order.OrderDate,
			DeliveryDate:  order.DeliveryDate,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Notes:         core.Deref(order.Notes),
		}
		for _, it := range items {
			draft.Lines = append(draft.Lines, core.OrderLine{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		if len(draft.Lines) == 0 {
			draft.Lines = []core.OrderLine{newLine()}
		}
	}

	f.mu.Lock()
	f.orderID = orderID
	f.draft = draft
	f.customers = customers
	f.products = products
	f.mu.Unlock()
	return nil
}

// Editing returns the id of the order being edited, or "" in create mode.
func (f *OrderForm) Editing() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

func (f *OrderForm) Draft() OrderDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	d.Lines = append([]core.OrderLine(nil), f.draft.Lines...)
	return d
}

// SetDraft replaces the draft, filling a blank date, status or payment
// status and an empty line list with the defaults.
func (f *OrderForm) SetDraft(d OrderDraft) {
	def := DefaultOrderDraft(f.now())
	if d.OrderDate.IsZero() {
		d.OrderDate = def.OrderDate
	}
	if d.Status == "" {
		d.Status = def.Status
	}
	if d.PaymentStatus == "" {
		d.PaymentStatus = def.PaymentStatus
	}
	if len(d.Lines) == 0 {
		d.Lines = def.Lines
	}
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
}

func (f *OrderForm) Customers() []core.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers
}

func (f *OrderForm) Products() []core.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products
}

// Reset returns the form to an empty create-mode draft.
func (f *OrderForm) Reset() {
	f.mu.Lock()
	f.orderID = ""
	f.draft = DefaultOrderDraft(f.now())
	f.mu.Unlock()
}

// Set assigns one header field from text input.
func (f *OrderForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &f.draft
	switch field {
	case "customer_id":
		d.CustomerID = value
	case "order_date":
		if t, err := time.Parse(time.DateOnly, value); err == nil {
			d.OrderDate = t
		}
	case "delivery_date":
		if t, err := time.Parse(time.DateOnly, value); err == nil {
			d.DeliveryDate = &t
		} else {
			d.DeliveryDate = nil
		}
	case "status":
		d.Status = core.OrderStatus(value)
	case "payment_status":
		d.PaymentStatus = core.PaymentStatus(value)
	case "notes":
		d.Notes = value
	default:
		return fmt.Errorf("unknown order field %q", field)
	}
	return nil
}

func (f *OrderForm) AddLine() {
	f.mu.Lock()
	f.draft.Lines = append(f.draft.Lines, newLine())
	f.mu.Unlock()
}

// RemoveLine drops row i. The last remaining row is never removed.
func (f *OrderForm) RemoveLine(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.draft.Lines) <= 1 || i < 0 || i >= len(f.draft.Lines) {
		return
	}
	f.draft.Lines = append(f.draft.Lines[:i:i], f.draft.Lines[i+1:]...)
}

// SetLineProduct selects the product of row i and copies its selling price
// into the row. The price stays editable.
func (f *OrderForm) SetLineProduct(i int, productID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.draft.Lines) {
		return
	}
	line := &f.draft.Lines[i]
	line.ProductID = productID
	for _, p := range f.products {
		if p.ID == productID {
			line.UnitPrice = p.SellingPrice
			break
		}
	}
}

func (f *OrderForm) SetLineQuantity(i int, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= 0 && i < len(f.draft.Lines) {
		f.draft.Lines[i].Quantity = ParseInt(raw)
	}
}

func (f *OrderForm) SetLinePrice(i int, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= 0 && i < len(f.draft.Lines) {
		f.draft.Lines[i].UnitPrice = ParseMoney(raw)
	}
}

// Total is the sum over rows that have a product and a positive quantity.
func (f *OrderForm) Total() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.OrderTotal(f.draft.Lines)
}

func (d OrderDraft) validate() error {
	if blank(d.CustomerID) {
		return core.NewValidationError("customer_id", "Veuillez sélectionner un client")
	}
	if len(core.ValidLines(d.Lines)) == 0 {
		return core.NewValidationError("lines", "Veuillez ajouter au moins un produit")
	}
	return nil
}

func (f *OrderForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	orderID := f.Editing()
	d := f.Draft()

	var err error
	if orderID == "" {
		err = f.create(ctx, d)
	} else {
		err = f.replace(ctx, orderID, d)
	}
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

func (f *OrderForm) header(d OrderDraft, number string) repository.OrderHeader {
	return repository.OrderHeader{
		OrderNumber:   number,
		CustomerID:    d.CustomerID,
		OrderDate:     d.OrderDate,
		DeliveryDate:  d.DeliveryDate,
		Status:        d.Status,
		PaymentStatus: d.PaymentStatus,
		TotalAmount:   core.OrderTotal(d.Lines),
		Notes:         d.Notes,
	}
}

func (f *OrderForm) create(ctx context.Context, d OrderDraft) error {
	if err := d.validate(); err != nil {
		return err
	}
	h := f.header(d, core.NewOrderNumber(f.now()))
	if f.userID != nil {
		h.CreatedBy = f.userID()
	}

	var order *core.Order
	err := store.NewPlan(f.log).
		Add(store.Step{
			Name: "insert order",
			Do: func(ctx context.Context) error {
				var err error
				order, err = f.repos.Orders.CreateHeader(ctx, h)
				return err
			},
			Undo: func(ctx context.Context) error {
				return f.repos.Orders.DeleteHeader(ctx, order.ID)
			},
		}).
		Add(store.Step{
			Name: "insert order items",
			Do: func(ctx context.Context) error {
				_, err := f.repos.Orders.InsertItems(ctx, core.ItemsFor(order.ID, d.Lines))
				return err
			},
		}).
		Run(ctx)
	if err != nil {
		return err
	}
	f.log.Info("order created", zap.String("order_id", order.ID), zap.String("order_number", order.OrderNumber))
	return nil
}

// replace rewrites the header and swaps the stored items for the draft's
// valid lines. The order number is kept.
func (f *OrderForm) replace(ctx context.Context, orderID string, d OrderDraft) error {
	if err := d.validate(); err != nil {
		return err
	}
	original, err := f.repos.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	h := f.header(d, original.OrderNumber)
	h.CreatedBy = core.Deref(original.CreatedBy)

	var removed []core.OrderItem
	return store.NewPlan(f.log).
		Add(store.Step{
			Name: "update order",
			Do: func(ctx context.Context) error {
				_, err := f.repos.Orders.UpdateHeader(ctx, orderID, h)
				return err
			},
			Undo: func(ctx context.Context) error {
				_, err := f.repos.Orders.UpdateHeader(ctx, orderID, repository.HeaderOf(*original))
				return err
			},
		}).
		Add(store.Step{
			Name: "delete order items",
			Do: func(ctx context.Context) error {
				var err error
				removed, err = f.repos.Orders.DeleteItems(ctx, orderID)
				return err
			},
			Undo: func(ctx context.Context) error {
				_, err := f.repos.Orders.InsertItems(ctx, removed)
				return err
			},
		}).
		Add(store.Step{
			Name: "insert order items",
			Do: func(ctx context.Context) error {
				_, err := f.repos.Orders.InsertItems(ctx, core.ItemsFor(orderID, d.Lines))
				return err
			},
		}).
		Run(ctx)
}
