// Package repotest provides an in-memory repository.Set for tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

// Store is the shared in-memory state behind every repository.
type Store struct {
	mu sync.Mutex

	Profiles      map[string]core.Profile
	Categories    []core.Category
	Suppliers     []core.Supplier
	Products      []core.Product
	Inventory     []core.Inventory
	Customers     []core.Customer
	Orders        []core.Order
	Items         []core.OrderItem
	Notifications []core.Notification

	// Fail makes the named operation (e.g. "orders.InsertItems") return an
	// error. Calls records every operation name in order.
	Fail  map[string]error
	Calls []string

	once map[string]bool

	clock time.Time
}

func New() *Store {
	return &Store{
		Profiles: make(map[string]core.Profile),
		Fail:     make(map[string]error),
		once:     make(map[string]bool),
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Set returns repositories backed by s.
func (s *Store) Set() *repository.Set {
	return &repository.Set{
		Profiles:      profiles{s},
		Catalog:       catalog{s},
		Customers:     customers{s},
		Suppliers:     suppliers{s},
		Orders:        orders{s},
		Notifications: notifications{s},
	}
}

// ErrInjected is the default error used by FailOn.
var ErrInjected = errors.New("injected failure")

func (s *Store) FailOn(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail[op] = ErrInjected
	delete(s.once, op)
}

// FailOnce makes only the next call of op fail.
func (s *Store) FailOnce(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail[op] = ErrInjected
	s.once[op] = true
}

// CallCount returns how many times op ran.
func (s *Store) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// enter records op and returns its injected error. Callers hold s.mu.
func (s *Store) enter(op string) error {
	s.Calls = append(s.Calls, op)
	if err := s.injected(op); err != nil {
		table := strings.SplitN(op, ".", 2)[0]
		return &core.RemoteCommandError{Op: op, Table: table, Err: err}
	}
	return nil
}

func (s *Store) injected(op string) error {
	err := s.Fail[op]
	if err != nil && s.once[op] {
		delete(s.Fail, op)
		delete(s.once, op)
	}
	return err
}

// query is enter for reads: injected failures surface as RemoteQueryError.
func (s *Store) query(op string) error {
	s.Calls = append(s.Calls, op)
	if err := s.injected(op); err != nil {
		table := strings.SplitN(op, ".", 2)[0]
		return &core.RemoteQueryError{Table: table, Err: err}
	}
	return nil
}

// tick returns a strictly increasing timestamp so newest-first ordering is
// deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func notFound(table string) error {
	return &core.RemoteQueryError{Table: table, Err: core.ErrNotFound}
}

type profiles struct{ s *Store }

func (r profiles) Get(_ context.Context, id string) (*core.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("profiles.Get"); err != nil {
		return nil, err
	}
	p, ok := r.s.Profiles[id]
	if !ok {
		return nil, notFound("profiles")
	}
	return &p, nil
}

func (r profiles) Create(_ context.Context, in repository.ProfileInput) (*core.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("profiles.Create"); err != nil {
		return nil, err
	}
	now := r.s.tick()
	p := core.Profile{ID: in.ID, Email: in.Email, FullName: in.FullName, Role: in.Role, CreatedAt: now, UpdatedAt: now}
	r.s.Profiles[in.ID] = p
	return &p, nil
}

func (r profiles) Update(_ context.Context, id string, u repository.ProfileUpdate) (*core.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("profiles.Update"); err != nil {
		return nil, err
	}
	p, ok := r.s.Profiles[id]
	if !ok {
		return nil, notFound("profiles")
	}
	p.FullName = u.FullName
	p.Phone = core.StringPtr(u.Phone)
	p.CompanyName = core.StringPtr(u.CompanyName)
	p.UpdatedAt = r.s.tick()
	r.s.Profiles[id] = p
	return &p, nil
}

func (r profiles) List(_ context.Context) ([]core.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("profiles.List"); err != nil {
		return nil, err
	}
	out := make([]core.Profile, 0, len(r.s.Profiles))
	for _, p := range r.s.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type catalog struct{ s *Store }

func (r catalog) Categories(_ context.Context) ([]core.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("categories.List"); err != nil {
		return nil, err
	}
	return append([]core.Category(nil), r.s.Categories...), nil
}

func (r catalog) ActiveProducts(_ context.Context) ([]core.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("products.Active"); err != nil {
		return nil, err
	}
	var out []core.Product
	for _, p := range r.s.Products {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalog) CreateProduct(_ context.Context, in repository.ProductInput) (*core.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("products.Create"); err != nil {
		return nil, err
	}
	now := r.s.tick()
	p := core.Product{
		ID: uuid.NewString(), SKU: in.SKU, Name: in.Name, Description: core.StringPtr(in.Description),
		CategoryID: core.StringPtr(in.CategoryID), SupplierID: core.StringPtr(in.SupplierID),
		UnitType: in.UnitType, UnitsPerCase: in.UnitsPerCase, CostPrice: in.CostPrice,
		SellingPrice: in.SellingPrice, MinStockLevel: in.MinStockLevel, MaxStockLevel: in.MaxStockLevel,
		Barcode: core.StringPtr(in.Barcode), Active: true, CreatedAt: now, UpdatedAt: now,
	}
	r.s.Products = append(r.s.Products, p)
	return &p, nil
}

func (r catalog) DeleteProduct(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("products.Delete"); err != nil {
		return err
	}
	out := r.s.Products[:0]
	for _, p := range r.s.Products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	r.s.Products = out
	return nil
}

func (r catalog) Inventory(_ context.Context) ([]core.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("inventory.List"); err != nil {
		return nil, err
	}
	out := make([]core.InventoryItem, 0, len(r.s.Inventory))
	for _, inv := range r.s.Inventory {
		item := core.InventoryItem{Inventory: inv}
		for _, p := range r.s.Products {
			if p.ID == inv.ProductID {
				item.ProductSKU = p.SKU
				item.ProductName = p.Name
				item.SellingPrice = p.SellingPrice
				item.MinStockLevel = p.MinStockLevel
				item.UnitType = p.UnitType
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r catalog) CreateInventory(_ context.Context, productID string, quantity int) (*core.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("inventory.Create"); err != nil {
		return nil, err
	}
	now := r.s.tick()
	inv := core.Inventory{ID: uuid.NewString(), ProductID: productID, Quantity: quantity, LastCountedAt: now, UpdatedAt: now}
	r.s.Inventory = append(r.s.Inventory, inv)
	return &inv, nil
}

type customers struct{ s *Store }

func (r customers) Active(_ context.Context) ([]core.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("customers.Active"); err != nil {
		return nil, err
	}
	var out []core.Customer
	for _, c := range r.s.Customers {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

func (r customers) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("customers.Count"); err != nil {
		return 0, err
	}
	return len(r.s.Customers), nil
}

func (r customers) Create(_ context.Context, in repository.CustomerInput) (*core.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("customers.Create"); err != nil {
		return nil, err
	}
	now := r.s.tick()
	c := core.Customer{
		ID: uuid.NewString(), CompanyName: in.CompanyName, ContactName: in.ContactName,
		Email: core.StringPtr(in.Email), Phone: core.StringPtr(in.Phone), Mobile: core.StringPtr(in.Mobile),
		Address: core.StringPtr(in.Address), City: core.StringPtr(in.City), PostalCode: core.StringPtr(in.PostalCode),
		Country: in.Country, TaxID: core.StringPtr(in.TaxID), PaymentTerms: in.PaymentTerms,
		CreditLimit: in.CreditLimit, CustomerType: in.CustomerType, Notes: core.StringPtr(in.Notes),
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	r.s.Customers = append(r.s.Customers, c)
	return &c, nil
}

type suppliers struct{ s *Store }

func (r suppliers) Active(_ context.Context) ([]core.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("suppliers.Active"); err != nil {
		return nil, err
	}
	var out []core.Supplier
	for _, sp := range r.s.Suppliers {
		if sp.Active {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r suppliers) Create(_ context.Context, in repository.SupplierInput) (*core.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("suppliers.Create"); err != nil {
		return nil, err
	}
	now := r.s.tick()
	sp := core.Supplier{
		ID: uuid.NewString(), Name: in.Name, ContactPerson: core.StringPtr(in.ContactPerson),
		Email: core.StringPtr(in.Email), Phone: core.StringPtr(in.Phone), Address: core.StringPtr(in.Address),
		City: core.StringPtr(in.City), Country: in.Country, PaymentTerms: core.StringPtr(in.PaymentTerms),
		Notes: core.StringPtr(in.Notes), Active: true, CreatedAt: now, UpdatedAt: now,
	}
	r.s.Suppliers = append(r.s.Suppliers, sp)
	return &sp, nil
}

type orders struct{ s *Store }

func (r orders) withCustomer(o core.Order) core.Order {
	for _, c := range r.s.Customers {
		if c.ID == o.CustomerID {
			name, contact := c.CompanyName, c.ContactName
			o.CustomerName, o.ContactName = &name, &contact
		}
	}
	return o
}

func (r orders) newestFirst() []core.Order {
	out := make([]core.Order, len(r.s.Orders))
	for i, o := range r.s.Orders {
		out[i] = r.withCustomer(o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r orders) List(_ context.Context) ([]core.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("orders.List"); err != nil {
		return nil, err
	}
	return r.newestFirst(), nil
}

func (r orders) Recent(_ context.Context, limit int) ([]core.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("orders.Recent"); err != nil {
		return nil, err
	}
	out := r.newestFirst()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r orders) Get(_ context.Context, id string) (*core.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("orders.Get"); err != nil {
		return nil, err
	}
	for _, o := range r.s.Orders {
		if o.ID == id {
			o = r.withCustomer(o)
			return &o, nil
		}
	}
	return nil, notFound("orders")
}

func (r orders) Items(_ context.Context, orderID string) ([]core.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("order_items.List"); err != nil {
		return nil, err
	}
	var out []core.OrderItem
	for _, it := range r.s.Items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r orders) AllItems(_ context.Context) ([]core.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("order_items.All"); err != nil {
		return nil, err
	}
	return append([]core.OrderItem(nil), r.s.Items...), nil
}

func (r orders) CreateHeader(_ context.Context, h repository.OrderHeader) (*core.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("orders.CreateHeader"); err != nil {
		return nil, err
	}
	for _, o := range r.s.Orders {
		if o.OrderNumber == h.OrderNumber {
			return nil, &core.RemoteCommandError{Op: "insert", Table: "orders", Err: fmt.Errorf("duplicate order_number %s", h.OrderNumber)}
		}
	}
	now := r.s.tick()
	o := core.Order{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	applyHeader(&o, h)
	o.CreatedBy = core.StringPtr(h.CreatedBy)
	r.s.Orders = append(r.s.Orders, o)
	return &o, nil
}

func applyHeader(o *core.Order, h repository.OrderHeader) {
	o.OrderNumber = h.OrderNumber
	o.CustomerID = h.CustomerID
	o.OrderDate = h.OrderDate
	o.DeliveryDate = h.DeliveryDate
	o.Status = h.Status
	o.PaymentStatus = h.PaymentStatus
	o.TotalAmount = h.TotalAmount
	o.Notes = core.StringPtr(h.Notes)
}

func (r orders) UpdateHeader(_ context.Context, id string, h repository.OrderHeader) (*core.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("orders.UpdateHeader"); err != nil {
		return nil, err
	}
	for i := range r.s.Orders {
		if r.s.Orders[i].ID == id {
			applyHeader(&r.s.Orders[i], h)
			r.s.Orders[i].UpdatedAt = r.s.tick()
			o := r.s.Orders[i]
			return &o, nil
		}
	}
	return nil, &core.RemoteCommandError{Op: "update", Table: "orders", Err: core.ErrNotFound}
}

func (r orders) DeleteHeader(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("orders.DeleteHeader"); err != nil {
		return err
	}
	out := r.s.Orders[:0]
	for _, o := range r.s.Orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	r.s.Orders = out
	return nil
}

func (r orders) InsertItems(_ context.Context, items []core.OrderItem) ([]core.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("orders.InsertItems"); err != nil {
		return nil, err
	}
	out := make([]core.OrderItem, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.CreatedAt = r.s.tick()
		out[i] = it
	}
	r.s.Items = append(r.s.Items, out...)
	return out, nil
}

func (r orders) DeleteItems(_ context.Context, orderID string) ([]core.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("orders.DeleteItems"); err != nil {
		return nil, err
	}
	var kept, removed []core.OrderItem
	for _, it := range r.s.Items {
		if it.OrderID == orderID {
			removed = append(removed, it)
		} else {
			kept = append(kept, it)
		}
	}
	r.s.Items = kept
	return removed, nil
}

type notifications struct{ s *Store }

func (r notifications) Recent(_ context.Context, userID string, limit int) ([]core.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("notifications.Recent"); err != nil {
		return nil, err
	}
	var out []core.Notification
	for _, n := range r.s.Notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r notifications) Get(_ context.Context, userID, id string) (*core.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("notifications.Get"); err != nil {
		return nil, err
	}
	for _, n := range r.s.Notifications {
		if n.ID == id && n.UserID == userID {
			return &n, nil
		}
	}
	return nil, notFound("notifications")
}

func (r notifications) UnreadCount(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.query("notifications.UnreadCount"); err != nil {
		return 0, err
	}
	n := 0
	for _, x := range r.s.Notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n, nil
}

func (r notifications) MarkRead(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("notifications.MarkRead"); err != nil {
		return err
	}
	for i := range r.s.Notifications {
		if r.s.Notifications[i].ID == id && r.s.Notifications[i].UserID == userID {
			r.s.Notifications[i].Read = true
		}
	}
	return nil
}

func (r notifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("notifications.MarkAllRead"); err != nil {
		return 0, err
	}
	var n int64
	for i := range r.s.Notifications {
		if r.s.Notifications[i].UserID == userID && !r.s.Notifications[i].Read {
			r.s.Notifications[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r notifications) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("notifications.Delete"); err != nil {
		return err
	}
	out := r.s.Notifications[:0]
	for _, n := range r.s.Notifications {
		if n.ID != id || n.UserID != userID {
			out = append(out, n)
		}
	}
	r.s.Notifications = out
	return nil
}

func (r notifications) Create(_ context.Context, in repository.NotificationInput) (*core.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("notifications.Create"); err != nil {
		return nil, err
	}
	kind := in.Type
	if kind == "" {
		kind = core.NotificationInfo
	}
	n := core.Notification{
		ID: uuid.NewString(), UserID: in.UserID, Title: in.Title, Message: in.Message,
		Type: kind, Link: core.StringPtr(in.Link), CreatedAt: r.s.tick(),
	}
	r.s.Notifications = append(r.s.Notifications, n)
	return &n, nil
}
