package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mbs-manager/internal/core"
	"mbs-manager/internal/forms"
	"mbs-manager/internal/views"
)

type field struct {
	name  string
	label string
}

var productFields = []field{
	{"sku", "SKU"},
	{"name", "Name"},
	{"description", "Description"},
	{"unit_type", "Unit (bottle/case/pallet)"},
	{"units_per_case", "Units per case"},
	{"cost_price", "Cost price"},
	{"selling_price", "Selling price"},
	{"min_stock_level", "Min stock level"},
	{"max_stock_level", "Max stock level"},
	{"initial_quantity", "Initial quantity"},
	{"barcode", "Barcode"},
}

var customerFields = []field{
	{"company_name", "Company name"},
	{"contact_name", "Contact name"},
	{"customer_type", "Type (restaurant/hotel/bar/retail/other)"},
	{"email", "Email"},
	{"phone", "Phone"},
	{"mobile", "Mobile"},
	{"address", "Address"},
	{"city", "City"},
	{"postal_code", "Postal code"},
	{"country", "Country"},
	{"tax_id", "Tax ID"},
	{"payment_terms", "Payment terms"},
	{"credit_limit", "Credit limit"},
	{"notes", "Notes"},
}

var supplierFields = []field{
	{"name", "Name"},
	{"contact_person", "Contact person"},
	{"email", "Email"},
	{"phone", "Phone"},
	{"address", "Address"},
	{"city", "City"},
	{"country", "Country"},
	{"payment_terms", "Payment terms"},
	{"notes", "Notes"},
}

var profileFields = []field{
	{"full_name", "Full name"},
	{"phone", "Phone"},
	{"company_name", "Company"},
}

// prompt reads one answer. ok is false when the user typed 'cancel' or
// input ended.
func (s *Shell) prompt(label string) (answer string, ok bool) {
	s.printf("  %s: ", label)
	line, more := s.readLine()
	if !more || strings.EqualFold(line, "cancel") {
		return "", false
	}
	return line, true
}

// fill prompts for every field and hands non-blank answers to set. Blank
// answers keep the form default.
func (s *Shell) fill(fields []field, set func(field, value string) error) bool {
	s.println("Leave a field blank to keep its default, 'cancel' to abort.")
	for _, f := range fields {
		v, ok := s.prompt(f.label)
		if !ok {
			s.println("Cancelled.")
			return false
		}
		if v == "" {
			continue
		}
		if err := set(f.name, v); err != nil {
			s.printError(err)
		}
	}
	return true
}

func (s *Shell) newProduct(ctx context.Context) error {
	v := views.NewInventory(s.repos, s.log)
	v.OpenForm()
	f := forms.NewProductForm(s.repos, s.log, v.FormSaved)
	if !s.fill(productFields, f.Set) {
		return nil
	}
	if err := f.Submit(ctx); err != nil {
		return err
	}
	s.println(okStyle.Render("Product created."))
	printInventory(s.out, v.Visible(), v.Stats())
	return nil
}

func (s *Shell) newCustomer(ctx context.Context) error {
	v := views.NewCustomers(s.repos, s.log)
	v.OpenForm()
	f := forms.NewCustomerForm(s.repos, s.log, v.FormSaved)
	if !s.fill(customerFields, f.Set) {
		return nil
	}
	if err := f.Submit(ctx); err != nil {
		return err
	}
	s.println(okStyle.Render("Customer created."))
	printCustomers(s.out, v.Visible(), v.CountsByType())
	return nil
}

func (s *Shell) newSupplier(ctx context.Context) error {
	v := views.NewSuppliers(s.repos, s.log)
	v.OpenForm()
	f := forms.NewSupplierForm(s.repos, s.log, v.FormSaved)
	if !s.fill(supplierFields, f.Set) {
		return nil
	}
	if err := f.Submit(ctx); err != nil {
		return err
	}
	s.println(okStyle.Render("Supplier created."))
	printSuppliers(s.out, v.Visible())
	return nil
}

func (s *Shell) editProfile(ctx context.Context) error {
	f := forms.NewProfileForm(s.repos.Profiles, s.sess, s.log, nil)
	f.Load()
	d := f.Draft()
	s.printf("Current: %s / %s / %s\n", d.FullName, d.Phone, d.CompanyName)
	if !s.fill(profileFields, f.Set) {
		return nil
	}
	if err := f.Submit(ctx); err != nil {
		return err
	}
	s.println(okStyle.Render("Profile updated."))
	return nil
}

func (s *Shell) changePassword(ctx context.Context) error {
	f := forms.NewPasswordForm(s.sess, nil)
	pw, ok := s.prompt("New password")
	if !ok {
		return nil
	}
	confirm, ok := s.prompt("Confirm password")
	if !ok {
		return nil
	}
	_ = f.Set("password", pw)
	_ = f.Set("confirm_password", confirm)
	if err := f.Submit(ctx); err != nil {
		return err
	}
	s.println(okStyle.Render("Password changed."))
	return nil
}

// orderWizard creates an order, or replaces one when orderID is set.
// Lines are entered as "<sku> <quantity> [unit-price]" until 'done'.
func (s *Shell) orderWizard(ctx context.Context, orderID string) error {
	v := views.NewOrders(s.repos, s.log)
	if orderID == "" {
		v.Create()
	} else {
		v.Edit(orderID)
	}
	f := forms.NewOrderForm(s.repos, s.log, s.sess.UserID, v.FormSaved)
	if err := f.Open(ctx, v.Editing()); err != nil {
		return err
	}
	customers := f.Customers()
	products := f.Products()
	if len(customers) == 0 {
		s.println("No active customers. Use /new-customer first.")
		return nil
	}
	if len(products) == 0 {
		s.println("No active products. Use /new-product first.")
		return nil
	}

	draft := f.Draft()
	if orderID != "" {
		s.printf("Editing order %s (%d line(s), total %s €).\n", orderID, len(draft.Lines), f.Total().StringFixed(2))
	}

	s.println("Customers:")
	current := 0
	for i, c := range customers {
		marker := " "
		if c.ID == draft.CustomerID {
			marker = "*"
			current = i + 1
		}
		s.printf("  %s%2d. %s (%s)\n", marker, i+1, c.CompanyName, c.ContactName)
	}
	for {
		label := "Customer number"
		if current > 0 {
			label = fmt.Sprintf("Customer number [%d]", current)
		}
		raw, ok := s.prompt(label)
		if !ok {
			s.println("Order cancelled.")
			return nil
		}
		if raw == "" && current > 0 {
			break
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > len(customers) {
			s.println("  Invalid customer number.")
			continue
		}
		_ = f.Set("customer_id", customers[n-1].ID)
		break
	}

	bySKU := make(map[string]core.Product, len(products))
	for _, p := range products {
		bySKU[strings.ToUpper(p.SKU)] = p
	}

	s.println("Enter order lines. Type 'done' when finished, 'cancel' to abort.")
	s.println("Format per line: <sku> <quantity> [unit-price]")
	if orderID != "" {
		s.println("Entering any line replaces the existing lines; 'done' straight away keeps them.")
	}
	var lines []core.OrderLine
	for {
		s.printf("  Line %d: ", len(lines)+1)
		raw, more := s.readLine()
		if !more || strings.EqualFold(raw, "cancel") {
			s.println("Order cancelled.")
			return nil
		}
		if strings.EqualFold(raw, "done") {
			break
		}
		if raw == "" {
			continue
		}
		parts := strings.Fields(raw)
		if len(parts) < 2 {
			s.println("  Invalid format. Use: <sku> <quantity> [unit-price]")
			continue
		}
		p, found := bySKU[strings.ToUpper(parts[0])]
		if !found {
			s.printf("  Unknown SKU %q.\n", parts[0])
			continue
		}
		qty := forms.ParseInt(parts[1])
		if qty <= 0 {
			s.println("  Invalid quantity.")
			continue
		}
		price := p.SellingPrice
		if len(parts) >= 3 {
			v, err := decimal.NewFromString(parts[2])
			if err != nil || v.IsNegative() {
				s.println("  Invalid price.")
				continue
			}
			price = v
		}
		lines = append(lines, core.OrderLine{ProductID: p.ID, Quantity: qty, UnitPrice: price})
	}
	if len(lines) > 0 {
		d := f.Draft()
		d.Lines = lines
		f.SetDraft(d)
	}

	if raw, ok := s.prompt("Order date (YYYY-MM-DD, blank keeps " + f.Draft().OrderDate.Format(time.DateOnly) + ")"); !ok {
		s.println("Order cancelled.")
		return nil
	} else if raw != "" {
		if err := f.Set("order_date", raw); err != nil {
			return err
		}
	}
	if raw, ok := s.prompt("Status (draft/confirmed/processing/shipped/delivered/cancelled, blank keeps " + string(f.Draft().Status) + ")"); !ok {
		s.println("Order cancelled.")
		return nil
	} else if raw != "" {
		if !core.OrderStatus(raw).Valid() {
			return core.NewValidationError("status", "Statut invalide")
		}
		_ = f.Set("status", raw)
	}

	s.printf("Total: %s €\n", f.Total().StringFixed(2))
	if !s.confirm("Save order?") {
		s.println("Order not saved.")
		return nil
	}
	if err := f.Submit(ctx); err != nil {
		return err
	}
	if v.Editing() != "" {
		s.println(okStyle.Render("Order updated."))
	} else {
		s.println(okStyle.Render("Order created."))
	}
	printOrders(s.out, v.Visible(), v.Stats())
	return nil
}
