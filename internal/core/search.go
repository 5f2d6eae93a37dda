package core

import "strings"

// Matches reports whether term is a case-insensitive substring of any field.
// An empty term matches everything.
func Matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// SearchFields returns the text fields a list page filters on.
func (c Customer) SearchFields() []string {
	return []string{c.CompanyName, c.ContactName, Deref(c.Email)}
}

func (s Supplier) SearchFields() []string {
	return []string{s.Name, Deref(s.ContactPerson), Deref(s.Email)}
}

func (p Product) SearchFields() []string {
	return []string{p.Name, p.SKU}
}

func (i InventoryItem) SearchFields() []string {
	return []string{i.ProductName, i.ProductSKU}
}

func (o Order) SearchFields() []string {
	return []string{o.OrderNumber, Deref(o.CustomerName)}
}

// Searchable is implemented by records that list pages filter.
type Searchable interface {
	SearchFields() []string
}

// Filter returns the rows matching term, preserving order.
func Filter[T Searchable](rows []T, term string) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if Matches(term, r.SearchFields()...) {
			out = append(out, r)
		}
	}
	return out
}
