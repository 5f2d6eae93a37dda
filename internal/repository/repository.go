// Package repository is the typed data access used by view-models and forms.
package repository

import "mbs-manager/internal/store"

// Set bundles every repository over one store client.
type Set struct {
	Profiles      ProfileRepository
	Catalog       CatalogRepository
	Customers     CustomerRepository
	Suppliers     SupplierRepository
	Orders        OrderRepository
	Notifications NotificationRepository
}

func New(client *store.Client) *Set {
	return &Set{
		Profiles:      NewProfileRepository(client),
		Catalog:       NewCatalogRepository(client),
		Customers:     NewCustomerRepository(client),
		Suppliers:     NewSupplierRepository(client),
		Orders:        NewOrderRepository(client),
		Notifications: NewNotificationRepository(client),
	}
}
