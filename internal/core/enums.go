package core

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleSales     Role = "sales"
	RoleWarehouse Role = "warehouse"
)

// DefaultRole is assigned at sign-up when none is chosen.
const DefaultRole = RoleSales

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales, RoleWarehouse:
		return true
	}
	return false
}

type UnitType string

const (
	UnitBottle UnitType = "bottle"
	UnitCase   UnitType = "case"
	UnitPallet UnitType = "pallet"
)

func (u UnitType) Valid() bool {
	switch u {
	case UnitBottle, UnitCase, UnitPallet:
		return true
	}
	return false
}

type CustomerType string

const (
	CustomerRestaurant CustomerType = "restaurant"
	CustomerHotel      CustomerType = "hotel"
	CustomerBar        CustomerType = "bar"
	CustomerRetail     CustomerType = "retail"
	CustomerOther      CustomerType = "other"
)

// CustomerTypes lists every customer type in display order.
var CustomerTypes = []CustomerType{CustomerRestaurant, CustomerHotel, CustomerBar, CustomerRetail, CustomerOther}

func (c CustomerType) Valid() bool {
	for _, t := range CustomerTypes {
		if c == t {
			return true
		}
	}
	return false
}

type OrderStatus string

const (
	OrderDraft      OrderStatus = "draft"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{OrderDraft, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// InProgress reports whether the order is confirmed but not yet delivered.
func (s OrderStatus) InProgress() bool {
	return s == OrderConfirmed || s == OrderProcessing || s == OrderShipped
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func (n NotificationType) Valid() bool {
	switch n {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}
