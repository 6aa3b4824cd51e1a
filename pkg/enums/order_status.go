package enums

import "fmt"

// OrderStatus tracks an order through the kitchen.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPreparing       OrderStatus = "preparing"
	OrderStatusDelivering      OrderStatus = "delivering"
	OrderStatusFinished        OrderStatus = "finished"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingPayment,
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusDelivering,
	OrderStatusFinished,
}

var nextOrderStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusPreparing,
	OrderStatusPreparing:  OrderStatusDelivering,
	OrderStatusDelivering: OrderStatusFinished,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Next returns the kitchen step that follows s. Awaiting payment and finished
// orders have no next step.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := nextOrderStatus[s]
	return next, ok
}

// InitialOrderStatus picks the status a freshly committed order starts in.
func InitialOrderStatus(method PaymentMethod) OrderStatus {
	if method == PaymentMethodPix {
		return OrderStatusAwaitingPayment
	}
	return OrderStatusPending
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
