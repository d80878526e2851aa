package models

import (
	"fmt"
	"regexp"
	"strings"
)

// EntityStatus marks catalog rows as visible on the storefront or hidden.
type EntityStatus int

const (
	StatusInactive EntityStatus = 0
	StatusActive   EntityStatus = 1
)

func (s EntityStatus) String() string {
	if s == StatusActive {
		return "Active"
	}
	return "Inactive"
}

// OrderStatus is persisted as its integer value. The numbering is part of the
// schema, do not reorder.
type OrderStatus int

const (
	OrderPending         OrderStatus = 1
	OrderConfirmed       OrderStatus = 2
	OrderProcessing      OrderStatus = 3
	OrderAssignedToRider OrderStatus = 4
	OrderOutForDelivery  OrderStatus = 5
	OrderDelivered       OrderStatus = 6
	OrderCompleted       OrderStatus = 7
	OrderCancelled       OrderStatus = 8
	OrderReturned        OrderStatus = 9
	OrderFailedDelivery  OrderStatus = 10
)

var orderStatusNames = map[OrderStatus]string{
	OrderPending:         "Pending",
	OrderConfirmed:       "Confirmed",
	OrderProcessing:      "Processing",
	OrderAssignedToRider: "AssignedToRider",
	OrderOutForDelivery:  "OutForDelivery",
	OrderDelivered:       "Delivered",
	OrderCompleted:       "Completed",
	OrderCancelled:       "Cancelled",
	OrderReturned:        "Returned",
	OrderFailedDelivery:  "FailedDelivery",
}

// AllOrderStatuses lists every status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderPending, OrderConfirmed, OrderProcessing, OrderAssignedToRider,
		OrderOutForDelivery, OrderDelivered, OrderCompleted,
		OrderCancelled, OrderReturned, OrderFailedDelivery,
	}
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// DisplayName splits the status name into words, e.g. "Assigned To Rider".
func (s OrderStatus) DisplayName() string {
	return camelBoundary.ReplaceAllString(s.String(), "$1 $2")
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseOrderStatus accepts the status name (any case, spaces ignored) or its
// numeric value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	for status, name := range orderStatusNames {
		if strings.ToLower(name) == key || fmt.Sprint(int(status)) == key {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", raw)
}

// PaymentMethod is how the buyer settles the order.
type PaymentMethod int

const (
	PaymentCashOnDelivery PaymentMethod = 0
	PaymentCard           PaymentMethod = 1
	PaymentBankTransfer   PaymentMethod = 2
)

var paymentMethodNames = map[PaymentMethod]string{
	PaymentCashOnDelivery: "CashOnDelivery",
	PaymentCard:           "Card",
	PaymentBankTransfer:   "BankTransfer",
}

func (p PaymentMethod) Valid() bool {
	_, ok := paymentMethodNames[p]
	return ok
}

func (p PaymentMethod) String() string {
	if name, ok := paymentMethodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PaymentMethod(%d)", int(p))
}

func (p PaymentMethod) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid payment method %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *PaymentMethod) UnmarshalText(text []byte) error {
	key := strings.ToLower(strings.TrimSpace(string(text)))
	for method, name := range paymentMethodNames {
		if strings.ToLower(name) == key {
			*p = method
			return nil
		}
	}
	return fmt.Errorf("unknown payment method %q", string(text))
}

// AttributeFieldType drives how the admin form renders a category attribute.
type AttributeFieldType int

const (
	FieldText        AttributeFieldType = 0
	FieldNumber      AttributeFieldType = 1
	FieldDropdown    AttributeFieldType = 2
	FieldMultiSelect AttributeFieldType = 3
	FieldDate        AttributeFieldType = 4
)
