package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the model for the 'orders' table
type Order struct {
	ID                    int64           `json:"id" gorm:"primaryKey"`
	UserID                string          `json:"userId" gorm:"size:64;index;not null"` // The buyer
	Status                OrderStatus     `json:"status" gorm:"index;not null"`
	TotalAmount           decimal.Decimal `json:"totalAmount" gorm:"type:decimal(18,2);not null"`
	ShippingAddress       string          `json:"shippingAddress" gorm:"size:500;not null"`
	City                  string          `json:"city" gorm:"size:100;not null"`
	PhoneNumber           string          `json:"phoneNumber" gorm:"size:32"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod" gorm:"not null;default:0"`
	PreferredDeliveryTime *string         `json:"preferredDeliveryTime,omitempty" gorm:"size:100"`
	CreatedAt             time.Time       `json:"createdAt" gorm:"index"`

	Items              []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory      []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveryAssignment *DeliveryAssignment  `json:"deliveryAssignment,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is the model for the 'order_items' table
type OrderItem struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	OrderID   int64           `json:"orderId" gorm:"index;not null"`
	ProductID int64           `json:"productId" gorm:"index;not null"`
	VariantID *int64          `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(18,2);not null"` // Price at the time of purchase

	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// OrderStatusHistory rows are append-only.
type OrderStatusHistory struct {
	ID              int64       `json:"id" gorm:"primaryKey"`
	OrderID         int64       `json:"orderId" gorm:"index;not null"`
	Status          OrderStatus `json:"status" gorm:"not null"`
	ChangedByUserID *string     `json:"changedByUserId,omitempty" gorm:"size:64"`
	ChangedDate     time.Time   `json:"changedDate" gorm:"not null"`
	Notes           *string     `json:"notes,omitempty" gorm:"size:500"`
}

// DeliveryAssignment records the rider handling an order.
type DeliveryAssignment struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	OrderID         int64      `json:"orderId" gorm:"uniqueIndex;not null"`
	DeliveryBoyName string     `json:"deliveryBoyName" gorm:"size:150;not null"`
	PhoneNumber     string     `json:"phoneNumber" gorm:"size:32"`
	VehicleType     string     `json:"vehicleType" gorm:"size:50"`
	AssignedDate    time.Time  `json:"assignedDate"`
	DeliveredDate   *time.Time `json:"deliveredDate,omitempty"`
}
