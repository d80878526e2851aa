package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem defines the struct for the 'cart_items' table.
// There is one row per (user, product, variant).
type CartItem struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"size:64;index:idx_cart_line;not null"`
	ProductID int64     `json:"productId" gorm:"index:idx_cart_line;not null"`
	VariantID *int64    `json:"variantId,omitempty" gorm:"index:idx_cart_line"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// UnitPrice resolves variant override, then discount, then sale price.
// Product (and Variant when set) must be preloaded.
func (ci *CartItem) UnitPrice() decimal.Decimal {
	if ci.Variant != nil && ci.Variant.PriceOverride != nil {
		return *ci.Variant.PriceOverride
	}
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.EffectivePrice()
}

// AvailableStock is the stock the line draws from.
func (ci *CartItem) AvailableStock() int {
	if ci.Variant != nil {
		return ci.Variant.Stock
	}
	if ci.Product == nil {
		return 0
	}
	return ci.Product.Stock
}

// WishlistItem defines the struct for the 'wishlist_items' table
type WishlistItem struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"size:64;uniqueIndex:idx_wishlist_user_product;not null"`
	ProductID int64     `json:"productId" gorm:"uniqueIndex:idx_wishlist_user_product;not null"`
	CreatedAt time.Time `json:"createdAt"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
