package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
type Product struct {
	ID            int64            `json:"id" gorm:"primaryKey"`
	Name          string           `json:"name" gorm:"size:200;not null"`
	SKU           string           `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	CategoryID    int64            `json:"categoryId" gorm:"index;not null"`
	LocationID    *int64           `json:"locationId,omitempty" gorm:"index"`
	PurchasePrice decimal.Decimal  `json:"purchasePrice" gorm:"type:decimal(18,2);not null"`
	SalePrice     decimal.Decimal  `json:"salePrice" gorm:"type:decimal(18,2);not null"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty" gorm:"type:decimal(18,2)"`
	Stock         int              `json:"stock" gorm:"not null;default:0"`
	Description   *string          `json:"description,omitempty" gorm:"type:text"`
	Status        EntityStatus     `json:"status" gorm:"index;not null;default:1"`
	CreatedAt     time.Time        `json:"createdAt" gorm:"index"`

	Category        *Category               `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Location        *Location               `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Images          []ProductImage          `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Specifications  []ProductSpecification  `json:"specifications,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants        []ProductVariant        `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	AttributeValues []ProductAttributeValue `json:"attributeValues,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// EffectivePrice is what the buyer pays when no variant override applies.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.SalePrice
}

// TotalStock adds variant stock to the base product stock.
func (p *Product) TotalStock() int {
	total := p.Stock
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// MainImageURL returns the first image by sort order, or "".
func (p *Product) MainImageURL() string {
	best := -1
	url := ""
	for _, img := range p.Images {
		if best == -1 || img.SortOrder < best {
			best = img.SortOrder
			url = img.ImageURL
		}
	}
	return url
}

type ProductImage struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	ProductID int64  `json:"productId" gorm:"index;not null"`
	ImageURL  string `json:"imageUrl" gorm:"size:500;not null"`
	SortOrder int    `json:"sortOrder"`
}

type ProductSpecification struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	ProductID int64  `json:"productId" gorm:"index;not null"`
	SpecKey   string `json:"key" gorm:"size:100;not null"`
	SpecValue string `json:"value" gorm:"size:500"`
}

// ProductVariant is the model for the 'product_variants' table
type ProductVariant struct {
	ID                 int64            `json:"id" gorm:"primaryKey"`
	ProductID          int64            `json:"productId" gorm:"uniqueIndex:idx_variant_combination;not null"`
	VariantCombination string           `json:"variantCombination" gorm:"size:255;uniqueIndex:idx_variant_combination;not null"` // JSON, e.g. {"Size":"L"}
	Stock              int              `json:"stock" gorm:"not null;default:0"`
	PriceOverride      *decimal.Decimal `json:"priceOverride,omitempty" gorm:"type:decimal(18,2)"`
	SKU                *string          `json:"sku,omitempty" gorm:"size:64"`
}

type ProductAttributeValue struct {
	ID          int64             `json:"id" gorm:"primaryKey"`
	ProductID   int64             `json:"productId" gorm:"index;not null"`
	AttributeID int64             `json:"attributeId" gorm:"not null"`
	Value       string            `json:"value" gorm:"size:500"`
	Attribute   *ProductAttribute `json:"attribute,omitempty" gorm:"foreignKey:AttributeID"`
}
