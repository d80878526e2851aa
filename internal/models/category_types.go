package models

import "time"

// Category defines the struct for the 'categories' table
type Category struct {
	ID        int64        `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"size:150;not null"`
	Slug      string       `json:"slug" gorm:"size:180;uniqueIndex;not null"`
	ParentID  *int64       `json:"parentId,omitempty" gorm:"index"` // Use pointer for NULL
	ImageURL  *string      `json:"imageUrl,omitempty" gorm:"size:500"`
	Status    EntityStatus `json:"status" gorm:"not null;default:1"`
	CreatedAt time.Time    `json:"createdAt"`

	// Virtual Field (Not in DB) - Used for constructing the Tree View in the UI
	Children   []Category          `json:"children,omitempty" gorm:"-"`
	Attributes []CategoryAttribute `json:"-" gorm:"foreignKey:CategoryID"`
}

// ProductAttribute is a reusable attribute definition (e.g. "Screen Size").
type ProductAttribute struct {
	ID         int64              `json:"id" gorm:"primaryKey"`
	Name       string             `json:"name" gorm:"size:100;not null"`
	FieldType  AttributeFieldType `json:"fieldType" gorm:"not null"`
	IsRequired bool               `json:"isRequired"`
	Options    []AttributeOption  `json:"options,omitempty" gorm:"foreignKey:AttributeID"`
}

type AttributeOption struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	AttributeID int64  `json:"attributeId" gorm:"index;not null"`
	Value       string `json:"value" gorm:"size:150;not null"`
}

// CategoryAttribute is the join row linking attributes to categories.
type CategoryAttribute struct {
	CategoryID  int64            `json:"categoryId" gorm:"primaryKey"`
	AttributeID int64            `json:"attributeId" gorm:"primaryKey"`
	Attribute   ProductAttribute `json:"attribute" gorm:"foreignKey:AttributeID"`
}
