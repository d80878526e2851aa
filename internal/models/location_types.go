package models

import "github.com/shopspring/decimal"

// Location is an N-level region (Country → Province → City → Area).
// FullPath caches the ancestor names joined by ", ", root first.
type Location struct {
	ID           int64            `json:"id" gorm:"primaryKey"`
	Name         string           `json:"name" gorm:"size:150;not null"`
	ParentID     *int64           `json:"parentId,omitempty" gorm:"index"`
	FullPath     *string          `json:"fullPath,omitempty" gorm:"size:1000"`
	Latitude     *decimal.Decimal `json:"latitude,omitempty" gorm:"type:decimal(10,7)"`
	Longitude    *decimal.Decimal `json:"longitude,omitempty" gorm:"type:decimal(10,7)"`
	DisplayOrder int              `json:"displayOrder"`
}

// PathOrName falls back to Name while FullPath has not been computed.
func (l *Location) PathOrName() string {
	if l.FullPath != nil && *l.FullPath != "" {
		return *l.FullPath
	}
	return l.Name
}
