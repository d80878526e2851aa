package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

type CartRepository struct {
	Store[models.CartItem]
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{Store: NewStore[models.CartItem](db)}
}

// ListByUser returns the user's cart lines with product, images and variant,
// newest first.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	var list []models.CartItem
	err := r.Conn(ctx).
		Preload("Product.Images", orderedImages).
		Preload("Product.Category").
		Preload("Variant").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&list).Error
	return list, err
}

// FindLine returns the row for (user, product, variant), treating a nil
// variant as "no variant".
func (r *CartRepository) FindLine(ctx context.Context, userID string, productID int64, variantID *int64) (*models.CartItem, error) {
	q := r.Conn(ctx).Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	var item models.CartItem
	if err := q.First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// GetForUser loads one line owned by userID with product and variant.
func (r *CartRepository) GetForUser(ctx context.Context, userID string, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.Conn(ctx).
		Preload("Product.Images", orderedImages).
		Preload("Variant").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// SumQuantity is the badge count shown next to the cart icon.
func (r *CartRepository) SumQuantity(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.Conn(ctx).Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	return r.Conn(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// UpdateQuantity writes only the quantity column.
func (r *CartRepository) UpdateQuantity(ctx context.Context, itemID int64, qty int) error {
	return r.Conn(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", qty).Error
}
