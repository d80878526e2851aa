package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

type WishlistRepository struct {
	Store[models.WishlistItem]
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{Store: NewStore[models.WishlistItem](db)}
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var list []models.WishlistItem
	err := r.Conn(ctx).
		Preload("Product.Category").
		Preload("Product.Images", orderedImages).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *WishlistRepository) Find(ctx context.Context, userID string, productID int64) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.Conn(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// ProductIDs returns the subset of productIDs the user has saved.
func (r *WishlistRepository) ProductIDs(ctx context.Context, userID string, productIDs []int64) ([]int64, error) {
	var ids []int64
	if len(productIDs) == 0 {
		return ids, nil
	}
	err := r.Conn(ctx).Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Pluck("product_id", &ids).Error
	return ids, err
}
