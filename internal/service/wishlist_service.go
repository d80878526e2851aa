package service

import (
	"context"
	"errors"

	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

type WishlistService struct {
	repo     *repository.WishlistRepository
	products *repository.ProductRepository
}

func NewWishlistService(repo *repository.WishlistRepository, products *repository.ProductRepository) *WishlistService {
	return &WishlistService{repo: repo, products: products}
}

// List returns the saved products, most recently saved first.
func (s *WishlistService) List(ctx context.Context, userID string) ([]ProductSummary, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(items))
	for _, item := range items {
		if item.Product == nil || item.Product.Status != models.StatusActive {
			continue
		}
		out = append(out, toSummary(item.Product))
	}
	return out, nil
}

// Add saves a product. Saving it twice is a no-op.
func (s *WishlistService) Add(ctx context.Context, userID string, productID int64) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return notFound(err)
	}
	if _, err := s.repo.Find(ctx, userID, productID); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	err := s.repo.Create(ctx, &models.WishlistItem{UserID: userID, ProductID: productID})
	if database.IsDuplicateKey(err) {
		return nil
	}
	return err
}

func (s *WishlistService) Remove(ctx context.Context, userID string, productID int64) error {
	item, err := s.repo.Find(ctx, userID, productID)
	if err != nil {
		return notFound(err)
	}
	return s.repo.Delete(ctx, item)
}

func (s *WishlistService) Contains(ctx context.Context, userID string, productID int64) (bool, error) {
	_, err := s.repo.Find(ctx, userID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Toggle flips the saved state and reports the new one.
func (s *WishlistService) Toggle(ctx context.Context, userID string, productID int64) (bool, error) {
	saved, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if saved {
		return false, s.Remove(ctx, userID, productID)
	}
	return true, s.Add(ctx, userID, productID)
}

// Saved returns which of productIDs the user has saved, for listing badges.
func (s *WishlistService) Saved(ctx context.Context, userID string, productIDs []int64) (map[int64]bool, error) {
	ids, err := s.repo.ProductIDs(ctx, userID, productIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
