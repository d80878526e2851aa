package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

// CartLine is one row of the cart page.
type CartLine struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	VariantID   *int64          `json:"variantId,omitempty"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Variant     string          `json:"variant,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	InStock     int             `json:"inStock"`
	IsAvailable bool            `json:"isAvailable"`
}

type CartView struct {
	Items []CartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type CartService struct {
	repo     *repository.CartRepository
	products *repository.ProductRepository
	uow      *database.UnitOfWork
	cache    cache.Cache
	ttl      time.Duration
}

func NewCartService(repo *repository.CartRepository, products *repository.ProductRepository, uow *database.UnitOfWork, c cache.Cache, ttl time.Duration) *CartService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CartService{repo: repo, products: products, uow: uow, cache: c, ttl: ttl}
}

func cartCountKey(userID string) string {
	return "cart:count:" + userID
}

func toCartLine(item *models.CartItem) CartLine {
	line := CartLine{
		ID:        item.ID,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice(),
		InStock:   item.AvailableStock(),
	}
	line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	if item.Product != nil {
		line.Name = item.Product.Name
		line.SKU = item.Product.SKU
		line.ImageURL = item.Product.MainImageURL()
		line.IsAvailable = item.Product.Status == models.StatusActive && line.InStock >= item.Quantity
	}
	if item.Variant != nil {
		line.Variant = item.Variant.VariantCombination
	}
	return line
}

// Get returns the user's cart with resolved prices.
func (s *CartService) Get(ctx context.Context, userID string) (*CartView, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for i := range items {
		line := toCartLine(&items[i])
		view.Items = append(view.Items, line)
		view.Count += line.Quantity
		view.Total = view.Total.Add(line.LineTotal)
	}
	return view, nil
}

// Count is the sum of quantities across the cart.
func (s *CartService) Count(ctx context.Context, userID string) (int, error) {
	var count int
	if ok, err := s.cache.Get(ctx, cartCountKey(userID), &count); err == nil && ok {
		return count, nil
	}
	count, err := s.repo.SumQuantity(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, cartCountKey(userID), count, s.ttl); err != nil {
		zap.L().Warn("cart count cache write failed", zap.String("user", userID), zap.Error(err))
	}
	return count, nil
}

// Add puts qty of a product (or one of its variants) into the cart. An
// existing line for the same product and variant is incremented.
func (s *CartService) Add(ctx context.Context, userID string, productID int64, variantID *int64, qty int) (*CartLine, error) {
	if qty <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}
	var lineID int64
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return notFound(err)
		}
		if product.Status != models.StatusActive {
			return fmt.Errorf("product %d is inactive: %w", productID, ErrNotFound)
		}
		available := product.Stock
		if variantID != nil {
			variant, err := s.products.GetVariant(ctx, productID, *variantID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return invalid("variantId", "variant does not belong to the product")
				}
				return err
			}
			available = variant.Stock
		}

		existing, err := s.repo.FindLine(ctx, userID, productID, variantID)
		switch {
		case err == nil:
			total := existing.Quantity + qty
			if total > available {
				return fmt.Errorf("requested %d, %d available: %w", total, available, ErrInsufficientStock)
			}
			lineID = existing.ID
			return s.repo.UpdateQuantity(ctx, existing.ID, total)
		case errors.Is(err, repository.ErrNotFound):
			if qty > available {
				return fmt.Errorf("requested %d, %d available: %w", qty, available, ErrInsufficientStock)
			}
			item := &models.CartItem{UserID: userID, ProductID: productID, VariantID: variantID, Quantity: qty}
			if err := s.repo.Create(ctx, item); err != nil {
				return err
			}
			lineID = item.ID
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return s.line(ctx, userID, lineID)
}

// UpdateQuantity sets the quantity of a line the user owns.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID int64, qty int) (*CartLine, error) {
	if qty <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUser(ctx, userID, itemID)
		if err != nil {
			return notFound(err)
		}
		if available := item.AvailableStock(); qty > available {
			return fmt.Errorf("requested %d, %d available: %w", qty, available, ErrInsufficientStock)
		}
		return s.repo.UpdateQuantity(ctx, itemID, qty)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return s.line(ctx, userID, itemID)
}

func (s *CartService) Remove(ctx context.Context, userID string, itemID int64) error {
	item, err := s.repo.GetForUser(ctx, userID, itemID)
	if err != nil {
		return notFound(err)
	}
	if err := s.repo.Conn(ctx).Delete(&models.CartItem{}, "id = ?", item.ID).Error; err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *CartService) line(ctx context.Context, userID string, itemID int64) (*CartLine, error) {
	item, err := s.repo.GetForUser(ctx, userID, itemID)
	if err != nil {
		return nil, notFound(err)
	}
	line := toCartLine(item)
	return &line, nil
}

// invalidateCartCounts drops cached counts of userIDs once the surrounding
// transaction commits.
func invalidateCartCounts(ctx context.Context, c cache.Cache, userIDs []string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cartCountKey(id))
	}
	database.AfterCommit(ctx, func() {
		if err := c.Delete(context.WithoutCancel(ctx), keys...); err != nil {
			zap.L().Warn("cart count cache invalidation failed", zap.Strings("users", userIDs), zap.Error(err))
		}
	})
}

func (s *CartService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cartCountKey(userID)); err != nil {
		zap.L().Warn("cart count cache invalidation failed", zap.String("user", userID), zap.Error(err))
	}
}
