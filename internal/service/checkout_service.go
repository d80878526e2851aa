package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\- ]{6,19}$`)

// CheckoutPreview is what the buyer reviews before placing the order.
type CheckoutPreview struct {
	Cart           *CartView              `json:"cart"`
	DeliveryCities []string               `json:"deliveryCities"`
	PaymentMethods []models.PaymentMethod `json:"paymentMethods"`
}

type CheckoutService struct {
	cart     *CartService
	orders   *OrderService
	cartRepo *repository.CartRepository
	products *repository.ProductRepository
	uow      *database.UnitOfWork
	cities   []string
}

func NewCheckoutService(cart *CartService, orders *OrderService, cartRepo *repository.CartRepository, products *repository.ProductRepository, uow *database.UnitOfWork, deliveryCities []string) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		orders:   orders,
		cartRepo: cartRepo,
		products: products,
		uow:      uow,
		cities:   deliveryCities,
	}
}

func (s *CheckoutService) Preview(ctx context.Context, userID string) (*CheckoutPreview, error) {
	view, err := s.cart.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, ErrEmptyCart
	}
	return &CheckoutPreview{
		Cart:           view,
		DeliveryCities: s.cities,
		PaymentMethods: []models.PaymentMethod{models.PaymentCashOnDelivery, models.PaymentCard, models.PaymentBankTransfer},
	}, nil
}

// validate checks the delivery details and returns the city spelled the way
// it is configured.
func (s *CheckoutService) validate(in *OrderInput) error {
	v := &ValidationError{}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		v.Add("shippingAddress", "is required")
	}
	phone := strings.TrimSpace(in.PhoneNumber)
	switch {
	case phone == "":
		v.Add("phoneNumber", "is required")
	case !phonePattern.MatchString(phone):
		v.Add("phoneNumber", "is not a valid phone number")
	}
	city, ok := s.deliveryCity(in.City)
	if !ok {
		v.Add("city", "we currently deliver only to "+strings.Join(s.cities, ", "))
	}
	in.City = city
	if !in.PaymentMethod.Valid() {
		v.Add("paymentMethod", "is not supported")
	}
	return v.OrNil()
}

func (s *CheckoutService) deliveryCity(city string) (string, bool) {
	city = strings.TrimSpace(city)
	for _, c := range s.cities {
		if strings.EqualFold(c, city) {
			return c, true
		}
	}
	return city, false
}

// PlaceOrder turns the cart into an order. Stock is taken with a guarded
// update per line, so concurrent checkouts can never oversell; if any line
// falls short nothing is written.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, in OrderInput) (*models.Order, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	var orderID int64
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		items, err := s.cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		lines := make([]OrderLine, 0, len(items))
		for i := range items {
			item := &items[i]
			if item.Product == nil || item.Product.Status != models.StatusActive {
				return fmt.Errorf("product %d is no longer available: %w", item.ProductID, ErrInsufficientStock)
			}
			ok, err := s.products.DecrementStock(ctx, item.ProductID, item.VariantID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: only %d left: %w", item.Product.Name, item.AvailableStock(), ErrInsufficientStock)
			}
			lines = append(lines, OrderLine{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				Price:     item.UnitPrice(),
			})
		}

		order, err := s.orders.Create(ctx, userID, in, lines)
		if err != nil {
			return err
		}
		orderID = order.ID
		if err := s.cartRepo.Clear(ctx, userID); err != nil {
			return err
		}
		database.AfterCommit(ctx, func() { s.cart.invalidate(ctx, userID) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, orderID, userID, false)
}
