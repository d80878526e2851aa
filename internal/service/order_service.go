package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/events"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

const (
	notePlaced            = "Order placed"
	noteCancelledCustomer = "Cancelled by customer"
	noteCancelledAdmin    = "Cancelled by admin"
	noteDelivered         = "Marked as delivered"
	noteRiderAssigned     = "Assigned to rider"
)

// CanTransition reports whether an order may move from one status to another.
//
// The main path Pending → Confirmed → Processing → AssignedToRider →
// OutForDelivery → Delivered → Completed only moves forward, skipping ahead is
// allowed. A failed delivery can be retried or returned, delivered orders can
// be returned, and anything not yet delivered or closed can be cancelled.
func CanTransition(from, to models.OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	switch from {
	case models.OrderCancelled, models.OrderReturned:
		return false
	case models.OrderFailedDelivery:
		return to == models.OrderOutForDelivery || to == models.OrderReturned || to == models.OrderCancelled
	}
	switch to {
	case models.OrderCancelled:
		return from != models.OrderDelivered && from != models.OrderCompleted
	case models.OrderReturned:
		return from == models.OrderDelivered || from == models.OrderCompleted
	case models.OrderFailedDelivery:
		return from == models.OrderAssignedToRider || from == models.OrderOutForDelivery
	}
	return onMainPath(from) && onMainPath(to) && to > from
}

func onMainPath(s models.OrderStatus) bool {
	return s >= models.OrderPending && s <= models.OrderCompleted
}

// buyerCancellable are the statuses a buyer may still cancel from.
func buyerCancellable(s models.OrderStatus) bool {
	return s == models.OrderPending || s == models.OrderConfirmed || s == models.OrderProcessing
}

// OrderInput carries the delivery details captured at checkout.
type OrderInput struct {
	ShippingAddress       string
	City                  string
	PhoneNumber           string
	PaymentMethod         models.PaymentMethod
	PreferredDeliveryTime *string
}

// OrderLine is one item to be ordered, with the price it is sold at.
type OrderLine struct {
	ProductID int64
	VariantID *int64
	Quantity  int
	Price     decimal.Decimal
}

// DeliveryInput describes the rider handling an order.
type DeliveryInput struct {
	DeliveryBoyName string
	PhoneNumber     string
	VehicleType     string
}

type OrderService struct {
	repo      *repository.OrderRepository
	products  *repository.ProductRepository
	uow       *database.UnitOfWork
	publisher events.Publisher
	now       func() time.Time
}

func NewOrderService(repo *repository.OrderRepository, products *repository.ProductRepository, uow *database.UnitOfWork, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &OrderService{
		repo:      repo,
		products:  products,
		uow:       uow,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a Pending order with its items and the first history row.
// Stock is not touched here; checkout reserves it in the same transaction.
func (s *OrderService) Create(ctx context.Context, userID string, in OrderInput, lines []OrderLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	total := decimal.Zero
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if l.Price.IsNegative() {
			return nil, invalid(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	order := &models.Order{
		UserID:                userID,
		Status:                models.OrderPending,
		TotalAmount:           total,
		ShippingAddress:       strings.TrimSpace(in.ShippingAddress),
		City:                  strings.TrimSpace(in.City),
		PhoneNumber:           strings.TrimSpace(in.PhoneNumber),
		PaymentMethod:         in.PaymentMethod,
		PreferredDeliveryTime: in.PreferredDeliveryTime,
	}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}
		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: l.ProductID,
				VariantID: l.VariantID,
				Quantity:  l.Quantity,
				Price:     l.Price,
			})
		}
		if err := s.repo.CreateItems(ctx, items); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, order.ID, models.OrderPending, userID, notePlaced); err != nil {
			return err
		}
		s.publish(ctx, events.OrderPlaced, events.OrderStatusPayload{
			OrderID:   order.ID,
			UserID:    userID,
			To:        models.OrderPending.String(),
			ChangedBy: userID,
			Notes:     notePlaced,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("order placed",
		zap.Int64("order", order.ID),
		zap.String("user", userID),
		zap.String("total", total.StringFixed(2)))
	return s.repo.GetFull(ctx, order.ID)
}

// Get loads an order. Buyers only see their own orders; for anyone else the
// order does not exist.
func (s *OrderService) Get(ctx context.Context, orderID int64, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.repo.GetFull(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrNotFound
	}
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll is the admin list, optionally narrowed to one status.
func (s *OrderService) ListAll(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("status", "unknown order status")
	}
	return s.repo.List(ctx, status)
}

// Cancel cancels an order and puts its items back in stock. Buyers may cancel
// their own orders until processing is over; admins may cancel anything not
// yet delivered or closed.
func (s *OrderService) Cancel(ctx context.Context, orderID int64, userID string, isAdmin bool, notes string) (*models.Order, error) {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !isAdmin && order.UserID != userID {
			return ErrNotFound
		}
		if !isAdmin && !buyerCancellable(order.Status) {
			return fmt.Errorf("order %d is %s: %w", orderID, order.Status.DisplayName(), ErrCannotCancel)
		}
		if !CanTransition(order.Status, models.OrderCancelled) {
			return fmt.Errorf("order %d is %s: %w", orderID, order.Status.DisplayName(), ErrCannotCancel)
		}

		if notes = strings.TrimSpace(notes); notes == "" {
			notes = noteCancelledCustomer
			if isAdmin {
				notes = noteCancelledAdmin
			}
		}
		if err := s.changeStatus(ctx, order, models.OrderCancelled, userID, notes); err != nil {
			return err
		}

		items, err := s.repo.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.products.IncrementStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetFull(ctx, orderID)
}

// UpdateStatus moves an order along its lifecycle on behalf of an admin.
// Cancelling through here also restores stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, adminID string, status models.OrderStatus, notes string) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown order status")
	}
	if status == models.OrderCancelled {
		return s.Cancel(ctx, orderID, adminID, true, notes)
	}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !CanTransition(order.Status, status) {
			return fmt.Errorf("%s to %s: %w", order.Status.DisplayName(), status.DisplayName(), ErrInvalidTransition)
		}
		if status == models.OrderDelivered {
			if err := s.stampDelivered(ctx, orderID); err != nil {
				return err
			}
		}
		return s.changeStatus(ctx, order, status, adminID, strings.TrimSpace(notes))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetFull(ctx, orderID)
}

// AssignDelivery records (or replaces) the rider for an order and moves it to
// AssignedToRider when that is a legal step from its current status.
func (s *OrderService) AssignDelivery(ctx context.Context, orderID int64, adminID string, in DeliveryInput) (*models.Order, error) {
	in.DeliveryBoyName = strings.TrimSpace(in.DeliveryBoyName)
	if in.DeliveryBoyName == "" {
		return nil, invalid("deliveryBoyName", "is required")
	}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if order.Status == models.OrderCancelled || order.Status == models.OrderReturned {
			return fmt.Errorf("order %d is %s: %w", orderID, order.Status.DisplayName(), ErrInvalidTransition)
		}

		assignment, err := s.repo.GetDelivery(ctx, orderID)
		if err != nil {
			if err != repository.ErrNotFound {
				return err
			}
			assignment = &models.DeliveryAssignment{OrderID: orderID}
		}
		assignment.DeliveryBoyName = in.DeliveryBoyName
		assignment.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		assignment.VehicleType = strings.TrimSpace(in.VehicleType)
		assignment.AssignedDate = s.now()
		if err := s.repo.SaveDelivery(ctx, assignment); err != nil {
			return err
		}

		if CanTransition(order.Status, models.OrderAssignedToRider) {
			note := noteRiderAssigned + ": " + in.DeliveryBoyName
			return s.changeStatus(ctx, order, models.OrderAssignedToRider, adminID, note)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetFull(ctx, orderID)
}

// MarkDelivered stamps the delivery date and moves the order to Delivered.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID int64, adminID string) (*models.Order, error) {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if !CanTransition(order.Status, models.OrderDelivered) {
			return fmt.Errorf("%s to %s: %w", order.Status.DisplayName(), models.OrderDelivered.DisplayName(), ErrInvalidTransition)
		}
		if err := s.stampDelivered(ctx, orderID); err != nil {
			return err
		}
		return s.changeStatus(ctx, order, models.OrderDelivered, adminID, noteDelivered)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetFull(ctx, orderID)
}

// UpdateDeliveryTime changes the buyer's preferred delivery slot. A blank
// value clears it.
func (s *OrderService) UpdateDeliveryTime(ctx context.Context, orderID int64, userID string, isAdmin bool, value string) (*models.Order, error) {
	order, err := s.Get(ctx, orderID, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderDelivered, models.OrderCompleted, models.OrderCancelled, models.OrderReturned:
		return nil, fmt.Errorf("order %d is %s: %w", orderID, order.Status.DisplayName(), ErrInvalidTransition)
	}
	var slot *string
	if value = strings.TrimSpace(value); value != "" {
		slot = &value
	}
	if err := s.repo.UpdateDeliveryTime(ctx, orderID, slot); err != nil {
		return nil, err
	}
	return s.repo.GetFull(ctx, orderID)
}

func (s *OrderService) stampDelivered(ctx context.Context, orderID int64) error {
	assignment, err := s.repo.GetDelivery(ctx, orderID)
	if err == repository.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	now := s.now()
	assignment.DeliveredDate = &now
	return s.repo.SaveDelivery(ctx, assignment)
}

// changeStatus writes the new status, appends history and queues the event.
func (s *OrderService) changeStatus(ctx context.Context, order *models.Order, to models.OrderStatus, changedBy, notes string) error {
	from := order.Status
	if err := s.repo.UpdateStatus(ctx, order.ID, to); err != nil {
		return err
	}
	if err := s.appendHistory(ctx, order.ID, to, changedBy, notes); err != nil {
		return err
	}
	order.Status = to

	s.publish(ctx, events.OrderStatusChanged, events.OrderStatusPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      from.String(),
		To:        to.String(),
		ChangedBy: changedBy,
		Notes:     notes,
	})
	zap.L().Info("order status changed",
		zap.Int64("order", order.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("by", changedBy))
	return nil
}

func (s *OrderService) appendHistory(ctx context.Context, orderID int64, status models.OrderStatus, changedBy, notes string) error {
	h := &models.OrderStatusHistory{
		OrderID:     orderID,
		Status:      status,
		ChangedDate: s.now(),
	}
	if changedBy != "" {
		h.ChangedByUserID = &changedBy
	}
	if notes != "" {
		h.Notes = &notes
	}
	return s.repo.AppendHistory(ctx, h)
}

// publish sends the event once the surrounding transaction commits. Broker
// failures are logged; the order change itself stands.
func (s *OrderService) publish(ctx context.Context, eventType string, payload events.OrderStatusPayload) {
	event := events.New(eventType, payload)
	database.AfterCommit(ctx, func() {
		if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			zap.L().Warn("order event publish failed",
				zap.String("type", eventType),
				zap.Int64("order", payload.OrderID),
				zap.Error(err))
		}
	})
}
