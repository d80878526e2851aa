package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

type OrderRepository struct {
	Store[models.Order]
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{Store: NewStore[models.Order](db)}
}

func historyNewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("changed_date DESC, id DESC")
}

// GetFull loads items (with product and variant), history and delivery.
func (r *OrderRepository) GetFull(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	err := r.Conn(ctx).
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("StatusHistory", historyNewestFirst).
		Preload("DeliveryAssignment").
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var list []models.Order
	err := r.Conn(ctx).
		Preload("Items.Product").
		Preload("StatusHistory", historyNewestFirst).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// List returns every order, optionally filtered by status, newest first.
func (r *OrderRepository) List(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	q := r.Conn(ctx).Preload("Items")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var list []models.Order
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *OrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.Conn(ctx).Create(&items).Error
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.Conn(ctx).Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}

// UpdateStatus writes only the status column.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	return r.Conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *OrderRepository) UpdateDeliveryTime(ctx context.Context, id int64, value *string) error {
	return r.Conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("preferred_delivery_time", value).Error
}

// AppendHistory inserts a status history row. Rows are never updated.
func (r *OrderRepository) AppendHistory(ctx context.Context, h *models.OrderStatusHistory) error {
	return r.Conn(ctx).Create(h).Error
}

func (r *OrderRepository) GetDelivery(ctx context.Context, orderID int64) (*models.DeliveryAssignment, error) {
	var d models.DeliveryAssignment
	if err := r.Conn(ctx).Where("order_id = ?", orderID).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *OrderRepository) SaveDelivery(ctx context.Context, d *models.DeliveryAssignment) error {
	return r.Conn(ctx).Save(d).Error
}
