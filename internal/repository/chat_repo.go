package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

type ChatRepository struct {
	Store[models.ProductChatThread]
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{Store: NewStore[models.ProductChatThread](db)}
}

func (r *ChatRepository) FindThread(ctx context.Context, productID int64, buyerUserID string) (*models.ProductChatThread, error) {
	var t models.ProductChatThread
	err := r.Conn(ctx).Where("product_id = ? AND buyer_user_id = ?", productID, buyerUserID).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// ListMessages returns a thread's messages oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, threadID uuid.UUID) ([]models.ProductChatMessage, error) {
	var list []models.ProductChatMessage
	err := r.Conn(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *models.ProductChatMessage) error {
	return r.Conn(ctx).Create(m).Error
}

// MarkRead flags the messages written by the other side as read.
func (r *ChatRepository) MarkRead(ctx context.Context, threadID uuid.UUID, fromAdmin bool) error {
	return r.Conn(ctx).Model(&models.ProductChatMessage{}).
		Where("thread_id = ? AND is_from_admin = ? AND is_read = ?", threadID, fromAdmin, false).
		Update("is_read", true).Error
}

// CountUnreadFromBuyers counts messages admins have not read yet.
func (r *ChatRepository) CountUnreadFromBuyers(ctx context.Context) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.ProductChatMessage{}).
		Where("is_from_admin = ? AND is_read = ?", false, false).
		Count(&count).Error
	return count, err
}

// CountUnreadForBuyer counts admin replies the buyer has not read yet.
func (r *ChatRepository) CountUnreadForBuyer(ctx context.Context, buyerUserID string) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.ProductChatMessage{}).
		Joins("JOIN product_chat_threads t ON t.id = product_chat_messages.thread_id").
		Where("t.buyer_user_id = ? AND product_chat_messages.is_from_admin = ? AND product_chat_messages.is_read = ?", buyerUserID, true, false).
		Count(&count).Error
	return count, err
}

// ThreadUnread is a thread with the number of buyer messages admins have not read.
type ThreadUnread struct {
	Thread models.ProductChatThread
	Unread int64
}

// ListThreadsWithUnread returns every thread, newest first.
func (r *ChatRepository) ListThreadsWithUnread(ctx context.Context) ([]ThreadUnread, error) {
	var threads []models.ProductChatThread
	if err := r.Conn(ctx).Preload("Product").Order("created_at DESC").Find(&threads).Error; err != nil {
		return nil, err
	}

	type row struct {
		ThreadID uuid.UUID
		Unread   int64
	}
	var rows []row
	err := r.Conn(ctx).Model(&models.ProductChatMessage{}).
		Select("thread_id, COUNT(*) AS unread").
		Where("is_from_admin = ? AND is_read = ?", false, false).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	unread := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		unread[r.ThreadID] = r.Unread
	}

	out := make([]ThreadUnread, 0, len(threads))
	for _, t := range threads {
		out = append(out, ThreadUnread{Thread: t, Unread: unread[t.ID]})
	}
	return out, nil
}
