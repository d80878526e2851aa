package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/chat"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

const maxChatMessageLength = 2000

// AdminThread is one row of the admin chat inbox.
type AdminThread struct {
	ID          uuid.UUID `json:"id"`
	ProductID   int64     `json:"productId"`
	ProductName string    `json:"productName"`
	BuyerUserID string    `json:"buyerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	Unread      int64     `json:"unread"`
}

type ChatService struct {
	repo     *repository.ChatRepository
	products *repository.ProductRepository
	hub      *chat.Hub
	now      func() time.Time
}

func NewChatService(repo *repository.ChatRepository, products *repository.ProductRepository, hub *chat.Hub) *ChatService {
	return &ChatService{
		repo:     repo,
		products: products,
		hub:      hub,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateThread returns the buyer's thread about a product, opening one
// on first contact.
func (s *ChatService) GetOrCreateThread(ctx context.Context, productID int64, buyerUserID string) (*models.ProductChatThread, error) {
	thread, err := s.repo.FindThread(ctx, productID, buyerUserID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, notFound(err)
	}

	thread = &models.ProductChatThread{
		ID:          uuid.New(),
		ProductID:   productID,
		BuyerUserID: buyerUserID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, thread); err != nil {
		if database.IsDuplicateKey(err) {
			return s.repo.FindThread(ctx, productID, buyerUserID)
		}
		return nil, err
	}
	return thread, nil
}

// thread loads a thread the caller may access.
func (s *ChatService) thread(ctx context.Context, threadID uuid.UUID, userID string, isAdmin bool) (*models.ProductChatThread, error) {
	thread, err := s.repo.GetByID(ctx, threadID)
	if err != nil {
		return nil, notFound(err)
	}
	if !isAdmin && thread.BuyerUserID != userID {
		return nil, ErrForbidden
	}
	return thread, nil
}

// Messages returns the thread oldest first.
func (s *ChatService) Messages(ctx context.Context, threadID uuid.UUID, userID string, isAdmin bool) ([]models.ProductChatMessage, error) {
	if _, err := s.thread(ctx, threadID, userID, isAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, threadID)
}

// Authorize checks the caller may follow a thread's live stream.
func (s *ChatService) Authorize(ctx context.Context, threadID uuid.UUID, userID string, isAdmin bool) error {
	_, err := s.thread(ctx, threadID, userID, isAdmin)
	return err
}

// Send stores a message and pushes it to everyone following the thread.
func (s *ChatService) Send(ctx context.Context, threadID uuid.UUID, userID, text string, isAdmin bool) (*models.ProductChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message", "is required")
	}
	if utf8.RuneCountInString(text) > maxChatMessageLength {
		return nil, invalid("message", "is too long")
	}
	if _, err := s.thread(ctx, threadID, userID, isAdmin); err != nil {
		return nil, err
	}

	msg := &models.ProductChatMessage{
		ID:          uuid.New(),
		ThreadID:    threadID,
		UserID:      userID,
		Message:     text,
		IsFromAdmin: isAdmin,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if s.hub != nil {
		delivered := s.hub.Broadcast(chat.ThreadGroup(threadID.String()), *msg)
		zap.L().Debug("chat message broadcast", zap.Stringer("thread", threadID), zap.Int("delivered", delivered))
	}
	return msg, nil
}

// MarkRead marks what the other side wrote as read.
func (s *ChatService) MarkRead(ctx context.Context, threadID uuid.UUID, userID string, isAdmin bool) error {
	if _, err := s.thread(ctx, threadID, userID, isAdmin); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, threadID, !isAdmin)
}

func (s *ChatService) UnreadForAdmin(ctx context.Context) (int64, error) {
	return s.repo.CountUnreadFromBuyers(ctx)
}

func (s *ChatService) UnreadForBuyer(ctx context.Context, buyerUserID string) (int64, error) {
	return s.repo.CountUnreadForBuyer(ctx, buyerUserID)
}

// AdminThreads lists every thread, newest first, with unread buyer messages.
func (s *ChatService) AdminThreads(ctx context.Context) ([]AdminThread, error) {
	rows, err := s.repo.ListThreadsWithUnread(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AdminThread, 0, len(rows))
	for _, r := range rows {
		t := AdminThread{
			ID:          r.Thread.ID,
			ProductID:   r.Thread.ProductID,
			BuyerUserID: r.Thread.BuyerUserID,
			CreatedAt:   r.Thread.CreatedAt,
			Unread:      r.Unread,
		}
		if r.Thread.Product != nil {
			t.ProductName = r.Thread.Product.Name
		}
		out = append(out, t)
	}
	return out, nil
}
