package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductChatThread is one conversation per (product, buyer).
type ProductChatThread struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ProductID   int64     `json:"productId" gorm:"uniqueIndex:idx_thread_product_buyer;not null"`
	BuyerUserID string    `json:"buyerUserId" gorm:"size:64;uniqueIndex:idx_thread_product_buyer;not null"`
	CreatedAt   time.Time `json:"createdAt"`

	Product  *Product             `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Messages []ProductChatMessage `json:"messages,omitempty" gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE"`
}

type ProductChatMessage struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ThreadID    uuid.UUID `json:"threadId" gorm:"type:char(36);index;not null"`
	UserID      string    `json:"userId" gorm:"size:64;not null"`
	Message     string    `json:"message" gorm:"type:text;not null"`
	IsFromAdmin bool      `json:"isFromAdmin"`
	IsRead      bool      `json:"isRead" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}
