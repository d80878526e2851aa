package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shopwala/shopwala-golang/internal/chat"
)

const streamKeepAlive = 25 * time.Second

type OpenThreadInput struct {
	ProductID int64 `json:"productId" binding:"required"`
}

type SendMessageInput struct {
	Message string `json:"message" binding:"required"`
}

func threadParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread id"})
		return uuid.Nil, false
	}
	return id, true
}

// OpenThread returns the buyer's thread about a product, creating it on first
// contact.
func (h *Handlers) OpenThread(c *gin.Context) {
	var input OpenThreadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	thread, err := h.Chat.GetOrCreateThread(c.Request.Context(), input.ProductID, currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *Handlers) GetThreadMessages(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	user := currentUser(c)
	messages, err := h.Chat.Messages(c.Request.Context(), threadID, user.UserID, user.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handlers) SendMessage(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	user := currentUser(c)
	msg, err := h.Chat.Send(c.Request.Context(), threadID, user.UserID, input.Message, user.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handlers) MarkThreadRead(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	user := currentUser(c)
	if err := h.Chat.MarkRead(c.Request.Context(), threadID, user.UserID, user.IsAdmin()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUnreadCount answers for whichever side is asking.
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	user := currentUser(c)
	var (
		count int64
		err   error
	)
	if user.IsAdmin() {
		count, err = h.Chat.UnreadForAdmin(c.Request.Context())
	} else {
		count, err = h.Chat.UnreadForBuyer(c.Request.Context(), user.UserID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *Handlers) AdminListThreads(c *gin.Context) {
	threads, err := h.Chat.AdminThreads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

// StreamThread pushes new messages of a thread as Server-Sent Events until
// the client goes away.
func (h *Handlers) StreamThread(c *gin.Context) {
	threadID, ok := threadParam(c)
	if !ok {
		return
	}
	user := currentUser(c)
	if err := h.Chat.Authorize(c.Request.Context(), threadID, user.UserID, user.IsAdmin()); err != nil {
		respondError(c, err)
		return
	}

	sub := h.Hub.Subscribe(chat.ThreadGroup(threadID.String()))
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"threadId": threadID})
	c.Writer.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case msg, open := <-sub.C():
			if !open {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
