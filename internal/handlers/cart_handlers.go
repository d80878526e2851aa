package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers (Buyer) ---
//

type AddToCartInput struct {
	ProductID int64  `json:"productId" binding:"required"`
	VariantID *int64 `json:"variantId"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *Handlers) GetCart(c *gin.Context) {
	view, err := h.Cart.Get(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetCartCount feeds the header badge.
func (h *Handlers) GetCartCount(c *gin.Context) {
	count, err := h.Cart.Count(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	line, err := h.Cart.Add(c.Request.Context(), currentUser(c).UserID, input.ProductID, input.VariantID, input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *Handlers) UpdateCartItem(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	line, err := h.Cart.UpdateQuantity(c.Request.Context(), currentUser(c).UserID, itemID, input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *Handlers) RemoveCartItem(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.Cart.Remove(c.Request.Context(), currentUser(c).UserID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.Cart.Clear(c.Request.Context(), currentUser(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
