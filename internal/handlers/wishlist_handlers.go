package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetWishlist(c *gin.Context) {
	list, err := h.Wishlist.List(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) AddToWishlist(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	if err := h.Wishlist.Add(c.Request.Context(), currentUser(c).UserID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inWishlist": true})
}

func (h *Handlers) RemoveFromWishlist(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	if err := h.Wishlist.Remove(c.Request.Context(), currentUser(c).UserID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleWishlist flips the heart icon and returns the new state.
func (h *Handlers) ToggleWishlist(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	saved, err := h.Wishlist.Toggle(c.Request.Context(), currentUser(c).UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inWishlist": saved})
}
