package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/service"
)

// PlaceOrderInput is the checkout form. paymentMethod is a name such as
// "CashOnDelivery" and defaults to cash on delivery.
type PlaceOrderInput struct {
	ShippingAddress       string                `json:"shippingAddress" binding:"required"`
	City                  string                `json:"city" binding:"required"`
	PhoneNumber           string                `json:"phoneNumber" binding:"required"`
	PaymentMethod         *models.PaymentMethod `json:"paymentMethod"`
	PreferredDeliveryTime *string               `json:"preferredDeliveryTime"`
}

func (h *Handlers) GetCheckout(c *gin.Context) {
	preview, err := h.Checkout.Preview(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *Handlers) PlaceOrder(c *gin.Context) {
	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	in := service.OrderInput{
		ShippingAddress:       input.ShippingAddress,
		City:                  input.City,
		PhoneNumber:           input.PhoneNumber,
		PaymentMethod:         models.PaymentCashOnDelivery,
		PreferredDeliveryTime: input.PreferredDeliveryTime,
	}
	if input.PaymentMethod != nil {
		in.PaymentMethod = *input.PaymentMethod
	}

	order, err := h.Checkout.PlaceOrder(c.Request.Context(), currentUser(c).UserID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
