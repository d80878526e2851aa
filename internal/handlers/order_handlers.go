package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/service"
)

type CancelOrderInput struct {
	Notes string `json:"notes"`
}

type DeliveryTimeInput struct {
	PreferredDeliveryTime string `json:"preferredDeliveryTime"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type AssignDeliveryInput struct {
	DeliveryBoyName string `json:"deliveryBoyName" binding:"required"`
	PhoneNumber     string `json:"phoneNumber"`
	VehicleType     string `json:"vehicleType"`
}

//
// --- Buyer ---
//

func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListForUser(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder serves both buyers (own orders only) and admins.
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	order, err := h.Orders.Get(c.Request.Context(), id, user.UserID, user.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder is shared by buyers and admins; the service applies the rules
// for each role.
func (h *Handlers) CancelOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input CancelOrderInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
	}
	user := currentUser(c)
	order, err := h.Orders.Cancel(c.Request.Context(), id, user.UserID, user.IsAdmin(), input.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handlers) UpdateDeliveryTime(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input DeliveryTimeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	user := currentUser(c)
	order, err := h.Orders.UpdateDeliveryTime(c.Request.Context(), id, user.UserID, user.IsAdmin(), input.PreferredDeliveryTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

//
// --- Admin ---
//

type orderStatusOption struct {
	Value models.OrderStatus `json:"value"`
	Code  int                `json:"code"`
	Label string             `json:"label"`
}

// ListOrderStatuses feeds the admin status dropdown.
func (h *Handlers) ListOrderStatuses(c *gin.Context) {
	statuses := models.AllOrderStatuses()
	out := make([]orderStatusOption, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, orderStatusOption{Value: s, Code: int(s), Label: s.DisplayName()})
	}
	c.JSON(http.StatusOK, out)
}

// AdminListOrders handles GET /admin/orders?status=Pending.
func (h *Handlers) AdminListOrders(c *gin.Context) {
	var filter *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter = &status
	}
	orders, err := h.Orders.ListAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	status, err := models.ParseOrderStatus(input.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, currentUser(c).UserID, status, input.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handlers) AssignDelivery(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input AssignDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.Orders.AssignDelivery(c.Request.Context(), id, currentUser(c).UserID, service.DeliveryInput{
		DeliveryBoyName: input.DeliveryBoyName,
		PhoneNumber:     input.PhoneNumber,
		VehicleType:     input.VehicleType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handlers) MarkOrderDelivered(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.MarkDelivered(c.Request.Context(), id, currentUser(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
