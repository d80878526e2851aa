package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shopwala/shopwala-golang/internal/service"
)

type LocationRequest struct {
	Name         string           `json:"name" binding:"required"`
	ParentID     *int64           `json:"parentId"`
	Latitude     *decimal.Decimal `json:"latitude"`
	Longitude    *decimal.Decimal `json:"longitude"`
	DisplayOrder int              `json:"displayOrder"`
}

func (r LocationRequest) toInput() service.LocationInput {
	return service.LocationInput{
		Name:         r.Name,
		ParentID:     r.ParentID,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		DisplayOrder: r.DisplayOrder,
	}
}

func (h *Handlers) ListRootLocations(c *gin.Context) {
	list, err := h.Locations.Roots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListChildLocations drives the cascading location picker.
func (h *Handlers) ListChildLocations(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.Locations.Children(c.Request.Context(), &id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	loc, err := h.Locations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *Handlers) SearchLocations(c *gin.Context) {
	list, err := h.Locations.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListLocationsWithProducts feeds the storefront location filter.
func (h *Handlers) ListLocationsWithProducts(c *gin.Context) {
	list, err := h.Locations.WithProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- Admin ---

func (h *Handlers) CreateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	loc, err := h.Locations.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func (h *Handlers) UpdateLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	loc, err := h.Locations.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *Handlers) DeleteLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Locations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
