package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/service"
)

//
// --- Category Handlers ---
//

// ListCategories returns root categories, or the children of ?parentId=.
func (h *Handlers) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []models.Category
		err  error
	)
	if raw := c.Query("parentId"); raw != "" {
		parentID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parentId"})
			return
		}
		list, err = h.Categories.ListChildren(ctx, parentID)
	} else {
		list, err = h.Categories.ListRoots(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetCategoryTree(c *gin.Context) {
	tree, err := h.Categories.Tree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *Handlers) GetCategoryBySlug(c *gin.Context) {
	category, err := h.Categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetCategoryAttributes returns the attribute form for a category.
func (h *Handlers) GetCategoryAttributes(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	attrs, err := h.Products.AttributesForCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attrs)
}

// --- Admin ---

type CategoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *int64  `json:"parentId"`
	ImageURL *string `json:"imageUrl"`
	Active   *bool   `json:"active"`
}

func (r CategoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, ParentID: r.ParentID, ImageURL: r.ImageURL, Status: statusFromActive(r.Active)}
}

func (h *Handlers) AdminListCategories(c *gin.Context) {
	list, err := h.Categories.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) AdminGetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.Categories.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	attrs, err := h.Categories.Attributes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "attributes": attrs})
}

func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	category, err := h.Categories.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	category, err := h.Categories.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
