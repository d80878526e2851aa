package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shopwala/shopwala-golang/internal/service"
)

// --- Inputs ---

type VariantRequest struct {
	Combination   string           `json:"combination" binding:"required"`
	Stock         int              `json:"stock" binding:"gte=0"`
	PriceOverride *decimal.Decimal `json:"priceOverride"`
	SKU           *string          `json:"sku"`
}

// ProductRequest is the admin create/update body. Omitted collections are
// left as they are on update.
type ProductRequest struct {
	Name           string                     `json:"name" binding:"required"`
	SKU            string                     `json:"sku" binding:"required"`
	CategoryID     int64                      `json:"categoryId" binding:"required"`
	LocationID     *int64                     `json:"locationId"`
	PurchasePrice  decimal.Decimal            `json:"purchasePrice"`
	SalePrice      decimal.Decimal            `json:"salePrice"`
	DiscountPrice  *decimal.Decimal           `json:"discountPrice"`
	Stock          int                        `json:"stock" binding:"gte=0"`
	Description    *string                    `json:"description"`
	Active         *bool                      `json:"active"`
	Images         []string                   `json:"images"`
	Specifications []service.SpecificationDTO `json:"specifications"`
	Variants       []VariantRequest           `json:"variants" binding:"omitempty,dive"`
	Attributes     map[int64]string           `json:"attributes"`
}

func (r ProductRequest) toInput() service.ProductInput {
	in := service.ProductInput{
		Name:           r.Name,
		SKU:            r.SKU,
		CategoryID:     r.CategoryID,
		LocationID:     r.LocationID,
		PurchasePrice:  r.PurchasePrice,
		SalePrice:      r.SalePrice,
		DiscountPrice:  r.DiscountPrice,
		Stock:          r.Stock,
		Description:    r.Description,
		Status:         statusFromActive(r.Active),
		ImageURLs:      r.Images,
		Specifications: r.Specifications,
		Attributes:     r.Attributes,
	}
	if r.Variants != nil {
		in.Variants = make([]service.VariantInput, 0, len(r.Variants))
		for _, v := range r.Variants {
			in.Variants = append(in.Variants, service.VariantInput{
				Combination:   v.Combination,
				Stock:         v.Stock,
				PriceOverride: v.PriceOverride,
				SKU:           v.SKU,
			})
		}
	}
	return in
}

type SearchQuery struct {
	Q          string `form:"q"`
	CategoryID *int64 `form:"categoryId"`
	LocationID *int64 `form:"locationId"`
	MinPrice   string `form:"minPrice"`
	MaxPrice   string `form:"maxPrice"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

func parseDecimalParam(raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// --- Storefront ---

// SearchProducts handles GET /products/search.
func (h *Handlers) SearchProducts(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	minPrice, err := parseDecimalParam(q.MinPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minPrice"})
		return
	}
	maxPrice, err := parseDecimalParam(q.MaxPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxPrice"})
		return
	}

	result, err := h.Products.Search(c.Request.Context(), service.SearchParams{
		Term:       q.Q,
		CategoryID: q.CategoryID,
		LocationID: q.LocationID,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// maxBulkIDs bounds the ids honoured by one bulk lookup.
const maxBulkIDs = 50

// GetProductsBulk handles GET /products/bulk?ids=3,1,2 for recently viewed
// and compare lists. Unparseable ids are ignored and only the first
// maxBulkIDs ids are looked up.
func (h *Handlers) GetProductsBulk(c *gin.Context) {
	var ids []int64
	for _, part := range strings.Split(c.Query("ids"), ",") {
		if len(ids) == maxBulkIDs {
			break
		}
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	list, err := h.Products.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.Products.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	// Signed-in buyers also learn whether they saved it.
	if identity, ok := optionalUser(c); ok {
		saved, err := h.Wishlist.Contains(c.Request.Context(), identity.UserID, id)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"product": detail, "inWishlist": saved})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"product": detail})
}

// --- Admin ---

func (h *Handlers) AdminListProducts(c *gin.Context) {
	list, err := h.Products.ListForAdmin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) AdminGetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.Products.GetForAdmin(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handlers) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.Products.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.Products.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
