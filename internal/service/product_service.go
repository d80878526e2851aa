package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBulkIDs      = 100
)

// ProductSummary is the card shown in listings.
type ProductSummary struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku"`
	CategoryName  string           `json:"categoryName"`
	SalePrice     decimal.Decimal  `json:"salePrice"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	Stock         int              `json:"stock"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	LocationName  string           `json:"locationName,omitempty"`
}

type SpecificationDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AttributeValueDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type VariantDTO struct {
	ID            int64            `json:"id"`
	Combination   string           `json:"combination"`
	Stock         int              `json:"stock"`
	PriceOverride *decimal.Decimal `json:"priceOverride,omitempty"`
	SKU           *string          `json:"sku,omitempty"`
}

// ProductDetail is the storefront product page.
type ProductDetail struct {
	ProductSummary
	CategoryID     int64               `json:"categoryId"`
	Description    *string             `json:"description,omitempty"`
	Images         []string            `json:"images"`
	Attributes     []AttributeValueDTO `json:"attributes"`
	Specifications []SpecificationDTO  `json:"specifications"`
	Variants       []VariantDTO        `json:"variants"`
	Location       *LocationWithPath   `json:"location,omitempty"`
}

// SearchParams are the storefront search inputs. Page is 1-based.
type SearchParams struct {
	Term       string
	CategoryID *int64
	LocationID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Page       int
	PageSize   int
}

type SearchResult struct {
	Items    []ProductSummary `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type VariantInput struct {
	Combination   string
	Stock         int
	PriceOverride *decimal.Decimal
	SKU           *string
}

// ProductInput is used for create and update. Nil collections are left
// untouched on update; non-nil ones replace what is stored.
type ProductInput struct {
	Name           string
	SKU            string
	CategoryID     int64
	LocationID     *int64
	PurchasePrice  decimal.Decimal
	SalePrice      decimal.Decimal
	DiscountPrice  *decimal.Decimal
	Stock          int
	Description    *string
	Status         *models.EntityStatus // nil keeps the stored status
	ImageURLs      []string
	Specifications []SpecificationDTO
	Variants       []VariantInput
	Attributes     map[int64]string
}

type ProductService struct {
	repo       *repository.ProductRepository
	categories *CategoryService
	locations  *LocationService
	uow        *database.UnitOfWork
	cache      cache.Cache
}

// NewProductService takes the cache shared with the cart so product edits
// can drop the cart counts they change.
func NewProductService(repo *repository.ProductRepository, categories *CategoryService, locations *LocationService, uow *database.UnitOfWork, c cache.Cache) *ProductService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProductService{repo: repo, categories: categories, locations: locations, uow: uow, cache: c}
}

func toSummary(p *models.Product) ProductSummary {
	s := ProductSummary{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		SalePrice:     p.SalePrice,
		DiscountPrice: p.DiscountPrice,
		Price:         p.EffectivePrice(),
		Stock:         p.TotalStock(),
		ImageURL:      p.MainImageURL(),
	}
	if p.Category != nil {
		s.CategoryName = p.Category.Name
	}
	if p.Location != nil {
		s.LocationName = p.Location.PathOrName()
	}
	return s
}

func toDetail(p *models.Product) *ProductDetail {
	d := &ProductDetail{
		ProductSummary: toSummary(p),
		CategoryID:     p.CategoryID,
		Description:    p.Description,
		Images:         make([]string, 0, len(p.Images)),
		Attributes:     make([]AttributeValueDTO, 0, len(p.AttributeValues)),
		Specifications: make([]SpecificationDTO, 0, len(p.Specifications)),
		Variants:       make([]VariantDTO, 0, len(p.Variants)),
	}
	images := append([]models.ProductImage(nil), p.Images...)
	sort.SliceStable(images, func(i, j int) bool { return images[i].SortOrder < images[j].SortOrder })
	for _, img := range images {
		d.Images = append(d.Images, img.ImageURL)
	}
	for _, av := range p.AttributeValues {
		name := ""
		if av.Attribute != nil {
			name = av.Attribute.Name
		}
		d.Attributes = append(d.Attributes, AttributeValueDTO{Name: name, Value: av.Value})
	}
	for _, s := range p.Specifications {
		d.Specifications = append(d.Specifications, SpecificationDTO{Key: s.SpecKey, Value: s.SpecValue})
	}
	for _, v := range p.Variants {
		d.Variants = append(d.Variants, VariantDTO{ID: v.ID, Combination: v.VariantCombination, Stock: v.Stock, PriceOverride: v.PriceOverride, SKU: v.SKU})
	}
	if p.Location != nil {
		loc := toWithPath(*p.Location)
		d.Location = &loc
	}
	return d
}

// GetDetail returns an active product for the storefront.
func (s *ProductService) GetDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	p, err := s.repo.GetFull(ctx, id, true)
	if err != nil {
		return nil, notFound(err)
	}
	return toDetail(p), nil
}

// GetForAdmin returns the product with every child collection, any status.
func (s *ProductService) GetForAdmin(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.repo.GetFull(ctx, id, false)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *ProductService) ListForAdmin(ctx context.Context) ([]ProductSummary, error) {
	list, err := s.repo.ListForAdmin(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(list))
	for i := range list {
		out = append(out, toSummary(&list[i]))
	}
	return out, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// Search filters active products. Category and location filters include
// every descendant node.
func (s *ProductService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	page, size := normalizePage(params.Page, params.PageSize)
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return nil, invalid("minPrice", "must not exceed maxPrice")
	}

	filter := repository.ProductFilter{
		Term:       params.Term,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
		ActiveOnly: true,
		Offset:     (page - 1) * size,
		Limit:      size,
	}
	if params.CategoryID != nil {
		ids, err := s.categories.SubtreeIDs(ctx, *params.CategoryID)
		if err != nil {
			return nil, err
		}
		filter.CategoryIDs = ids
	}
	if params.LocationID != nil {
		ids, err := s.locations.SubtreeIDs(ctx, *params.LocationID)
		if err != nil {
			return nil, err
		}
		filter.LocationIDs = ids
	}

	list, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Items: make([]ProductSummary, 0, len(list)), Total: total, Page: page, PageSize: size}
	for i := range list {
		res.Items = append(res.Items, toSummary(&list[i]))
	}
	return res, nil
}

// GetByIDs fetches active products in the order the ids were given.
// Non-positive and repeated ids are skipped.
func (s *ProductService) GetByIDs(ctx context.Context, ids []int64) ([]ProductSummary, error) {
	seen := make(map[int64]bool, len(ids))
	clean := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
		if len(clean) == maxBulkIDs {
			break
		}
	}
	if len(clean) == 0 {
		return []ProductSummary{}, nil
	}

	list, err := s.repo.ListByIDs(ctx, clean)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Product, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}
	out := make([]ProductSummary, 0, len(list))
	for _, id := range clean {
		if p, ok := byID[id]; ok {
			out = append(out, toSummary(p))
		}
	}
	return out, nil
}

func (s *ProductService) validate(ctx context.Context, id int64, in *ProductInput) error {
	v := &ValidationError{}
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if in.Name == "" {
		v.Add("name", "is required")
	}
	if in.SKU == "" {
		v.Add("sku", "is required")
	}
	if in.SalePrice.IsNegative() {
		v.Add("salePrice", "must not be negative")
	}
	if in.PurchasePrice.IsNegative() {
		v.Add("purchasePrice", "must not be negative")
	}
	if in.DiscountPrice != nil && (in.DiscountPrice.IsNegative() || in.DiscountPrice.GreaterThan(in.SalePrice)) {
		v.Add("discountPrice", "must be between 0 and the sale price")
	}
	if in.Stock < 0 {
		v.Add("stock", "must not be negative")
	}
	seen := make(map[string]bool, len(in.Variants))
	for i, variant := range in.Variants {
		combination := strings.TrimSpace(variant.Combination)
		switch {
		case combination == "":
			v.Add(fmt.Sprintf("variants[%d].combination", i), "is required")
		case seen[combination]:
			v.Add(fmt.Sprintf("variants[%d].combination", i), "is listed twice")
		}
		seen[combination] = true
		if variant.Stock < 0 {
			v.Add(fmt.Sprintf("variants[%d].stock", i), "must not be negative")
		}
	}

	if _, err := s.categories.repo.GetByID(ctx, in.CategoryID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		v.Add("categoryId", "category does not exist")
	}
	if in.LocationID != nil {
		if _, err := s.locations.repo.GetByID(ctx, *in.LocationID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			v.Add("locationId", "location does not exist")
		}
	}
	if in.Attributes != nil {
		if err := s.validateAttributes(ctx, in, v); err != nil {
			return err
		}
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	taken, err := s.repo.SKUExists(ctx, in.SKU, id)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%q: %w", in.SKU, ErrDuplicateSKU)
	}
	return nil
}

// validateAttributes checks required attributes and dropdown options for the
// product's category.
func (s *ProductService) validateAttributes(ctx context.Context, in *ProductInput, v *ValidationError) error {
	links, err := s.categories.repo.ListAttributes(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(links))
	for _, l := range links {
		attr := l.Attribute
		known[attr.ID] = true
		value := strings.TrimSpace(in.Attributes[attr.ID])
		field := "attributes." + attr.Name
		if value == "" {
			if attr.IsRequired {
				v.Add(field, "is required")
			}
			continue
		}
		switch attr.FieldType {
		case models.FieldNumber:
			if _, err := decimal.NewFromString(value); err != nil {
				v.Add(field, "must be a number")
			}
		case models.FieldDropdown:
			if !hasOption(attr.Options, value) {
				v.Add(field, "is not one of the allowed options")
			}
		case models.FieldMultiSelect:
			for _, part := range strings.Split(value, ",") {
				if !hasOption(attr.Options, strings.TrimSpace(part)) {
					v.Add(field, "is not one of the allowed options")
					break
				}
			}
		}
	}
	for attrID := range in.Attributes {
		if !known[attrID] {
			v.Add(fmt.Sprintf("attributes.%d", attrID), "does not belong to the category")
		}
	}
	return nil
}

func hasOption(options []models.AttributeOption, value string) bool {
	for _, o := range options {
		if strings.EqualFold(o.Value, value) {
			return true
		}
	}
	return false
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.validate(ctx, 0, &in); err != nil {
			return err
		}
		applyProductInput(p, in)
		p.Status = models.StatusActive
		if err := s.repo.Create(ctx, p); err != nil {
			if database.IsDuplicateKey(err) {
				return fmt.Errorf("%q: %w", in.SKU, ErrDuplicateSKU)
			}
			return err
		}
		return s.replaceChildren(ctx, p.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return s.GetForAdmin(ctx, p.ID)
}

func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := s.validate(ctx, id, &in); err != nil {
			return err
		}
		applyProductInput(p, in)
		if in.Status != nil {
			p.Status = *in.Status
		}
		if err := s.repo.Save(ctx, p); err != nil {
			if database.IsDuplicateKey(err) {
				return fmt.Errorf("%q: %w", in.SKU, ErrDuplicateSKU)
			}
			return err
		}
		return s.replaceChildren(ctx, id, in)
	})
	if err != nil {
		return nil, err
	}
	return s.GetForAdmin(ctx, id)
}

func applyProductInput(p *models.Product, in ProductInput) {
	p.Name = in.Name
	p.SKU = in.SKU
	p.CategoryID = in.CategoryID
	p.LocationID = in.LocationID
	p.PurchasePrice = in.PurchasePrice
	p.SalePrice = in.SalePrice
	p.DiscountPrice = in.DiscountPrice
	p.Stock = in.Stock
	p.Description = in.Description
}

func (s *ProductService) replaceChildren(ctx context.Context, productID int64, in ProductInput) error {
	if in.ImageURLs != nil {
		images := make([]models.ProductImage, 0, len(in.ImageURLs))
		for _, url := range in.ImageURLs {
			if url = strings.TrimSpace(url); url == "" {
				continue
			}
			images = append(images, models.ProductImage{ProductID: productID, ImageURL: url, SortOrder: len(images)})
		}
		if err := s.repo.ReplaceImages(ctx, productID, images); err != nil {
			return err
		}
	}
	if in.Specifications != nil {
		specs := make([]models.ProductSpecification, 0, len(in.Specifications))
		for _, spec := range in.Specifications {
			key := strings.TrimSpace(spec.Key)
			if key == "" {
				continue
			}
			specs = append(specs, models.ProductSpecification{ProductID: productID, SpecKey: key, SpecValue: strings.TrimSpace(spec.Value)})
		}
		if err := s.repo.ReplaceSpecifications(ctx, productID, specs); err != nil {
			return err
		}
	}
	if in.Variants != nil {
		if err := s.syncVariants(ctx, productID, in.Variants); err != nil {
			return err
		}
	}
	if in.Attributes != nil {
		values := make([]models.ProductAttributeValue, 0, len(in.Attributes))
		for attrID, value := range in.Attributes {
			if value = strings.TrimSpace(value); value == "" {
				continue
			}
			values = append(values, models.ProductAttributeValue{ProductID: productID, AttributeID: attrID, Value: value})
		}
		sort.Slice(values, func(i, j int) bool { return values[i].AttributeID < values[j].AttributeID })
		if err := s.repo.ReplaceAttributeValues(ctx, productID, values); err != nil {
			return err
		}
	}
	return nil
}

// syncVariants matches incoming variants to stored ones by combination.
// Matches are updated in place. Stored variants missing from inputs are
// removed unless an order still points at them.
func (s *ProductService) syncVariants(ctx context.Context, productID int64, inputs []VariantInput) error {
	existing, err := s.repo.ListVariants(ctx, productID)
	if err != nil {
		return err
	}
	byCombination := make(map[string]models.ProductVariant, len(existing))
	for _, v := range existing {
		byCombination[v.VariantCombination] = v
	}

	var created []models.ProductVariant
	kept := make(map[int64]bool, len(inputs))
	for _, in := range inputs {
		v := models.ProductVariant{
			ProductID:          productID,
			VariantCombination: strings.TrimSpace(in.Combination),
			Stock:              in.Stock,
			PriceOverride:      in.PriceOverride,
			SKU:                in.SKU,
		}
		current, ok := byCombination[v.VariantCombination]
		if !ok {
			created = append(created, v)
			continue
		}
		v.ID = current.ID
		kept[v.ID] = true
		if err := s.repo.UpdateVariant(ctx, &v); err != nil {
			return err
		}
	}

	var removed []int64
	for _, v := range existing {
		if !kept[v.ID] {
			removed = append(removed, v.ID)
		}
	}
	ordered, err := s.repo.OrderedVariantIDs(ctx, removed)
	if err != nil {
		return err
	}
	if len(ordered) > 0 {
		return fmt.Errorf("variants %v appear in orders and cannot be removed: %w", ordered, ErrInUse)
	}
	users, err := s.repo.RemoveVariantsFromCarts(ctx, removed)
	if err != nil {
		return err
	}
	invalidateCartCounts(ctx, s.cache, users)
	if err := s.repo.DeleteVariants(ctx, productID, removed); err != nil {
		return err
	}

	if err := s.repo.CreateVariants(ctx, created); err != nil {
		if database.IsDuplicateKey(err) {
			return invalid("variants", "combinations must be unique")
		}
		return err
	}
	return nil
}

// Delete removes a product nobody ordered or asked about. Products with
// orders or chat threads can only be deactivated.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return notFound(err)
		}
		ordered, err := s.repo.HasOrderItems(ctx, id)
		if err != nil {
			return err
		}
		if ordered {
			return fmt.Errorf("product %d has orders, deactivate it instead: %w", id, ErrInUse)
		}
		discussed, err := s.repo.HasChatThreads(ctx, id)
		if err != nil {
			return err
		}
		if discussed {
			return fmt.Errorf("product %d has chat threads, deactivate it instead: %w", id, ErrInUse)
		}

		users, err := s.repo.RemoveProductFromCarts(ctx, id)
		if err != nil {
			return err
		}
		invalidateCartCounts(ctx, s.cache, users)
		return notFound(s.repo.DeleteCascade(ctx, id))
	})
}

// AttributesForCategory returns the attribute form for a category.
func (s *ProductService) AttributesForCategory(ctx context.Context, categoryID int64) ([]models.ProductAttribute, error) {
	return s.categories.Attributes(ctx, categoryID)
}
