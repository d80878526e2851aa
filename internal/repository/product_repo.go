package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

// ProductFilter narrows storefront searches. Category and location ids are
// expanded to their subtrees by the caller.
type ProductFilter struct {
	Term        string
	CategoryIDs []int64
	LocationIDs []int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	ActiveOnly  bool
	Offset      int
	Limit       int
}

type ProductRepository struct {
	Store[models.Product]
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{Store: NewStore[models.Product](db)}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// GetFull loads a product with every child collection.
func (r *ProductRepository) GetFull(ctx context.Context, id int64, activeOnly bool) (*models.Product, error) {
	q := r.Conn(ctx).
		Preload("Category").
		Preload("Location").
		Preload("Images", orderedImages).
		Preload("Specifications").
		Preload("Variants").
		Preload("AttributeValues.Attribute")
	if activeOnly {
		q = q.Where("status = ?", models.StatusActive)
	}
	var p models.Product
	if err := q.First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListForAdmin returns every product, newest first.
func (r *ProductRepository) ListForAdmin(ctx context.Context) ([]models.Product, error) {
	var list []models.Product
	err := r.Conn(ctx).
		Preload("Category").
		Preload("Images", orderedImages).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func effectivePriceExpr() string {
	return "COALESCE(products.discount_price, products.sale_price)"
}

func (r *ProductRepository) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.Conn(ctx).Model(&models.Product{})
	if f.ActiveOnly {
		q = q.Where("products.status = ?", models.StatusActive)
	}
	if term := strings.TrimSpace(f.Term); term != "" {
		like := containsPattern(term)
		q = q.Where("LOWER(products.name) LIKE ? ESCAPE '!' OR LOWER(products.sku) LIKE ? ESCAPE '!' OR LOWER(COALESCE(products.description, '')) LIKE ? ESCAPE '!'", like, like, like)
	}
	if len(f.CategoryIDs) > 0 {
		q = q.Where("products.category_id IN ?", f.CategoryIDs)
	}
	if len(f.LocationIDs) > 0 {
		q = q.Where("products.location_id IN ?", f.LocationIDs)
	}
	// COALESCE drops column affinity on SQLite, so bind plain numbers.
	if f.MinPrice != nil {
		q = q.Where(effectivePriceExpr()+" >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		q = q.Where(effectivePriceExpr()+" <= ?", f.MaxPrice.InexactFloat64())
	}
	return q
}

// Search returns one page of matches and the total match count.
func (r *ProductRepository) Search(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Product
	q := r.filtered(ctx, f).
		Preload("Category").
		Preload("Location").
		Preload("Images", orderedImages).
		Preload("Variants").
		Order("products.created_at DESC, products.id DESC").
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByIDs fetches active products; result order is unspecified.
func (r *ProductRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	var list []models.Product
	err := r.Conn(ctx).
		Preload("Category").
		Preload("Images", orderedImages).
		Preload("Variants").
		Where("id IN ? AND status = ?", ids, models.StatusActive).
		Find(&list).Error
	return list, err
}

func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// ActiveLocationIDs lists the distinct locations referenced by active products.
func (r *ProductRepository) ActiveLocationIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.Conn(ctx).Model(&models.Product{}).
		Where("location_id IS NOT NULL AND status = ?", models.StatusActive).
		Distinct().
		Pluck("location_id", &ids).Error
	return ids, err
}

// ReplaceImages deletes existing images and inserts urls in order.
func (r *ProductRepository) ReplaceImages(ctx context.Context, productID int64, images []models.ProductImage) error {
	db := r.Conn(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	return db.Create(&images).Error
}

func (r *ProductRepository) ReplaceSpecifications(ctx context.Context, productID int64, specs []models.ProductSpecification) error {
	db := r.Conn(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductSpecification{}).Error; err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}
	return db.Create(&specs).Error
}

// DeleteCascade removes the product and its child rows. Cart lines must be
// removed first with RemoveProductFromCarts.
func (r *ProductRepository) DeleteCascade(ctx context.Context, id int64) error {
	db := r.Conn(ctx)
	for _, child := range []any{
		&models.ProductImage{}, &models.ProductSpecification{},
		&models.ProductVariant{}, &models.ProductAttributeValue{},
		&models.WishlistItem{},
	} {
		if err := db.Where("product_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	res := db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) GetVariant(ctx context.Context, productID, variantID int64) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := r.Conn(ctx).Where("id = ? AND product_id = ?", variantID, productID).First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// DecrementStock takes qty from the product (or variant) only if enough is
// left. It reports false when the guard failed.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID int64, variantID *int64, qty int) (bool, error) {
	var res *gorm.DB
	if variantID != nil {
		res = r.Conn(ctx).Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ? AND stock >= ?", *variantID, productID, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
	} else {
		res = r.Conn(ctx).Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty to the product (or variant).
func (r *ProductRepository) IncrementStock(ctx context.Context, productID int64, variantID *int64, qty int) error {
	if variantID != nil {
		return r.Conn(ctx).Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ?", *variantID, productID).
			Update("stock", gorm.Expr("stock + ?", qty)).Error
	}
	return r.Conn(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

// SKUExists reports whether another product (id != exceptID) uses sku.
func (r *ProductRepository) SKUExists(ctx context.Context, sku string, exceptID int64) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.Product{}).Where("sku = ? AND id <> ?", sku, exceptID).Count(&count).Error
	return count > 0, err
}

func (r *ProductRepository) ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	var list []models.ProductVariant
	err := r.Conn(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ProductRepository) CreateVariants(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.Conn(ctx).Create(&variants).Error
}

// UpdateVariant rewrites the mutable columns of an existing variant, keeping
// its id so order items and cart lines stay attached.
func (r *ProductRepository) UpdateVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.Conn(ctx).Model(&models.ProductVariant{}).
		Where("id = ? AND product_id = ?", v.ID, v.ProductID).
		Updates(map[string]any{
			"stock":          v.Stock,
			"price_override": v.PriceOverride,
			"sku":            v.SKU,
		}).Error
}

func (r *ProductRepository) DeleteVariants(ctx context.Context, productID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.Conn(ctx).Where("product_id = ? AND id IN ?", productID, ids).Delete(&models.ProductVariant{}).Error
}

// OrderedVariantIDs returns the subset of ids referenced by order items.
func (r *ProductRepository) OrderedVariantIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var ordered []int64
	if len(ids) == 0 {
		return ordered, nil
	}
	err := r.Conn(ctx).Model(&models.OrderItem{}).
		Where("variant_id IN ?", ids).
		Distinct().
		Pluck("variant_id", &ordered).Error
	return ordered, err
}

func (r *ProductRepository) HasOrderItems(ctx context.Context, productID int64) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *ProductRepository) HasChatThreads(ctx context.Context, productID int64) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.ProductChatThread{}).Where("product_id = ?", productID).Limit(1).Count(&count).Error
	return count > 0, err
}

// RemoveVariantsFromCarts deletes cart lines holding any of the variants and
// returns the owners of those lines.
func (r *ProductRepository) RemoveVariantsFromCarts(ctx context.Context, variantIDs []int64) ([]string, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	return r.removeCartLines(ctx, "variant_id IN ?", variantIDs)
}

// RemoveProductFromCarts deletes every cart line of the product and returns
// the owners of those lines.
func (r *ProductRepository) RemoveProductFromCarts(ctx context.Context, productID int64) ([]string, error) {
	return r.removeCartLines(ctx, "product_id = ?", productID)
}

func (r *ProductRepository) removeCartLines(ctx context.Context, where string, arg any) ([]string, error) {
	db := r.Conn(ctx)
	var users []string
	if err := db.Model(&models.CartItem{}).Where(where, arg).Distinct().Pluck("user_id", &users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	if err := db.Where(where, arg).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *ProductRepository) ReplaceAttributeValues(ctx context.Context, productID int64, values []models.ProductAttributeValue) error {
	db := r.Conn(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductAttributeValue{}).Error; err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return db.Create(&values).Error
}
