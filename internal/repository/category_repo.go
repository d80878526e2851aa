package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

type CategoryRepository struct {
	Store[models.Category]
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{Store: NewStore[models.Category](db)}
}

// ListByParent returns active children of parentID (roots when nil), by name.
func (r *CategoryRepository) ListByParent(ctx context.Context, parentID *int64) ([]models.Category, error) {
	q := r.Conn(ctx).Where("status = ?", models.StatusActive)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	var list []models.Category
	if err := q.Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListAll returns every category (any status), by name.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	if err := r.Conn(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.Conn(ctx).Where("slug = ? AND status = ?", slug, models.StatusActive).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// GetWithAttributes loads the category plus attribute definitions and options.
func (r *CategoryRepository) GetWithAttributes(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.Conn(ctx).
		Preload("Attributes.Attribute.Options").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// SlugExists reports whether another category (id != exceptID) uses slug.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.Category{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error
	return count > 0, err
}

func (r *CategoryRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

// ListAttributes returns the attribute definitions linked to a category.
func (r *CategoryRepository) ListAttributes(ctx context.Context, categoryID int64) ([]models.CategoryAttribute, error) {
	var list []models.CategoryAttribute
	err := r.Conn(ctx).
		Preload("Attribute.Options").
		Where("category_id = ?", categoryID).
		Find(&list).Error
	return list, err
}
