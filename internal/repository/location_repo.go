package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/models"
)

type LocationRepository struct {
	Store[models.Location]
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{Store: NewStore[models.Location](db)}
}

// ListByParent returns direct children (roots when nil) by display order, then name.
func (r *LocationRepository) ListByParent(ctx context.Context, parentID *int64) ([]models.Location, error) {
	q := r.Conn(ctx)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	var list []models.Location
	err := q.Order("display_order ASC, name ASC").Find(&list).Error
	return list, err
}

func (r *LocationRepository) ListAll(ctx context.Context) ([]models.Location, error) {
	var list []models.Location
	err := r.Conn(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *LocationRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Location, error) {
	var list []models.Location
	if len(ids) == 0 {
		return list, nil
	}
	err := r.Conn(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// Search matches name or full path, case-insensitively.
func (r *LocationRepository) Search(ctx context.Context, term string, limit int) ([]models.Location, error) {
	q := r.Conn(ctx)
	if t := strings.TrimSpace(term); t != "" {
		like := containsPattern(t)
		q = q.Where("LOWER(COALESCE(full_path, '')) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", like, like)
	}
	var list []models.Location
	err := q.Order("COALESCE(full_path, name) ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *LocationRepository) UpdateFullPath(ctx context.Context, id int64, path string) error {
	return r.Conn(ctx).Model(&models.Location{}).Where("id = ?", id).Update("full_path", path).Error
}

func (r *LocationRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.Conn(ctx).Model(&models.Location{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}
