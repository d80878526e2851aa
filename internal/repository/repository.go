package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/shopwala/shopwala-golang/internal/database"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// Store is the generic CRUD base embedded by every aggregate repository.
type Store[T any] struct {
	db *gorm.DB
}

func NewStore[T any](db *gorm.DB) Store[T] {
	return Store[T]{db: db}
}

// Conn returns the active transaction for ctx, or the pool.
func (s Store[T]) Conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, s.db)
}

func (s Store[T]) Create(ctx context.Context, entity *T) error {
	return s.Conn(ctx).Create(entity).Error
}

func (s Store[T]) Save(ctx context.Context, entity *T) error {
	return s.Conn(ctx).Save(entity).Error
}

func (s Store[T]) Delete(ctx context.Context, entity *T) error {
	return s.Conn(ctx).Delete(entity).Error
}

func (s Store[T]) GetByID(ctx context.Context, id any) (*T, error) {
	var entity T
	if err := s.Conn(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a lower-cased LIKE pattern matching term anywhere,
// with wildcards in term taken literally. Use with ESCAPE '!'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
