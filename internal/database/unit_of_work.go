package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

type hooksKey struct{}

// UnitOfWork runs a request's writes in one transaction. Repositories pick
// the active transaction out of the context, so services never pass *gorm.DB
// around.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do commits when fn returns nil and rolls back otherwise. Nested calls join
// the outer transaction. Hooks registered with AfterCommit run once the
// outermost transaction has committed.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	hooks := new([]func())
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(context.WithValue(txCtx, hooksKey{}, hooks))
	})
	if err != nil {
		return err
	}
	for _, hook := range *hooks {
		hook()
	}
	return nil
}

// AfterCommit defers fn until the transaction bound to ctx commits. Outside a
// transaction fn runs immediately; on rollback it never runs.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(hooksKey{}).(*[]func()); ok {
		*hooks = append(*hooks, fn)
		return
	}
	fn()
}

// Conn returns the transaction bound to ctx, or the pool.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
