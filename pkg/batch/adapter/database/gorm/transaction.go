package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	tx "github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
)

// GormTx implements tx.Tx over a gorm transaction handle.
type GormTx struct {
	db *gorm.DB
}

// Unwrap returns the *gorm.DB bound to the transaction.
func (t *GormTx) Unwrap() interface{} { return t.db }

// GormTransactionManager implements tx.TransactionManager.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a transaction manager over db.
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Begin starts a transaction.
func (m *GormTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	var txOpts *sql.TxOptions
	if len(opts) > 0 && opts[0] != nil {
		txOpts = opts[0]
	}
	gormTx := m.db.WithContext(ctx).Begin(txOpts)
	if gormTx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}
	return &GormTx{db: gormTx}, nil
}

// Commit commits t.
func (m *GormTransactionManager) Commit(t tx.Tx) error {
	gt, ok := t.(*GormTx)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTx, got %T", t)
	}
	return gt.db.Commit().Error
}

// Rollback rolls t back.
func (m *GormTransactionManager) Rollback(t tx.Tx) error {
	gt, ok := t.(*GormTx)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTx, got %T", t)
	}
	return gt.db.Rollback().Error
}

// DB returns the handle a repository call should use: the transaction carried by ctx
// when there is one, base otherwise. Both are bound to ctx.
func DB(ctx context.Context, base *gorm.DB) *gorm.DB {
	if t, ok := tx.FromContext(ctx); ok {
		if db, ok := t.Unwrap().(*gorm.DB); ok {
			return db.WithContext(ctx)
		}
	}
	return base.WithContext(ctx)
}

var _ tx.TransactionManager = (*GormTransactionManager)(nil)
