// Package sql implements the repository ports on gorm. Job definitions and runs are
// always written outside any body transaction; entity writes join the transaction
// carried by the context.
package sql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	gormadapter "github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/database/gorm"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
)

const module = "repository"

// Store is the gorm-backed implementation of every repository port.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetClock overrides the clock used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// DB returns the base handle.
func (s *Store) DB() *gorm.DB { return s.db }

// standalone returns a handle that never joins a body transaction.
func (s *Store) standalone(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// joined returns a handle bound to the transaction carried by ctx, if any.
func (s *Store) joined(ctx context.Context) *gorm.DB {
	return gormadapter.DB(ctx, s.db)
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

// storeError wraps a database failure. Failures caused by the context are passed through.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return exception.NewBatchError(module, op+" failed", err, false)
}

// notFound maps gorm.ErrRecordNotFound onto sentinel.
func notFound(op string, err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return storeError(op, err)
}

var (
	_ repository.JobDefinitionRepository = jobDefinitions{}
	_ repository.RunRepository           = runs{}
	_ repository.EntityStore             = entities{}
)
