package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/reconcile"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/tx"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/configbinder"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// OverrideResult is the outcome of an override write.
type OverrideResult struct {
	Record  model.Record
	Changed []string
}

// OverrideService lets operators pin records against automated overwrite.
type OverrideService struct {
	store     repository.EntityStore
	txManager tx.TransactionManager
	now       func() time.Time
}

// NewOverrideService creates an OverrideService.
func NewOverrideService(store repository.EntityStore, txManager tx.TransactionManager) *OverrideService {
	if txManager == nil {
		txManager = tx.NoopTransactionManager{}
	}
	return &OverrideService{store: store, txManager: txManager, now: time.Now}
}

// SetClock overrides the clock.
func (s *OverrideService) SetClock(now func() time.Time) { s.now = now }

// Set writes fields onto the record of kind with id and marks it as a manual override.
// Field names are the snake_case business field names, e.g. "home_score" or "pts".
func (s *OverrideService) Set(ctx context.Context, kind model.EntityKind, id uint, fields map[string]interface{}, reason string) (*OverrideResult, error) {
	var res *OverrideResult
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		now := s.now()
		switch kind {
		case model.KindTeam:
			res, err = setOverride(ctx, s.store.FindTeamByID, s.store.SaveTeam, id, fields, reason, now)
		case model.KindPlayer:
			res, err = setOverride(ctx, s.store.FindPlayerByID, s.store.SavePlayer, id, fields, reason, now)
		case model.KindGame:
			res, err = setOverride(ctx, s.store.FindGameByID, s.store.SaveGame, id, fields, reason, now)
		case model.KindSeasonStats:
			res, err = setOverride(ctx, s.store.FindSeasonStatsByID, s.store.SaveSeasonStats, id, fields, reason, now)
		case model.KindGameStats:
			res, err = setOverride(ctx, s.store.FindGameStatsByID, s.store.SaveGameStats, id, fields, reason, now)
		case model.KindStanding:
			res, err = setOverride(ctx, s.store.FindStandingByID, s.store.SaveStanding, id, fields, reason, now)
		default:
			err = unknownKind(kind)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Override set on %s (changed: %s, reason: %q)", res.Record.Label(), strings.Join(res.Changed, ", "), reason)
	return res, nil
}

// Clear unpins the record of kind with id. Its values stay until the next sync replaces them.
func (s *OverrideService) Clear(ctx context.Context, kind model.EntityKind, id uint) (model.Record, error) {
	var rec model.Record
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		now := s.now()
		switch kind {
		case model.KindTeam:
			rec, err = clearOverride(ctx, s.store.FindTeamByID, s.store.SaveTeam, id, now)
		case model.KindPlayer:
			rec, err = clearOverride(ctx, s.store.FindPlayerByID, s.store.SavePlayer, id, now)
		case model.KindGame:
			rec, err = clearOverride(ctx, s.store.FindGameByID, s.store.SaveGame, id, now)
		case model.KindSeasonStats:
			rec, err = clearOverride(ctx, s.store.FindSeasonStatsByID, s.store.SaveSeasonStats, id, now)
		case model.KindGameStats:
			rec, err = clearOverride(ctx, s.store.FindGameStatsByID, s.store.SaveGameStats, id, now)
		case model.KindStanding:
			rec, err = clearOverride(ctx, s.store.FindStandingByID, s.store.SaveStanding, id, now)
		default:
			err = unknownKind(kind)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Override cleared on %s", rec.Label())
	return rec, nil
}

// CreateManual creates an operator-authored record of kind from fields.
func (s *OverrideService) CreateManual(ctx context.Context, kind model.EntityKind, fields map[string]interface{}, reason string) (model.Record, error) {
	var rec model.Record
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		now := s.now()
		switch kind {
		case model.KindTeam:
			rec, err = createManual(ctx, s.store.SaveTeam, fields, reason, now)
		case model.KindPlayer:
			rec, err = createManual(ctx, s.store.SavePlayer, fields, reason, now)
		case model.KindGame:
			rec, err = createManual(ctx, s.store.SaveGame, fields, reason, now)
		case model.KindSeasonStats:
			rec, err = createManual(ctx, s.store.SaveSeasonStats, fields, reason, now)
		case model.KindGameStats:
			rec, err = createManual(ctx, s.store.SaveGameStats, fields, reason, now)
		case model.KindStanding:
			rec, err = createManual(ctx, s.store.SaveStanding, fields, reason, now)
		default:
			err = unknownKind(kind)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Created manual %s", rec.Label())
	return rec, nil
}

func (s *OverrideService) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin override transaction: %w", err)
	}
	if err := fn(tx.WithTx(ctx, t)); err != nil {
		if rbErr := s.txManager.Rollback(t); rbErr != nil {
			logger.Errorf("Override rollback failed: %v", rbErr)
		}
		return err
	}
	return s.txManager.Commit(t)
}

// entityPtr is a pointer to an entity struct that can absorb its own kind's fields.
type entityPtr[E any] interface {
	*E
	reconcile.Mergeable[*E]
}

func setOverride[E any, P entityPtr[E]](
	ctx context.Context,
	find func(context.Context, uint) (P, error),
	save func(context.Context, P) error,
	id uint, fields map[string]interface{}, reason string, now time.Time,
) (*OverrideResult, error) {
	local, err := find(ctx, id)
	if err != nil {
		return nil, err
	}
	values := P(new(E))
	*values = *local
	if err := decodeFields(fields, values); err != nil {
		return nil, err
	}
	changed := reconcile.SetOverride[*E](local, (*E)(values), reason, now)
	if err := save(ctx, local); err != nil {
		return nil, fmt.Errorf("save %s: %w", local.Label(), err)
	}
	return &OverrideResult{Record: local, Changed: changed}, nil
}

func clearOverride[E any, P entityPtr[E]](
	ctx context.Context,
	find func(context.Context, uint) (P, error),
	save func(context.Context, P) error,
	id uint, now time.Time,
) (model.Record, error) {
	local, err := find(ctx, id)
	if err != nil {
		return nil, err
	}
	reconcile.ClearOverride(local, now)
	if err := save(ctx, local); err != nil {
		return nil, fmt.Errorf("save %s: %w", local.Label(), err)
	}
	return local, nil
}

func createManual[E any, P entityPtr[E]](
	ctx context.Context,
	save func(context.Context, P) error,
	fields map[string]interface{}, reason string, now time.Time,
) (model.Record, error) {
	rec := P(new(E))
	if err := decodeFields(fields, rec); err != nil {
		return nil, err
	}
	reconcile.NewManualRecord(rec, reason, now)
	if err := save(ctx, rec); err != nil {
		return nil, fmt.Errorf("create %s: %w", rec.Label(), err)
	}
	return rec, nil
}

// protectedFields may not be written through an override.
var protectedFields = map[string]bool{"id": true, "source_meta": true, "sourcemeta": true}

// decodeFields copies snake_case fields onto the exported fields of out.
// Numeric values may be given as strings; times as RFC 3339.
func decodeFields(fields map[string]interface{}, out interface{}) error {
	for k := range fields {
		if protectedFields[strings.ToLower(k)] {
			return fmt.Errorf("%w: field %q cannot be overridden", ErrInvalidArgument, k)
		}
	}
	if err := configbinder.Bind(fields, out, configbinder.Strict(), configbinder.SnakeCase(), configbinder.Times(time.RFC3339)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

func unknownKind(kind model.EntityKind) error {
	return fmt.Errorf("%w: unknown entity kind %q", ErrInvalidArgument, kind)
}
