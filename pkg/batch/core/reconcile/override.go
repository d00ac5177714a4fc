package reconcile

import (
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// SetOverride writes the operator's values onto local and pins it against automated
// overwrite. It returns the business fields that changed.
func SetOverride[T any](local Mergeable[T], values T, reason string, now time.Time) []string {
	changed := local.MergeFrom(values)
	local.Meta().MarkOverride(reason, now)
	return changed
}

// ClearOverride unpins rec. Stored values stay until the next reconciliation replaces them.
func ClearOverride(rec model.Record, now time.Time) {
	rec.Meta().ClearOverride(now)
}

// NewManualRecord stamps rec as operator-authored and pinned.
func NewManualRecord[T model.Record](rec T, reason string, now time.Time) T {
	rec.Meta().MarkOverride(reason, now)
	return rec
}
