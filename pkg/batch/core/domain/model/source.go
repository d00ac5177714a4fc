package model

import "time"

// Source records who authored a record's current business fields.
type Source string

const (
	SourceAPI    Source = "api"
	SourceManual Source = "manual"
)

// SourceMeta is the source-tracking metadata carried by every synced entity.
// While IsManualOverride is set, automated jobs may only touch this metadata.
type SourceMeta struct {
	Source           Source
	IsManualOverride bool
	OverrideReason   string
	LastAPISync      *time.Time
	LastManualEdit   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Meta gives embedding entities access to their metadata through the Record interface.
func (m *SourceMeta) Meta() *SourceMeta { return m }

// SyncedWithin reports whether the last API sync happened less than ttl before now.
// A record that was never synced is never fresh.
func (m *SourceMeta) SyncedWithin(now time.Time, ttl time.Duration) bool {
	if m.LastAPISync == nil {
		return false
	}
	return now.Sub(*m.LastAPISync) < ttl
}

// MarkSynced stamps an automated write.
func (m *SourceMeta) MarkSynced(now time.Time) {
	now = now.UTC()
	m.LastAPISync = &now
	m.UpdatedAt = now
}

// MarkCreatedFromAPI initialises metadata for a record created by reconciliation.
func (m *SourceMeta) MarkCreatedFromAPI(now time.Time) {
	now = now.UTC()
	m.Source = SourceAPI
	m.IsManualOverride = false
	m.OverrideReason = ""
	m.CreatedAt = now
	m.MarkSynced(now)
}

// MarkOverride stamps an operator write and pins the record against automated overwrite.
func (m *SourceMeta) MarkOverride(reason string, now time.Time) {
	now = now.UTC()
	m.Source = SourceManual
	m.IsManualOverride = true
	m.OverrideReason = reason
	m.LastManualEdit = &now
	m.UpdatedAt = now
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

// ClearOverride releases the pin. Stored values are left as they are.
func (m *SourceMeta) ClearOverride(now time.Time) {
	m.IsManualOverride = false
	m.OverrideReason = ""
	m.UpdatedAt = now.UTC()
}

// EntityKind names a synced entity type.
type EntityKind string

const (
	KindTeam        EntityKind = "team"
	KindPlayer      EntityKind = "player"
	KindGame        EntityKind = "game"
	KindSeasonStats EntityKind = "season_stats"
	KindGameStats   EntityKind = "game_stats"
	KindStanding    EntityKind = "standing"
)

// Kinds lists every entity kind.
var Kinds = []EntityKind{KindTeam, KindPlayer, KindGame, KindSeasonStats, KindGameStats, KindStanding}

// Record is implemented by every synced entity.
type Record interface {
	Meta() *SourceMeta
	Kind() EntityKind
	// Label identifies the record in log lines.
	Label() string
}
