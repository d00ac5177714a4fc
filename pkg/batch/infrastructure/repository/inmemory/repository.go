// Package inmemory provides map-backed implementations of the repository ports.
// It is used by tests and by `--database memory` for local experiments.
// Values are copied on the way in and out so callers never share state with the store.
package inmemory

import (
	"sync"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

// Store holds every table in memory.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID map[string]uint

	jobs        map[uint]*model.JobDefinition
	runs        map[uint]*model.Run
	teams       map[uint]*model.Team
	players     map[uint]*model.Player
	games       map[uint]*model.Game
	seasonStats map[uint]*model.PlayerSeasonStats
	gameStats   map[uint]*model.PlayerGameStats
	standings   map[uint]*model.TeamStanding
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		nextID:      map[string]uint{},
		jobs:        map[uint]*model.JobDefinition{},
		runs:        map[uint]*model.Run{},
		teams:       map[uint]*model.Team{},
		players:     map[uint]*model.Player{},
		games:       map[uint]*model.Game{},
		seasonStats: map[uint]*model.PlayerSeasonStats{},
		gameStats:   map[uint]*model.PlayerGameStats{},
		standings:   map[uint]*model.TeamStanding{},
	}
}

// SetClock overrides the clock used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// id allocates the next ID of table. Callers hold the write lock.
func (s *Store) id(table string) uint {
	s.nextID[table]++
	return s.nextID[table]
}

// Close releases nothing; it satisfies the lifecycle of the SQL store.
func (s *Store) Close() error {
	return nil
}

func cloneRun(r *model.Run) *model.Run {
	c := *r
	c.Details = r.Details.Clone()
	return &c
}
