package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// JobDefinitions returns the Store as a JobDefinitionRepository.
func (s *Store) JobDefinitions() repository.JobDefinitionRepository { return jobDefinitions{s} }

type jobDefinitions struct{ s *Store }

func (r jobDefinitions) Register(_ context.Context, def *model.JobDefinition) (*model.JobDefinition, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for _, existing := range s.jobs {
		if existing.Name == def.Name {
			existing.Description = def.Description
			existing.Schedule = def.Schedule
			existing.UpdatedAt = now
			c := *existing
			return &c, nil
		}
	}
	c := *def
	c.ID = s.id("jobs")
	c.IsActive = true
	c.CreatedAt, c.UpdatedAt = now, now
	s.jobs[c.ID] = &c
	out := c
	return &out, nil
}

func (r jobDefinitions) FindByID(_ context.Context, id uint) (*model.JobDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	c := *j
	return &c, nil
}

func (r jobDefinitions) FindByName(_ context.Context, name string) (*model.JobDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, j := range r.s.jobs {
		if j.Name == name {
			c := *j
			return &c, nil
		}
	}
	return nil, repository.ErrJobNotFound
}

func (r jobDefinitions) List(_ context.Context) ([]*model.JobDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.JobDefinition, 0, len(r.s.jobs))
	for _, j := range r.s.jobs {
		c := *j
		out = append(out, &c)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out, nil
}

func (r jobDefinitions) SetActive(_ context.Context, id uint, active bool) (*model.JobDefinition, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	j.IsActive = active
	j.UpdatedAt = s.now().UTC()
	c := *j
	return &c, nil
}

func (r jobDefinitions) RecordOutcome(_ context.Context, id uint, success bool, lastRunAt *time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	j.TotalRuns++
	if success {
		j.SuccessfulRuns++
	} else {
		j.FailedRuns++
	}
	if lastRunAt != nil {
		t := lastRunAt.UTC()
		j.LastRunAt = &t
	}
	j.UpdatedAt = s.now().UTC()
	return nil
}
