package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
)

// Runs returns the Store as a RunRepository.
func (s *Store) Runs() repository.RunRepository { return runs{s} }

type runs struct{ s *Store }

func (r runs) Create(_ context.Context, run *model.Run) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = s.id("runs")
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (r runs) FindByID(_ context.Context, id uint) (*model.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	run, ok := r.s.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	return cloneRun(run), nil
}

func (r runs) UpdateDetails(_ context.Context, id uint, details model.RunDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run, ok := r.s.runs[id]
	if !ok {
		return repository.ErrRunNotFound
	}
	if run.Status != model.RunStatusRunning {
		return repository.ErrRunNotRunning
	}
	run.Details = details.Clone()
	return nil
}

func (r runs) Finalize(_ context.Context, run *model.Run) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.runs[run.ID]
	if !ok {
		return repository.ErrRunNotFound
	}
	stored.Status = run.Status
	stored.CompletedAt = run.CompletedAt
	stored.DurationSeconds = run.DurationSeconds
	stored.ItemsUpdated = run.ItemsUpdated
	stored.ErrorMessage = run.ErrorMessage
	stored.Details = run.Details.Clone()
	return nil
}

func (r runs) List(_ context.Context, f repository.RunFilter) ([]*model.Run, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []*model.Run
	for _, run := range r.s.runs {
		if f.JobID != nil && run.JobID != *f.JobID {
			continue
		}
		if f.JobName != "" && run.JobName != f.JobName {
			continue
		}
		if f.Status != "" && run.Status != f.Status {
			continue
		}
		matched = append(matched, run)
	}
	sort.Slice(matched, func(i, k int) bool {
		if matched[i].StartedAt.Equal(matched[k].StartedAt) {
			return matched[i].ID > matched[k].ID
		}
		return matched[i].StartedAt.After(matched[k].StartedAt)
	})
	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []*model.Run{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	out := make([]*model.Run, len(matched))
	for i, run := range matched {
		out[i] = cloneRun(run)
	}
	return out, total, nil
}

func (r runs) FindRunningStartedBefore(_ context.Context, t time.Time) ([]*model.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Run
	for _, run := range r.s.runs {
		if run.Status == model.RunStatusRunning && run.StartedAt.Before(t) {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (r runs) FindTerminalStartedBefore(_ context.Context, t time.Time, limit int) ([]*model.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Run
	for _, run := range r.s.runs {
		if run.Status.IsTerminal() && run.StartedAt.Before(t) {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r runs) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.runs[id]; !ok {
		return repository.ErrRunNotFound
	}
	delete(r.s.runs, id)
	return nil
}

func (r runs) DeleteByIDs(_ context.Context, ids []uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.s.runs[id]; ok {
			delete(r.s.runs, id)
			n++
		}
	}
	return n, nil
}
