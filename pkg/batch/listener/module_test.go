package listener

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
)

type countingListener struct{ before, after int }

func (c *countingListener) BeforeRun(context.Context, *model.Run) { c.before++ }
func (c *countingListener) AfterRun(context.Context, *model.Run)  { c.after++ }

type panickingListener struct{}

func (panickingListener) BeforeRun(context.Context, *model.Run) { panic("boom") }
func (panickingListener) AfterRun(context.Context, *model.Run)  {}

func TestComposite_IsolatesPanics(t *testing.T) {
	first, last := &countingListener{}, &countingListener{}
	c := Composite{first, panickingListener{}, last}
	run := model.NewRun("update_team_results", 1, model.TriggerManual, time.Now())

	assert.NotPanics(t, func() {
		c.BeforeRun(context.Background(), run)
		c.AfterRun(context.Background(), run)
	})
	assert.Equal(t, 1, first.before)
	assert.Equal(t, 1, last.before)
	assert.Equal(t, 1, last.after)

	err := c.each(func(l job.RunListener) { l.BeforeRun(context.Background(), run) })
	var pe *PanicError
	assert.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "boom")
}
