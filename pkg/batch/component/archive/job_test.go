package archive_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage/local"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/component/archive"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/cancellation"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/infrastructure/repository/inmemory"
)

var now = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type env struct {
	store    *inmemory.Store
	exec     *job.Executor
	resolver *storage.Resolver
	cfg      config.ArchiveConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := inmemory.NewStore()
	store.SetClock(clock)
	cfg := config.NewConfig().Boxscore.Archive
	cfg.Storage = config.StorageConfig{Type: "local", BaseDir: t.TempDir()}
	return &env{
		store: store,
		exec: job.NewExecutor(job.ExecutorDeps{
			Jobs:     store.JobDefinitions(),
			Runs:     store.Runs(),
			Registry: cancellation.NewRegistry(),
		}, job.WithClock(clock)),
		resolver: storage.NewResolver(cfg.Storage, local.NewProvider()),
		cfg:      cfg,
	}
}

func (e *env) seedRun(t *testing.T, name string, started time.Time, status model.RunStatus) *model.Run {
	t.Helper()
	run := model.NewRun(name, 0, model.TriggerScheduled, started)
	require.NoError(t, e.store.Runs().Create(context.Background(), run))
	if status != model.RunStatusRunning {
		run.Finish(status, "", started.Add(time.Minute))
		run.ItemsUpdated = 3
		run.Details.Errors = []string{"game G1: boom"}
		require.NoError(t, e.store.Runs().Finalize(context.Background(), run))
	}
	return run
}

func (e *env) objects(t *testing.T) []string {
	t.Helper()
	conn, err := e.resolver.Resolve(context.Background())
	require.NoError(t, err)
	var names []string
	require.NoError(t, conn.ListObjects(context.Background(), "", e.cfg.Prefix+"/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	return names
}

func TestArchive_ExportsAndDeletesOldRuns(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	old1 := e.seedRun(t, "update_schedules", now.AddDate(0, 0, -40), model.RunStatusSuccess)
	old2 := e.seedRun(t, "update_schedules", now.AddDate(0, 0, -40).Add(time.Hour), model.RunStatusFailed)
	old3 := e.seedRun(t, "update_team_results", now.AddDate(0, 0, -35), model.RunStatusSuccess)
	recent := e.seedRun(t, "update_schedules", now.AddDate(0, 0, -2), model.RunStatusSuccess)
	stillRunning := e.seedRun(t, "update_players_team", now.AddDate(0, 0, -50), model.RunStatusRunning)

	a := archive.New(e.store.Runs(), e.resolver, e.cfg, archive.WithClock(clock))
	run, err := e.exec.Run(ctx, job.Request{JobName: archive.JobName, Body: a.Run, Origin: model.TriggerManual})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusSuccess, run.Status, run.ErrorMessage)
	assert.Equal(t, 3, run.ItemsUpdated)
	assert.Equal(t, 2, run.Details.Metrics["objects_written"])

	for _, gone := range []*model.Run{old1, old2, old3} {
		_, err := e.store.Runs().FindByID(ctx, gone.ID)
		assert.Error(t, err, "run %d should be deleted", gone.ID)
	}
	for _, kept := range []*model.Run{recent, stillRunning} {
		_, err := e.store.Runs().FindByID(ctx, kept.ID)
		assert.NoError(t, err, "run %d should be kept", kept.ID)
	}

	objects := e.objects(t)
	require.Len(t, objects, 2)
	var day40 string
	for _, o := range objects {
		if assert.Regexp(t, `^runs/dt=\d{4}-\d{2}-\d{2}/runs_[0-9a-f-]+\.parquet$`, o) && o[:18] == "runs/dt=2025-01-20" {
			day40 = o
		}
	}
	require.NotEmpty(t, day40)

	rows := readRows(t, e, day40)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(old1.ID), rows[0].ID)
	assert.Equal(t, "success", rows[0].Status)
	assert.Equal(t, "cron", rows[0].TriggeredBy)
	assert.Equal(t, int64(3), rows[0].ItemsUpdated)
	require.NotNil(t, rows[0].CompletedAt)
	assert.Equal(t, old1.StartedAt.Add(time.Minute).UnixMilli(), *rows[0].CompletedAt)
	assert.Contains(t, rows[0].Details, "game G1: boom")
	assert.Equal(t, "failed", rows[1].Status)
}

func TestArchive_NothingToDo(t *testing.T) {
	e := newEnv(t)
	e.seedRun(t, "update_schedules", now.Add(-time.Hour), model.RunStatusSuccess)

	a := archive.New(e.store.Runs(), e.resolver, e.cfg, archive.WithClock(clock))
	run, err := e.exec.Run(context.Background(), job.Request{JobName: archive.JobName, Body: a.Run, Origin: model.TriggerManual})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSuccess, run.Status)
	assert.Equal(t, 0, run.ItemsUpdated)
	assert.Empty(t, e.objects(t))
}

func TestArchive_ForceAndLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.seedRun(t, "update_schedules", now.Add(-3*time.Hour), model.RunStatusSuccess)
	second := e.seedRun(t, "update_schedules", now.Add(-2*time.Hour), model.RunStatusSuccess)

	a := archive.New(e.store.Runs(), e.resolver, e.cfg, archive.WithClock(clock))
	run, err := e.exec.Run(ctx, job.Request{
		JobName: archive.JobName,
		Body:    a.Run,
		Origin:  model.TriggerManual,
		Params:  model.TriggerParams{Force: true, Limit: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, run.ItemsUpdated)

	_, err = e.store.Runs().FindByID(ctx, first.ID)
	assert.Error(t, err, "oldest run goes first")
	_, err = e.store.Runs().FindByID(ctx, second.ID)
	assert.NoError(t, err)
}

type brokenConnector struct{ storage.StorageConnection }

func (b brokenConnector) Resolve(context.Context) (storage.StorageConnection, error) { return b, nil }

func (brokenConnector) Upload(context.Context, string, string, io.Reader, string) error {
	return errors.New("bucket is read-only")
}

func TestArchive_UploadFailureKeepsRuns(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	old := e.seedRun(t, "update_schedules", now.AddDate(0, 0, -40), model.RunStatusSuccess)

	a := archive.New(e.store.Runs(), brokenConnector{}, e.cfg, archive.WithClock(clock))
	run, err := e.exec.Run(ctx, job.Request{JobName: archive.JobName, Body: a.Run, Origin: model.TriggerManual})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "All 1 partitions failed")
	assert.Contains(t, run.ErrorMessage, "bucket is read-only")
	_, err = e.store.Runs().FindByID(ctx, old.ID)
	assert.NoError(t, err)
}

func TestArchive_RejectsUnknownCompression(t *testing.T) {
	e := newEnv(t)
	e.seedRun(t, "update_schedules", now.AddDate(0, 0, -40), model.RunStatusSuccess)
	e.cfg.Compression = "LZMA"

	a := archive.New(e.store.Runs(), e.resolver, e.cfg, archive.WithClock(clock))
	run, err := e.exec.Run(context.Background(), job.Request{JobName: archive.JobName, Body: a.Run, Origin: model.TriggerManual})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "LZMA")
}

func TestArchive_EntryIsManual(t *testing.T) {
	e := newEnv(t)
	entry := archive.New(e.store.Runs(), e.resolver, e.cfg).Entry()
	assert.Equal(t, archive.JobName, entry.Name)
	assert.Zero(t, entry.Every)
	assert.NotNil(t, entry.Body)
}

func readRows(t *testing.T, e *env, object string) []archive.RunRow {
	t.Helper()
	conn, err := e.resolver.Resolve(context.Background())
	require.NoError(t, err)
	r, err := conn.Download(context.Background(), "", object)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(data), new(archive.RunRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	rows := make([]archive.RunRow, pr.GetNumRows())
	require.NoError(t, pr.Read(&rows))
	return rows
}
