// Package archive moves old run history out of the store into Parquet objects.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/adapter/storage"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/repository"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/job"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/schedule"
)

// JobName is the catalog name of the archive job.
const JobName = "archive_run_history"

// DefaultLimit bounds how many runs one archive run moves.
const DefaultLimit = 500

// Connector opens the storage the archive is written to.
type Connector interface {
	Resolve(ctx context.Context) (storage.StorageConnection, error)
}

// RunRow is the Parquet layout of an archived run.
type RunRow struct {
	ID              int64  `parquet:"name=id,type=INT64"`
	JobID           int64  `parquet:"name=job_id,type=INT64"`
	JobName         string `parquet:"name=job_name,type=BYTE_ARRAY,convertedtype=UTF8"`
	TriggeredBy     string `parquet:"name=triggered_by,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status          string `parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	StartedAt       int64  `parquet:"name=started_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	CompletedAt     *int64 `parquet:"name=completed_at,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
	DurationSeconds *int64 `parquet:"name=duration_seconds,type=INT64,repetitiontype=OPTIONAL"`
	ItemsUpdated    int64  `parquet:"name=items_updated,type=INT64"`
	ErrorMessage    string `parquet:"name=error_message,type=BYTE_ARRAY,convertedtype=UTF8"`
	Details         string `parquet:"name=details,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// Job archives terminal runs older than the retention window.
type Job struct {
	runs      repository.RunRepository
	connector Connector
	cfg       config.ArchiveConfig
	now       func() time.Time
}

// Option configures a Job.
type Option func(*Job)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

// New creates the archive job.
func New(runs repository.RunRepository, connector Connector, cfg config.ArchiveConfig, opts ...Option) *Job {
	j := &Job{runs: runs, connector: connector, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Entry returns the catalog entry of the job. It has no interval trigger.
func (j *Job) Entry() schedule.Entry {
	return schedule.Entry{
		Name:        JobName,
		Description: fmt.Sprintf("Export runs older than %d days to Parquet and delete them", j.cfg.RetentionDays),
		Body:        j.Run,
	}
}

// Run exports up to limit terminal runs started before the retention cutoff, one
// Parquet object per start day, and deletes the runs whose object was written.
// With force every terminal run is eligible.
func (j *Job) Run(ctx context.Context, jc *job.Context) (job.Result, error) {
	p := jc.Params
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	cutoff := j.now().UTC().AddDate(0, 0, -j.cfg.RetentionDays)
	if p.Force {
		cutoff = j.now().UTC()
	}

	runs, err := j.runs.FindTerminalStartedBefore(ctx, cutoff, limit)
	if err != nil {
		return job.Result{}, err
	}
	jc.Progress.Logf("Found %d runs started before %s", len(runs), cutoff.Format(time.DateTime))
	jc.Progress.Set("runs_selected", len(runs))
	if len(runs) == 0 {
		return job.Result{}, nil
	}

	codec, err := compressionCodec(j.cfg.Compression)
	if err != nil {
		return job.Result{Status: model.RunStatusFailed, Error: err.Error()}, nil
	}
	conn, err := j.connector.Resolve(ctx)
	if err != nil {
		return job.Result{}, err
	}

	partitions := partitionByDay(runs)
	days := make([]string, 0, len(partitions))
	for day := range partitions {
		days = append(days, day)
	}
	sort.Strings(days)

	var errs error
	var archived []uint
	for _, day := range days {
		if err := jc.Checkpoint(); err != nil {
			return job.Result{}, err
		}
		batch := partitions[day]
		object, err := j.export(ctx, conn, day, batch, codec)
		if err != nil {
			errs = multierror.Append(errs, err)
			jc.Progress.Error("partition "+day, err)
			continue
		}
		for _, r := range batch {
			archived = append(archived, r.ID)
		}
		jc.Progress.Add("objects_written", 1)
		jc.Progress.Logf("Wrote %d runs to %s", len(batch), object)
	}

	if len(archived) > 0 {
		deleted, err := j.runs.DeleteByIDs(ctx, archived)
		if err != nil {
			return job.Result{}, fmt.Errorf("delete archived runs: %w", err)
		}
		jc.Progress.Set("runs_archived", int(deleted))
		jc.Progress.Logf("Deleted %d archived runs", deleted)
	}
	res := job.Result{ItemsUpdated: len(archived)}
	if errs != nil && len(archived) == 0 {
		res.Status = model.RunStatusFailed
		res.Error = fmt.Sprintf("All %d partitions failed: %v", len(days), errs)
	}
	return res, nil
}

// export writes one day of runs as a Parquet object and returns its name.
func (j *Job) export(ctx context.Context, conn storage.StorageConnection, day string, runs []*model.Run, codec parquet.CompressionCodec) (object string, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(RunRow), int64(len(runs)))
	if err != nil {
		return "", fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = codec
	for _, r := range runs {
		row, err := toRow(r)
		if err != nil {
			return "", err
		}
		if err := pw.Write(row); err != nil {
			return "", fmt.Errorf("write run %d: %w", r.ID, err)
		}
	}
	// The parquet writer panics on some malformed schemas instead of returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("finalize parquet for %s: %v", day, rec)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return "", fmt.Errorf("finalize parquet for %s: %w", day, err)
	}

	object = path.Join(j.cfg.Prefix, "dt="+day, fmt.Sprintf("runs_%s.parquet", uuid.NewString()))
	if err := conn.Upload(ctx, "", object, buf, "application/octet-stream"); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return object, nil
}

func partitionByDay(runs []*model.Run) map[string][]*model.Run {
	out := make(map[string][]*model.Run)
	for _, r := range runs {
		day := r.StartedAt.UTC().Format(time.DateOnly)
		out[day] = append(out[day], r)
	}
	return out
}

func toRow(r *model.Run) (RunRow, error) {
	details, err := json.Marshal(r.Details)
	if err != nil {
		return RunRow{}, fmt.Errorf("encode details of run %d: %w", r.ID, err)
	}
	row := RunRow{
		ID:              int64(r.ID),
		JobID:           int64(r.JobID),
		JobName:         r.JobName,
		TriggeredBy:     string(r.TriggeredBy),
		Status:          string(r.Status),
		StartedAt:       r.StartedAt.UnixMilli(),
		DurationSeconds: r.DurationSeconds,
		ItemsUpdated:    int64(r.ItemsUpdated),
		ErrorMessage:    r.ErrorMessage,
		Details:         string(details),
	}
	if r.CompletedAt != nil {
		ms := r.CompletedAt.UnixMilli()
		row.CompletedAt = &ms
	}
	return row, nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported archive compression %q", name)
	}
}
