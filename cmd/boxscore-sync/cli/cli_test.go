package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/usecase"
)

func writeConfig(t *testing.T, database string) string {
	t.Helper()
	dir := t.TempDir()
	body := `boxscore:
  system:
    logging:
      level: SILENT
  server:
    address: 127.0.0.1:0
  archive:
    storage:
      base_dir: ` + filepath.Join(dir, "archive") + `
  database:
    default:
` + database
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func memoryDatabase() string {
	return "      type: memory\n"
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJobsList(t *testing.T) {
	cfg := writeConfig(t, memoryDatabase())

	out, err := run(t, "--config", cfg, "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "update_finished_games")
	assert.Contains(t, out, "archive_run_history")
	assert.Contains(t, out, "not_scheduled")

	out, err = run(t, "--config", cfg, "-o", "json", "jobs", "list")
	require.NoError(t, err)
	var jobs []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	assert.Len(t, jobs, 6)
}

func TestJobsTrigger_FailedRunIsAnError(t *testing.T) {
	cfg := writeConfig(t, memoryDatabase())

	// No upstream source is configured, so the body fails.
	out, err := run(t, "--config", cfg, "jobs", "trigger", "update_schedules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
	assert.Contains(t, out, "update_schedules")
}

func TestJobsTrigger_UnknownJob(t *testing.T) {
	cfg := writeConfig(t, memoryDatabase())

	_, err := run(t, "--config", cfg, "jobs", "trigger", "update_everything")
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrUnknownJob)
}

func TestRuns_InvalidID(t *testing.T) {
	cfg := writeConfig(t, memoryDatabase())

	for _, args := range [][]string{
		{"runs", "show", "abc"},
		{"runs", "stop", "0"},
		{"runs", "delete", "1.5"},
		{"jobs", "toggle", "x"},
	} {
		_, err := run(t, append([]string{"--config", cfg}, args...)...)
		assert.ErrorIs(t, err, usecase.ErrInvalidArgument, "%v", args)
	}
}

func TestRunsList_Empty(t *testing.T) {
	cfg := writeConfig(t, memoryDatabase())

	out, err := run(t, "--config", cfg, "runs", "list", "--job-name", "update_schedules")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0 runs")

	_, err = run(t, "--config", cfg, "runs", "list", "--limit", "500")
	assert.ErrorIs(t, err, usecase.ErrInvalidArgument)
}

func TestOverride_Validation(t *testing.T) {
	cfg := writeConfig(t, memoryDatabase())

	_, err := run(t, "--config", cfg, "override", "set", "coach", "1", "--set", "name=x")
	assert.ErrorIs(t, err, usecase.ErrInvalidArgument)

	_, err = run(t, "--config", cfg, "override", "set", "team", "1", "--set", "no-equals-sign")
	assert.ErrorIs(t, err, usecase.ErrInvalidArgument)
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"home_score=101", " status =final", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"home_score": "101",
		"status":     "final",
		"note":       "a=b",
	}, fields)

	_, err = parseFields([]string{"=1"})
	assert.ErrorIs(t, err, usecase.ErrInvalidArgument)
}

func TestMigrateThenListOnSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "boxscore.db")
	cfg := writeConfig(t, "      type: sqlite\n      path: "+dbPath+"\n")

	out, err := run(t, "--config", cfg, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty: false")

	out, err = run(t, "--config", cfg, "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "update_player_season_averages")
}

func TestDatabaseFlagOverridesConfig(t *testing.T) {
	cfg := writeConfig(t, "      type: postgres\n      host: 127.0.0.1\n      port: 1\n")

	out, err := run(t, "--config", cfg, "--database", "memory", "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "update_schedules")
}
