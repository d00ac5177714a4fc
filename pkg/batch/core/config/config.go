// Package config defines the boxscore-sync configuration tree and its defaults.
package config

import (
	"fmt"
	"time"
)

// EmbeddedConfig holds the raw YAML configuration bytes handed to the loader.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// SchedulerConfig configures the executor, the interval triggers and the stuck-run sweep.
type SchedulerConfig struct {
	// Enabled controls whether interval triggers are attached when serving.
	Enabled bool `yaml:"enabled"`
	// Timeout is the hard wall-clock limit of a single run.
	Timeout time.Duration `yaml:"timeout"`
	// StuckThreshold is the age after which a running run is considered stuck.
	StuckThreshold time.Duration `yaml:"stuck_threshold"`
	// SweepInterval is how often the stuck-run sweep fires.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// TriggerWorkers bounds how many manually triggered runs may execute at once.
	TriggerWorkers int `yaml:"trigger_workers"`
	// Jobs overrides the interval of individual jobs, keyed by job name.
	Jobs map[string]time.Duration `yaml:"jobs"`
}

// UpstreamConfig configures the upstream stats source client.
type UpstreamConfig struct {
	// BaseURL of the normalized stats API. Empty together with StaticFile disables syncing.
	BaseURL string `yaml:"base_url"`
	// StaticFile points at a JSON fixture used instead of BaseURL (local development).
	StaticFile string `yaml:"static_file"`
	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// RequestDelay is the minimum spacing between two upstream calls.
	RequestDelay time.Duration `yaml:"request_delay"`
	// RetryDelay is the initial wait before retrying a transient failure.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// MaxRetries is the number of attempts per call.
	MaxRetries int `yaml:"max_retries"`
}

// TTLConfig holds the freshness windows used by reconciliation.
type TTLConfig struct {
	PlayerStats time.Duration `yaml:"player_stats"`
	Standings   time.Duration `yaml:"standings"`
	Games       time.Duration `yaml:"games"`
	PlayerInfo  time.Duration `yaml:"player_info"`
	// SeasonAverages is the staleness window of the season averages job.
	SeasonAverages time.Duration `yaml:"season_averages"`
}

// SyncConfig configures the sync job bodies.
type SyncConfig struct {
	Season     string    `yaml:"season"`
	SeasonType string    `yaml:"season_type"`
	TTL        TTLConfig `yaml:"ttl"`
	// CommitEvery is the number of written records per committed batch.
	CommitEvery int `yaml:"commit_every"`
	// ProgressEvery is the number of processed records between progress flushes.
	ProgressEvery int `yaml:"progress_every"`
	// FetchConcurrency bounds concurrent upstream fetches inside one run.
	FetchConcurrency int `yaml:"fetch_concurrency"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Protocol    string  `yaml:"protocol"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig configures the object storage used by the archive job.
type StorageConfig struct {
	// Type is "local" or "gcs".
	Type            string `yaml:"type"`
	BucketName      string `yaml:"bucket_name"`
	CredentialsFile string `yaml:"credentials_file"`
	BaseDir         string `yaml:"base_dir"`
}

// ArchiveConfig configures the run-history archive job.
type ArchiveConfig struct {
	RetentionDays int           `yaml:"retention_days"`
	Prefix        string        `yaml:"prefix"`
	Compression   string        `yaml:"compression"`
	Storage       StorageConfig `yaml:"storage"`
}

// BoxscoreConfig holds everything under the "boxscore" top-level key.
type BoxscoreConfig struct {
	System    SystemConfig    `yaml:"system"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Sync      SyncConfig      `yaml:"sync"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
	Archive   ArchiveConfig   `yaml:"archive"`
	// Database holds named connection settings. Each entry is decoded by the database provider.
	Database map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Boxscore BoxscoreConfig `yaml:"boxscore"`
}

// DefaultDatabaseName is the connection name used by the repositories.
const DefaultDatabaseName = "default"

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Boxscore: BoxscoreConfig{
			System: SystemConfig{
				Logging: LoggingConfig{Level: string(LogLevelInfo), Format: "console"},
			},
			Scheduler: SchedulerConfig{
				Enabled:        true,
				Timeout:        30 * time.Minute,
				StuckThreshold: time.Hour,
				SweepInterval:  time.Hour,
				TriggerWorkers: 4,
				Jobs:           map[string]time.Duration{},
			},
			Upstream: UpstreamConfig{
				Timeout:      30 * time.Second,
				RequestDelay: 600 * time.Millisecond,
				RetryDelay:   time.Second,
				MaxRetries:   3,
			},
			Sync: SyncConfig{
				Season:     "2025-26",
				SeasonType: "Regular Season",
				TTL: TTLConfig{
					PlayerStats:    time.Hour,
					Standings:      30 * time.Minute,
					Games:          time.Hour,
					PlayerInfo:     24 * time.Hour,
					SeasonAverages: 72 * time.Hour,
				},
				CommitEvery:      25,
				ProgressEvery:    5,
				FetchConcurrency: 4,
			},
			Telemetry: TelemetryConfig{
				Protocol:    "grpc",
				Endpoint:    "localhost:4317",
				Insecure:    true,
				SampleRatio: 1.0,
				ServiceName: "boxscore-sync",
			},
			Server: ServerConfig{Address: ":9090"},
			Archive: ArchiveConfig{
				RetentionDays: 30,
				Prefix:        "runs",
				Compression:   "SNAPPY",
				Storage:       StorageConfig{Type: "local", BaseDir: "./archive"},
			},
			Database: map[string]interface{}{
				DefaultDatabaseName: map[string]interface{}{
					"type": "sqlite",
					"path": "./boxscore.db",
				},
			},
		},
	}
}

// Validate rejects configurations the runtime cannot honour.
func (c *Config) Validate() error {
	s := c.Boxscore.Scheduler
	if s.Timeout <= 0 {
		return fmt.Errorf("scheduler.timeout must be positive, got %s", s.Timeout)
	}
	if s.StuckThreshold <= 0 {
		return fmt.Errorf("scheduler.stuck_threshold must be positive, got %s", s.StuckThreshold)
	}
	if s.SweepInterval <= 0 {
		return fmt.Errorf("scheduler.sweep_interval must be positive, got %s", s.SweepInterval)
	}
	if s.TriggerWorkers <= 0 {
		return fmt.Errorf("scheduler.trigger_workers must be positive, got %d", s.TriggerWorkers)
	}
	for name, every := range s.Jobs {
		if every < 0 {
			return fmt.Errorf("scheduler.jobs.%s must not be negative, got %s", name, every)
		}
	}
	if c.Boxscore.Sync.CommitEvery <= 0 || c.Boxscore.Sync.ProgressEvery <= 0 || c.Boxscore.Sync.FetchConcurrency <= 0 {
		return fmt.Errorf("sync.commit_every, sync.progress_every and sync.fetch_concurrency must be positive")
	}
	if c.Boxscore.Upstream.MaxRetries < 1 {
		return fmt.Errorf("upstream.max_retries must be at least 1, got %d", c.Boxscore.Upstream.MaxRetries)
	}
	switch c.Boxscore.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", c.Boxscore.Telemetry.Protocol)
	}
	if _, ok := c.Boxscore.Database[DefaultDatabaseName]; !ok {
		return fmt.Errorf("database.%s is not configured", DefaultDatabaseName)
	}
	return nil
}
