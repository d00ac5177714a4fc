package config

import "go.uber.org/fx"

// Module provides the configuration sections to fx so components can depend on
// the slice they need instead of the whole tree.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander { return NewOsEnvironmentExpander() }),
	fx.Provide(
		func(cfg *Config) *LoggingConfig { return &cfg.Boxscore.System.Logging },
		func(cfg *Config) *SchedulerConfig { return &cfg.Boxscore.Scheduler },
		func(cfg *Config) *UpstreamConfig { return &cfg.Boxscore.Upstream },
		func(cfg *Config) *SyncConfig { return &cfg.Boxscore.Sync },
		func(cfg *Config) *TelemetryConfig { return &cfg.Boxscore.Telemetry },
		func(cfg *Config) *ServerConfig { return &cfg.Boxscore.Server },
		func(cfg *Config) *ArchiveConfig { return &cfg.Boxscore.Archive },
	),
)
