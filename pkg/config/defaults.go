package config

import "strings"

// ApplyDefaults sets default values for any unspecified configuration
// fields. Called after loading from file and environment so explicit
// values are preserved and only zero values are filled in.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyPoolDefaults(&cfg.Pool)
	applyQueueDefaults(&cfg.Queue)
	applyStoreDefaults(&cfg.Store)
	applyMetricsDefaults(&cfg.Metrics)

	// A single catch-all class if none configured.
	if len(cfg.Classes) == 0 {
		cfg.Classes = []ClassConfig{
			{Name: "default", Shares: 100},
		}
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize for consistent internal representation.
	cfg.Level = strings.ToUpper(cfg.Level)
}

func applyPoolDefaults(cfg *PoolConfig) {
	// Capacity 0 (unconstrained) is a valid explicit choice and stays.
	if cfg.RatePerSecond == 0 && cfg.Capacity != 0 {
		cfg.RatePerSecond = float64(cfg.Capacity)
	}
	if cfg.ReplenishInterval == "" {
		cfg.ReplenishInterval = "500us"
	}
}

func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.MaxTransferSize == 0 {
		cfg.MaxTransferSize = 128 << 10 // 128 KiB, a common device limit
	}
	if cfg.PollInterval == "" {
		cfg.PollInterval = "1ms"
	}
	if cfg.DefaultClass == "" {
		cfg.DefaultClass = "default"
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Type == "fs" && cfg.FS.Path == "" {
		cfg.FS.Path = "/tmp/ioqueued-store"
	}
	if cfg.Type == "badger" && cfg.Badger.Dir == "" {
		cfg.Badger.Dir = "/tmp/ioqueued-badger"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Listen == "" {
		cfg.Listen = ":9090"
	}
}
