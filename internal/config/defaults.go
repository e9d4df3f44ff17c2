package config

import "time"

// ApplyDefaults fills every unset field with a value the process can run
// with locally.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = "ipsentinel"
	}
	if cfg.Postgres.Username == "" {
		cfg.Postgres.Username = "ipsentinel"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	if cfg.Scheduler.Tick == 0 {
		cfg.Scheduler.Tick = 5 * time.Minute
	}
	if cfg.Scheduler.BatchLimit == 0 {
		cfg.Scheduler.BatchLimit = 500
	}
	if cfg.Scheduler.Parallelism == 0 {
		cfg.Scheduler.Parallelism = 8
	}
	if cfg.Scheduler.LockTTL == 0 {
		cfg.Scheduler.LockTTL = 10 * time.Minute
	}

	if cfg.Search.FanoutLimit == 0 {
		cfg.Search.FanoutLimit = 8
	}
	if cfg.Search.CallTimeout == 0 {
		cfg.Search.CallTimeout = 10 * time.Second
	}

	// With nothing configured, run every provider against its public
	// endpoint.
	zero := ProvidersConfig{}
	if cfg.Providers == zero {
		cfg.Providers.EPO.Enabled = true
		cfg.Providers.USPTO.Enabled = true
		cfg.Providers.TMview.Enabled = true
	}
}
