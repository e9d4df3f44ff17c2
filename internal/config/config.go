// Package config provides configuration loading, defaults, and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ipsentinel/ipsentinel/internal/infrastructure/database/postgres"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/database/redis"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/messaging/kafka"
	"github.com/ipsentinel/ipsentinel/internal/infrastructure/monitoring/logging"
)

// Config is the root configuration tree.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       logging.Config  `mapstructure:"log"`
	Postgres  postgres.Config `mapstructure:"postgres"`
	Redis     redis.Config    `mapstructure:"redis"`
	Kafka     kafka.Config    `mapstructure:"kafka"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Search    SearchConfig    `mapstructure:"search"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig hosts the health and metrics endpoints of the tracker
// process.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SchedulerConfig tunes the tracking scheduler. The per-asset poll cadence
// comes from the subscription tier, not from here; Tick only sets how often
// the scheduler looks for due work.
type SchedulerConfig struct {
	Tick        time.Duration `mapstructure:"tick"`
	BatchLimit  int           `mapstructure:"batch_limit"`
	Parallelism int           `mapstructure:"parallelism"`
	LockEnabled bool          `mapstructure:"lock_enabled"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

// SearchConfig tunes the provider dispatcher.
type SearchConfig struct {
	FanoutLimit int           `mapstructure:"fanout_limit"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// ProviderConfig configures one upstream source.
type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// ProvidersConfig lists the upstream sources. Registration order in main
// follows the field order here, which is what fixes the merge order of
// aggregate search results.
type ProvidersConfig struct {
	EPO    ProviderConfig `mapstructure:"epo"`
	USPTO  ProviderConfig `mapstructure:"uspto"`
	TMview ProviderConfig `mapstructure:"tmview"`
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Scheduler.Tick <= 0 {
		return fmt.Errorf("scheduler.tick must be positive, got %s", c.Scheduler.Tick)
	}
	if c.Scheduler.BatchLimit <= 0 {
		return fmt.Errorf("scheduler.batch_limit must be positive, got %d", c.Scheduler.BatchLimit)
	}
	if c.Scheduler.Parallelism <= 0 {
		return fmt.Errorf("scheduler.parallelism must be positive, got %d", c.Scheduler.Parallelism)
	}
	if c.Scheduler.LockEnabled && c.Scheduler.LockTTL <= 0 {
		return fmt.Errorf("scheduler.lock_ttl must be positive when the lock is enabled")
	}
	if c.Search.FanoutLimit <= 0 {
		return fmt.Errorf("search.fanout_limit must be positive, got %d", c.Search.FanoutLimit)
	}
	if c.Search.CallTimeout <= 0 {
		return fmt.Errorf("search.call_timeout must be positive, got %s", c.Search.CallTimeout)
	}
	if !c.Providers.EPO.Enabled && !c.Providers.USPTO.Enabled && !c.Providers.TMview.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}
	return nil
}
