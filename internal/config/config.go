// Package config resolves process configuration from the environment.
// Every field is read once at startup into a typed Config and passed
// explicitly through constructors; nothing here is a package-level
// global.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Logging holds the logger's own configuration.
type Logging struct {
	Level    string
	Encoding string
}

// Config is the fully resolved process configuration.
type Config struct {
	Port           int
	Env            string
	CORSOrigin     string
	PostgresURL    string
	RedisURL       string
	ClickHouseURL  string
	ClusterEnabled bool
	WorkerCount    int
	WorkerID       int
	RefreshCron    string
	WorkerPoolSize int
	Logging        Logging
}

// IsDevelopment reports whether the process is running in development
// mode, the only mode that puts stack traces in error response bodies.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// IsPrimary reports whether this process is the one replica that runs
// the ranking refresher: worker #1 in a clustered deployment, or the
// sole process when clustering is disabled.
func (c Config) IsPrimary() bool {
	if !c.ClusterEnabled {
		return true
	}
	return c.WorkerID == 1
}

// Load resolves configuration from the environment, applying the same
// defaults spec.md's environment table calls for.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("PORT", 3000)
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CLICKHOUSE_URL", "")
	v.SetDefault("CLUSTER_ENABLED", true)
	v.SetDefault("WORKER_COUNT", runtime.NumCPU())
	v.SetDefault("WORKER_ID", 1)
	v.SetDefault("REDIRECT_REFRESH_CRON", "0 30 * * * *")
	v.SetDefault("DISPATCH_WORKER_POOL_SIZE", 32)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_ENCODING", "json")

	cfg := Config{
		Port:           v.GetInt("PORT"),
		Env:            v.GetString("APP_ENV"),
		CORSOrigin:     v.GetString("CORS_ORIGIN"),
		PostgresURL:    v.GetString("POSTGRES_URL"),
		RedisURL:       v.GetString("REDIS_URL"),
		ClickHouseURL:  v.GetString("CLICKHOUSE_URL"),
		ClusterEnabled: v.GetBool("CLUSTER_ENABLED"),
		WorkerCount:    v.GetInt("WORKER_COUNT"),
		WorkerID:       v.GetInt("WORKER_ID"),
		RefreshCron:    v.GetString("REDIRECT_REFRESH_CRON"),
		WorkerPoolSize: v.GetInt("DISPATCH_WORKER_POOL_SIZE"),
		Logging: Logging{
			Level:    v.GetString("LOG_LEVEL"),
			Encoding: v.GetString("LOG_ENCODING"),
		},
	}

	if cfg.Port <= 0 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.WorkerID <= 0 {
		cfg.WorkerID = 1
	}

	return cfg, nil
}

// Degraded reports which required stores are unconfigured. A
// PermanentConfig condition (spec.md §7): the process still binds its
// HTTP listener and answers health checks, but /api/* and / answer 503
// until these are set.
func (c Config) Degraded() []string {
	var missing []string
	if c.PostgresURL == "" {
		missing = append(missing, "POSTGRES_URL")
	}
	if c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if c.ClickHouseURL == "" {
		missing = append(missing, "CLICKHOUSE_URL")
	}
	return missing
}
