package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redirectdispatch/dispatcher/internal/config"
)

func TestIsPrimaryUnclustered(t *testing.T) {
	cfg := config.Config{ClusterEnabled: false, WorkerID: 7}
	require.True(t, cfg.IsPrimary(), "an unclustered deployment is always primary")
}

func TestIsPrimaryClustered(t *testing.T) {
	require.True(t, config.Config{ClusterEnabled: true, WorkerID: 1}.IsPrimary())
	require.False(t, config.Config{ClusterEnabled: true, WorkerID: 2}.IsPrimary())
}

func TestDegradedListsMissingRequiredStores(t *testing.T) {
	cfg := config.Config{PostgresURL: "postgres://x"}
	missing := cfg.Degraded()
	require.Contains(t, missing, "REDIS_URL")
	require.Contains(t, missing, "CLICKHOUSE_URL")
	require.NotContains(t, missing, "POSTGRES_URL")
}

func TestLoadAppliesDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "CLUSTER_ENABLED", "WORKER_ID", "REDIRECT_REFRESH_CRON"} {
		_ = os.Unsetenv(key)
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "production", cfg.Env)
	require.True(t, cfg.ClusterEnabled)
	require.Equal(t, 1, cfg.WorkerID)
	require.Equal(t, "0 30 * * * *", cfg.RefreshCron)
}
