package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/kalshigym/internal/modules/environment"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5001, cfg.Port)
	assert.Equal(t, 1000, cfg.HistoryRetention)
	assert.Equal(t, 2*time.Second, cfg.DashboardTimeout)
	assert.Empty(t, cfg.DashboardURL)
	assert.Equal(t, filepath.Join(dir, "rollouts"), cfg.RolloutDir)
	assert.Equal(t, filepath.Join(dir, "dashboard.db"), cfg.DatabasePath())
	assert.False(t, cfg.S3.Enabled())

	assert.Equal(t, environment.DefaultConfig(), cfg.EnvironmentConfig())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9001")
	t.Setenv("DASHBOARD_URL", "http://localhost:5001/")
	t.Setenv("ENV_REWARD_STRATEGY", "Shaped")
	t.Setenv("ENV_FUNDS_POLICY", "skip")
	t.Setenv("ENV_RISK_FLOOR", "0.5")
	t.Setenv("ENV_SEED", "7")
	t.Setenv("ENV_CONTRACT_HORIZON", "4")
	t.Setenv("S3_BUCKET", "rollouts")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "http://localhost:5001", cfg.DashboardURL)
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.S3.ForcePathStyle)

	env := cfg.EnvironmentConfig()
	assert.Equal(t, environment.RewardShaped, env.Reward)
	assert.Equal(t, environment.FundsSkip, env.FundsPolicy)
	assert.Equal(t, 0.5, env.RiskFloor)
	assert.Equal(t, uint64(7), env.Seed)
	assert.Equal(t, 4, env.ContractHorizon)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown reward strategy", key: "ENV_REWARD_STRATEGY", value: "greedy"},
		{name: "risk floor out of range", key: "ENV_RISK_FLOOR", value: "1.5"},
		{name: "unknown funds policy", key: "ENV_FUNDS_POLICY", value: "borrow"},
		{name: "non-positive retention", key: "HISTORY_RETENTION", value: "0"},
		{name: "port out of range", key: "PORT", value: "70000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATA_DIR", t.TempDir())
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers_IgnoreMalformedValues(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_FLOAT", "1.x")
	t.Setenv("TEST_BOOL", "maybe")

	assert.Equal(t, 3, getEnvAsInt("TEST_INT", 3))
	assert.Equal(t, 0.5, getEnvAsFloat("TEST_FLOAT", 0.5))
	assert.True(t, getEnvAsBool("TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnv("TEST_UNSET_KEY", "fallback"))
}
