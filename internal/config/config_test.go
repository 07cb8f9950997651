package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Len(t, cfg.Periods, 14)
	assert.Equal(t, "*/30 * * * *", cfg.Subscription.RefreshCron)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `listen: "0.0.0.0:9000"
display:
  show_weekends: true
  total_weeks: 18
  current_week: 30
basic_auth:
  username: admin
  password: secret
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.True(t, cfg.Display.ShowWeekends)
	assert.Equal(t, 18, cfg.Display.CurrentWeek, "current week is clamped to total")
	assert.Len(t, cfg.Periods, 14)
	assert.Len(t, cfg.AgendaGroups, 3)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
}

func TestInvalidPeriodTableFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `periods:
  - section: 1
    start: "08:00"
    end: "07:00"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Periods, 14)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvListen, ":7000")
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvRedisDB, "2")
	t.Setenv(EnvSubscription, "https://jw.example.edu/ics")

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, "https://jw.example.edu/ics", cfg.Subscription.URL)

	// overrides are never persisted
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "redis:6379")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("COURSEGRID_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("COURSEGRID_TEST_DOTENV", "")
	os.Unsetenv("COURSEGRID_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(envPath))
	assert.Equal(t, "from-file", os.Getenv("COURSEGRID_TEST_DOTENV"))
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "flag.yaml", ResolvePath("flag.yaml", "def.yaml"))
	t.Setenv(EnvConfigPath, "env.yaml")
	assert.Equal(t, "env.yaml", ResolvePath("", "def.yaml"))
}

func TestSaveRejectsEmptyInput(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
