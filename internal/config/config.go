package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"coursegrid/internal/grid"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
)

// Environment variables that override the YAML file.
const (
	EnvConfigPath    = "COURSEGRID_CONFIG"
	EnvListen        = "COURSEGRID_LISTEN"
	EnvRedisAddr     = "COURSEGRID_REDIS_ADDR"
	EnvRedisPassword = "COURSEGRID_REDIS_PASSWORD"
	EnvRedisDB       = "COURSEGRID_REDIS_DB"
	EnvSubscription  = "COURSEGRID_SUBSCRIPTION_URL"
	EnvLogLevel      = "COURSEGRID_LOG_LEVEL"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultDataDir     = "./var/data"
	defaultCacheDir    = "./var/ics-cache"
	defaultRefreshCron = "*/30 * * * *"
	defaultRedisPrefix = "coursegrid:"
)

// LogConfig selects the log level and encoder ("console" or "json").
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// StorageConfig points at the course store. Dir is always used; Redis is
// preferred when Addr is set, with Dir as fallback.
type StorageConfig struct {
	Dir           string `yaml:"dir" json:"dir"`
	RedisAddr     string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty" json:"-"`
	RedisDB       int    `yaml:"redis_db,omitempty" json:"redis_db,omitempty"`
	RedisPrefix   string `yaml:"redis_prefix,omitempty" json:"redis_prefix,omitempty"`
}

// SubscriptionConfig is an optional ICS feed refreshed on a cron schedule.
type SubscriptionConfig struct {
	URL string `yaml:"url" json:"url"`
	// RefreshCron is a 5-field cron expression (e.g. "*/30 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`
	CacheDir    string `yaml:"cache_dir" json:"cache_dir"`
}

// SnapshotConfig controls the headless-browser PNG of the grid page.
type SnapshotConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	// TimeoutSec bounds a single capture.
	TimeoutSec int `yaml:"timeout_sec" json:"timeout_sec"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	Log LogConfig `yaml:"log" json:"log"`

	// Periods maps section numbers to wall-clock times. An invalid table is
	// replaced by the built-in one.
	Periods period.Table `yaml:"periods" json:"periods"`

	// AgendaGroups splits the daily view into named section ranges.
	AgendaGroups []grid.Group `yaml:"agenda_groups" json:"agenda_groups"`

	// Display holds the initial view settings. Settings saved through the
	// API take precedence once they exist in storage.
	Display model.DisplaySettings `yaml:"display" json:"display"`

	Storage      StorageConfig      `yaml:"storage" json:"storage"`
	Subscription SubscriptionConfig `yaml:"subscription" json:"subscription"`
	Snapshot     SnapshotConfig     `yaml:"snapshot" json:"snapshot"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Log:          LogConfig{Level: "info", Format: "console"},
		Periods:      period.Default(),
		AgendaGroups: grid.DefaultGroups(),
		Display:      model.DefaultSettings(),
		Storage:      StorageConfig{Dir: defaultDataDir, RedisPrefix: defaultRedisPrefix},
		Subscription: SubscriptionConfig{RefreshCron: defaultRefreshCron, CacheDir: defaultCacheDir},
		Snapshot:     SnapshotConfig{Width: 1280, Height: 900, TimeoutSec: 30},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		c.Log.Format = "console"
	}

	if len(c.Periods) == 0 {
		c.Periods = period.Default()
	} else if err := c.Periods.Validate(); err != nil {
		appLog.Error("config: invalid period table, using default", err)
		c.Periods = period.Default()
	}
	if len(c.AgendaGroups) == 0 {
		c.AgendaGroups = grid.DefaultGroups()
	}
	c.Display.Normalize()

	if c.Storage.Dir == "" {
		c.Storage.Dir = defaultDataDir
	}
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = defaultRedisPrefix
	}
	if c.Subscription.RefreshCron == "" {
		c.Subscription.RefreshCron = defaultRefreshCron
	}
	if c.Subscription.CacheDir == "" {
		c.Subscription.CacheDir = defaultCacheDir
	}

	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = 1280
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = 900
	}
	if c.Snapshot.TimeoutSec <= 0 {
		c.Snapshot.TimeoutSec = 30
	}

	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		c.BasicAuth = nil
	}
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ResolvePath picks the config path: the flag value if set, then
// COURSEGRID_CONFIG, then def.
func ResolvePath(flagValue, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return def
}

// ApplyEnv overrides fields from COURSEGRID_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisDB)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Storage.RedisDB = n
		} else {
			appLog.Error("config: ignoring invalid "+EnvRedisDB, err, "value", v)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSubscription)); v != "" {
		c.Subscription.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
//
// Environment overrides are applied in both cases but never written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// 최초 실행: 기본 설정 파일 생성
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				cfg.ApplyEnv()
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically via a temp file + rename, with 0600
// permissions on the result.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".coursegrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
