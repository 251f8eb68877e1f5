package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for dosekeeper
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Alarms   AlarmsConfig   `mapstructure:"alarms"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Log      LogConfig      `mapstructure:"log"`
}

// StorageConfig selects and locates the medicine store
type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // file, sqlite, badger, postgres, memory
	DataDir     string `mapstructure:"data_dir"`
	FilePath    string `mapstructure:"file_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	BadgerPath  string `mapstructure:"badger_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// AlarmsConfig holds local alarm settings
type AlarmsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ChannelID   string `mapstructure:"channel_id"`
	ChannelName string `mapstructure:"channel_name"`
}

// NotifyConfig controls how fired alarms reach the user
type NotifyConfig struct {
	Command            []string `mapstructure:"command"` // e.g. ["notify-send"]
	MinIntervalSeconds int      `mapstructure:"min_interval_seconds"`
	BreakerFailures    int      `mapstructure:"breaker_failures"`
}

// ServerConfig holds the local HTTP API settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// SecurityConfig holds API authentication settings
type SecurityConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	AdminPassword string   `mapstructure:"admin_password"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// RefreshConfig controls the periodic dose view refresh
type RefreshConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	Watch           bool `mapstructure:"watch"`
}

// StatsConfig holds statistics defaults
type StatsConfig struct {
	DefaultDays       int `mapstructure:"default_days"`
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = GetEnvDefault("DOSEKEEPER_DATA_DIR", getDefaultDataDir())
	}
	dataDir = expandPath(dataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.SetDefault("storage.data_dir", dataDir)
	v.SetDefault("storage.file_path", filepath.Join(dataDir, "dosekeeper.json"))
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "dosekeeper.db"))
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "dosekeeper.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (DOSEKEEPER_STORAGE_BACKEND, DOSEKEEPER_SERVER_PORT, etc.)
	v.SetEnvPrefix("DOSEKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("alarms.enabled", true)
	v.SetDefault("alarms.channel_id", "medicine-alarm")
	v.SetDefault("alarms.channel_name", "Medicine Alarms")

	v.SetDefault("notify.command", []string{})
	v.SetDefault("notify.min_interval_seconds", 5)
	v.SetDefault("notify.breaker_failures", 3)

	// Loopback only: the API serves a local UI
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8787)

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.admin_password", "")
	v.SetDefault("security.allow_origins", []string{"http://localhost"})

	v.SetDefault("refresh.interval_seconds", 60)
	v.SetDefault("refresh.watch", true)

	v.SetDefault("stats.default_days", 7)
	v.SetDefault("stats.low_stock_threshold", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dosekeeper")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "dosekeeper")
}

var backends = map[string]bool{
	"file":     true,
	"sqlite":   true,
	"badger":   true,
	"postgres": true,
	"memory":   true,
}

func validate(cfg *Config) error {
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if !backends[cfg.Storage.Backend] {
		return fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "postgres" && cfg.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Refresh.IntervalSeconds <= 0 {
		cfg.Refresh.IntervalSeconds = 60
	}
	if cfg.Stats.DefaultDays <= 0 {
		cfg.Stats.DefaultDays = 7
	}
	if cfg.Stats.DefaultDays > 366 {
		return fmt.Errorf("stats.default_days %d exceeds 366", cfg.Stats.DefaultDays)
	}

	// Generate JWT secret if not provided
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = generateRandomString(32)
	}

	return nil
}

func generateRandomString(n int) string {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("x", n)
	}
	return hex.EncodeToString(b)
}

// Addr returns host:port for the API server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
