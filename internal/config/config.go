// Package config loads runtime settings from defaults, an optional YAML file
// and TASKFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"taskflow/internal/progress"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "taskflow.yaml"

// Config is the full runtime configuration.
type Config struct {
	Addr      string        `mapstructure:"addr"`
	StaticDir string        `mapstructure:"static_dir"`
	SeedFile  string        `mapstructure:"seed_file"`
	LogLevel  string        `mapstructure:"log_level"`
	DB        DBConfig      `mapstructure:"db"`
	Cache     CacheConfig   `mapstructure:"cache"`
	Session   SessionConfig `mapstructure:"session"`
}

// DBConfig selects the persistence backend.
type DBConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// CacheConfig holds per-read cache lifetimes.
type CacheConfig struct {
	CatalogTTL  time.Duration `mapstructure:"catalog_ttl"`
	DailyTTL    time.Duration `mapstructure:"daily_ttl"`
	BoardTTL    time.Duration `mapstructure:"board_ttl"`
	ProgressTTL time.Duration `mapstructure:"progress_ttl"`
	MapTTL      time.Duration `mapstructure:"map_ttl"`
}

// SessionConfig controls login cookies.
type SessionConfig struct {
	CookieName  string        `mapstructure:"cookie_name"`
	TTL         time.Duration `mapstructure:"ttl"`
	RememberFor time.Duration `mapstructure:"remember_for"`
	Secure      bool          `mapstructure:"secure"`
}

// TTLs converts the cache section for the progress service.
func (c CacheConfig) TTLs() progress.TTLs {
	return progress.TTLs{
		Catalog:  c.CatalogTTL,
		Daily:    c.DailyTTL,
		Board:    c.BoardTTL,
		Progress: c.ProgressTTL,
		Map:      c.MapTTL,
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setDefaults(v *viper.Viper) {
	ttl := progress.DefaultTTLs()
	v.SetDefault("addr", ":8080")
	v.SetDefault("static_dir", "web/dist")
	v.SetDefault("seed_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.driver", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.connect_retries", 10)
	v.SetDefault("db.retry_delay", 5*time.Second)
	v.SetDefault("cache.catalog_ttl", ttl.Catalog)
	v.SetDefault("cache.daily_ttl", ttl.Daily)
	v.SetDefault("cache.board_ttl", ttl.Board)
	v.SetDefault("cache.progress_ttl", ttl.Progress)
	v.SetDefault("cache.map_ttl", ttl.Map)
	v.SetDefault("session.cookie_name", "taskflow_session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.remember_for", 30*24*time.Hour)
	v.SetDefault("session.secure", false)
}

// Load reads configuration. An empty path tries DefaultFile and silently
// skips it when absent; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyDatabaseURL(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyDatabaseURL honours the DATABASE_URL convention of hosted Postgres
// when no backend was chosen explicitly, and defaults to a local SQLite file.
func applyDatabaseURL(cfg *Config) {
	if cfg.DB.Driver != "" {
		if cfg.DB.DSN == "" && cfg.DB.Driver == "sqlite3" {
			cfg.DB.DSN = "data/taskflow.db"
		}
		return
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DB.Driver = "postgres"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = url
		}
		return
	}
	cfg.DB.Driver = "sqlite3"
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = "data/taskflow.db"
	}
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("db.driver %q: must be sqlite3, postgres or memory", c.DB.Driver)
	}
	if c.DB.Driver != "memory" && c.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}
	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	return nil
}
