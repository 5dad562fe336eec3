package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/kv"
)

// sqliteFile is the database name used when STORAGE_PATH is a directory.
const sqliteFile = "dash.db"

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	LogLevel      string   `mapstructure:"LOG_LEVEL"`
	StorageDriver string   `mapstructure:"STORAGE_DRIVER"`
	StoragePath   string   `mapstructure:"STORAGE_PATH"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	// EagerInit loads (or seeds) the registry at startup. When false the
	// registry loads on first access instead; seeding still happens then
	// if nothing is persisted.
	EagerInit bool `mapstructure:"EAGER_INIT"`
}

// Load reads the environment, falling back to a .env file in the working
// directory when present.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", kv.DriverFile)
	v.SetDefault("STORAGE_PATH", "./data")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("EAGER_INIT", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "STORAGE_DRIVER", "STORAGE_PATH", "CORS_ORIGINS", "EAGER_INIT"} {
		_ = v.BindEnv(key)
	}

	// Try reading the env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level returns the zerolog level named by LOG_LEVEL, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// StorageOptions translates the storage settings for kv.Open. A sqlite path
// without a .db suffix is treated as a directory.
func (c *Config) StorageOptions() kv.Options {
	path := c.StoragePath
	if c.StorageDriver == kv.DriverSQLite && filepath.Ext(path) != ".db" {
		path = filepath.Join(path, sqliteFile)
	}
	return kv.Options{Driver: c.StorageDriver, Path: path}
}

// Validate checks that the configuration can be served.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case kv.DriverMemory:
	case kv.DriverFile, kv.DriverSQLite:
		if strings.TrimSpace(c.StoragePath) == "" {
			return fmt.Errorf("STORAGE_PATH is required for the %s driver", c.StorageDriver)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be \"file\", \"sqlite\" or \"memory\", got %q", c.StorageDriver)
	}

	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}
