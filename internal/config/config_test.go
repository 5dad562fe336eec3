package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/kv"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.StorageDriver != kv.DriverFile || cfg.StoragePath != "./data" {
		t.Errorf("expected file storage in ./data, got %s %s", cfg.StorageDriver, cfg.StoragePath)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if !cfg.EagerInit {
		t.Error("expected EAGER_INIT to default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", " SQLite ")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("EAGER_INIT", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.StorageDriver != kv.DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.StorageDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.EagerInit {
		t.Error("expected EAGER_INIT=false")
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", cfg.Level())
	}
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STORAGE_DRIVER=memory\nPORT=7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver != kv.DriverMemory || cfg.Port != "7070" {
		t.Errorf("expected values from env file, got %s %s", cfg.StorageDriver, cfg.Port)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Level(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"WARN":  zerolog.WarnLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := (&Config{LogLevel: in}).Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfig_StorageOptions(t *testing.T) {
	tests := []struct {
		driver, path, want string
	}{
		{kv.DriverFile, "./data", "./data"},
		{kv.DriverSQLite, "./data", filepath.Join("./data", "dash.db")},
		{kv.DriverSQLite, "/var/lib/dash/registry.db", "/var/lib/dash/registry.db"},
	}
	for _, tt := range tests {
		c := &Config{StorageDriver: tt.driver, StoragePath: tt.path}
		if got := c.StorageOptions().Path; got != tt.want {
			t.Errorf("%s %s: got %s, want %s", tt.driver, tt.path, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Port: "8080", LogLevel: "info", StorageDriver: kv.DriverFile, StoragePath: "./data"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"memory without path", func(c *Config) { c.StorageDriver = kv.DriverMemory; c.StoragePath = "" }, false},
		{"unknown driver", func(c *Config) { c.StorageDriver = "redis" }, true},
		{"file without path", func(c *Config) { c.StoragePath = " " }, true},
		{"sqlite without path", func(c *Config) { c.StorageDriver = kv.DriverSQLite; c.StoragePath = "" }, true},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
