package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "./data/ticketsplit.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "ticketsplit", cfg.Storage.Mongo.Database)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TICKETSPLIT_SERVER_PORT", "9090")
	t.Setenv("TICKETSPLIT_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("TICKETSPLIT_STORAGE_DRIVER", "mongo")
	t.Setenv("TICKETSPLIT_STORAGE_MONGO_URI", "mongodb://db:27017")
	t.Setenv("TICKETSPLIT_LOG_FORMAT", "json")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMongo, cfg.Storage.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Storage.Mongo.URI)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FlagsOverrideFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  port: 7000\n  cors_origins:\n    - https://app.example.com\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("TICKETSPLIT_LOG_LEVEL", "warn")

	cfg, err := Load(newFlags(t, "--config", path, "--port", "7100"))
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_UnsetFlagsKeepEnvironment(t *testing.T) {
	t.Setenv("TICKETSPLIT_STORAGE_SQLITE_PATH", "/tmp/other.db")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.SQLite.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown driver", []string{"--driver", "postgres"}},
		{"bad port", []string{"--port", "70000"}},
		{"bad log format", []string{"--log-format", "xml"}},
		{"bad gin mode", []string{"--gin-mode", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}
