package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeConfigFixture marshals doc to YAML in a temp dir and returns its path.
func writeConfigFixture(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfigFixture(t, map[string]any{
		"logging": map[string]any{
			"level": "DEBUG",
		},
		"server": map[string]any{
			"listen_address": ":9090",
		},
		"metadata": map[string]any{
			"type": "badger",
			"badger": map[string]any{
				"path": "/tmp/drivestore-test",
			},
		},
		"blob": map[string]any{
			"type": "s3",
			"s3": map[string]any{
				"bucket": "drivestore-files",
				"region": "eu-west-1",
			},
		},
		"auth": map[string]any{
			"jwks_url": "https://auth.example.com/.well-known/jwks.json",
			"issuer":   "https://auth.example.com",
		},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	// Explicit values preserved
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Server.ListenAddress)
	assert.Equal(t, "badger", cfg.Metadata.Type)
	assert.Equal(t, "/tmp/drivestore-test", cfg.Metadata.Badger["path"])
	assert.Equal(t, "s3", cfg.Blob.Type)
	assert.Equal(t, "drivestore-files", cfg.Blob.S3["bucket"])
	assert.Equal(t, "https://auth.example.com/.well-known/jwks.json", cfg.Auth.JWKSURL)

	// Defaults filled in
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.Auth.Leeway)
	assert.Equal(t, int64(5<<30), cfg.Upload.MaxSizeBytes)
}

func TestLoadNoConfigFile(t *testing.T) {
	// A missing config file is fine; everything falls back to defaults.
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, "memory", cfg.Metadata.Type)
	assert.Equal(t, "memory", cfg.Blob.Type)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: INFO\n  broken [[["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadNormalizesLogLevel(t *testing.T) {
	path := writeConfigFixture(t, map[string]any{
		"logging": map[string]any{"level": "debug"},
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DRIVESTORE_LOGGING_LEVEL", "ERROR")

	path := writeConfigFixture(t, map[string]any{
		"logging": map[string]any{"level": "INFO"},
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}
