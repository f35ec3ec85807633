package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return GetDefaultConfig()
}

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "VERBOSE" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }},
		{"negative shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -1 }},
		{"bad metadata type", func(c *Config) { c.Metadata.Type = "dynamodb" }},
		{"bad blob type", func(c *Config) { c.Blob.Type = "gcs" }},
		{"bad jwks url", func(c *Config) { c.Auth.JWKSURL = "not a url" }},
		{"zero upload cap", func(c *Config) { c.Upload.MaxSizeBytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateBadgerRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Metadata.Type = "badger"
	cfg.Metadata.Badger = map[string]any{"path": ""}
	assert.Error(t, Validate(cfg))

	cfg.Metadata.Badger = map[string]any{"path": "", "in_memory": true}
	assert.NoError(t, Validate(cfg))

	cfg.Metadata.Badger = map[string]any{"path": "/var/lib/drivestore/metadata"}
	assert.NoError(t, Validate(cfg))
}

func TestValidateS3RequiresBucketAndRegion(t *testing.T) {
	cfg := validConfig()
	cfg.Blob.Type = "s3"
	cfg.Blob.S3 = map[string]any{"region": "eu-west-1"}
	assert.Error(t, Validate(cfg))

	cfg.Blob.S3 = map[string]any{"bucket": "drivestore-files"}
	assert.Error(t, Validate(cfg))

	cfg.Blob.S3 = map[string]any{"bucket": "drivestore-files", "region": "eu-west-1"}
	assert.NoError(t, Validate(cfg))
}
