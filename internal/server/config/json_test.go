package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":              "www.example:9000",
		"database_dsn":                    "postgres://x",
		"secret_key":                      "my_secret_key",
		"session_token_validity_duration": "720h",
		"dev_mode":                        true,
		"cors_origins":                    []string{"https://mymee.link"},
		"otp_store":                       "redis",
		"otp_retention":                   "2h",
		"redis_db":                        2,
		"storage_backend":                 "s3",
		"s3_bucket":                       "bucket",
		"s3_public_base_url":              "https://cdn.example",
		"smtp_host":                       "smtp.example",
		"smtp_port":                       587,
		"whatsapp_api_url":                "https://wa.example/send",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 720*time.Hour, cfg.SessionTokenValidityDuration)
		assert.True(t, cfg.DevMode)
		assert.Equal(t, []string{"https://mymee.link"}, cfg.CORSOrigins)
		assert.Equal(t, "redis", cfg.OTPStore)
		assert.Equal(t, 2*time.Hour, cfg.OTPRetention)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, "s3", cfg.StorageBackend)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "https://cdn.example", cfg.S3PublicBaseURL)
		assert.Equal(t, "smtp.example", cfg.SMTPHost)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.Equal(t, "https://wa.example/send", cfg.WhatsAppAPIURL)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "us-east-1", cfg.S3Region)
		assert.Equal(t, "uploads", cfg.UploadDir)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.MigrateOnStart)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP:             "defaults:1234",
			SecretKey:                    "key",
			SessionTokenValidityDuration: 2 * time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.SessionTokenValidityDuration)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
