package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("UPLOAD_TIMEOUT", "45s")
	t.Setenv("PHOTOROOM_API_KEY", "pk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 45*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, "pk-test", cfg.BackgroundRemoval.APIKey)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "clothing-images", cfg.Storage.Bucket)
	assert.Equal(t, "minio", cfg.Storage.Driver)
	assert.Equal(t, "file", cfg.Session.Store)
	assert.Equal(t, 60*time.Second, cfg.BackgroundRemoval.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, 0, cfg.Upload.MaxDimension)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "invalid")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "UTC"}
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}
