package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardrobe/internal/config"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session")
	s := NewFileStore(path)

	token, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save(ctx, "tok-1"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))
	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestNewTokenStore(t *testing.T) {
	s, err := NewTokenStore(config.SessionConfig{Store: "file", FilePath: "x"})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = NewTokenStore(config.SessionConfig{Store: "redis", RedisAddr: "localhost:6379"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	_, err = NewTokenStore(config.SessionConfig{Store: "keychain"})
	assert.ErrorContains(t, err, "unknown session store")
}

// Runs against a live server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	s := NewRedisStore(client, "test-"+time.Now().Format("150405.000"), time.Minute)
	defer s.Delete(ctx)

	token, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save(ctx, "tok-1"))
	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	ttl, err := client.TTL(ctx, s.key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx))
	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
