package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	u "arkana/internal/utils"
)

func TestNew_DefaultsToMemory(t *testing.T) {
	s, err := New(u.StorageConfig{})
	require.NoError(t, err)
	_, ok := s.(*memoryStorage.Storage)
	assert.True(t, ok)
	assert.NoError(t, Ping(context.Background(), s))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(u.StorageConfig{Driver: "floppy"})
	assert.Error(t, err)
}

func TestNew_RedisUsesMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := New(u.StorageConfig{Driver: "redis", RedisHost: mr.Addr()})
	require.NoError(t, err)
	_, ok := s.(*redisStorage.Storage)
	require.True(t, ok)

	require.NoError(t, s.Set("photography-packs", []byte(`{}`), 0))
	got, err := s.Get("photography-packs")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
	assert.True(t, mr.Exists("photography-packs"))
	assert.NoError(t, Ping(context.Background(), s))
}

func TestNew_RedisUnreachableFallsBackToMemory(t *testing.T) {
	s, err := New(u.StorageConfig{Driver: "redis", RedisHost: "127.0.0.1:1"})
	require.NoError(t, err)
	_, ok := s.(*memoryStorage.Storage)
	assert.True(t, ok)
}

func TestNew_PostgresRequiresHost(t *testing.T) {
	_, err := New(u.StorageConfig{Driver: "postgres"})
	assert.Error(t, err)
}
