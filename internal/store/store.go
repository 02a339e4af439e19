package store

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	u "arkana/internal/utils"
)

// New opens the key/value storage selected by cfg.Driver. A redis backend
// that cannot be initialised falls back to memory so the site keeps serving
// its built-in catalog.
func New(cfg u.StorageConfig) (fiber.Storage, error) {
	switch cfg.Driver {
	case "", "memory":
		return memoryStorage.New(), nil
	case "redis":
		return newRedis(cfg), nil
	case "postgres":
		return NewPostgres(cfg.Postgres)
	case "bolt":
		return NewBolt(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newRedis(cfg u.StorageConfig) (s fiber.Storage) {
	s = memoryStorage.New()
	defer func() {
		if r := recover(); r != nil {
			u.Error("Redis storage init panicked, falling back to memory", "panic", r)
		}
	}()
	s = redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.RedisHost},
		Database: cfg.RedisDB,
	})
	u.Info("Using Redis for site storage", "addr", cfg.RedisHost, "db", cfg.RedisDB)
	return s
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping reports whether the storage backend is reachable. Backends without a
// remote dependency are always ready.
func Ping(ctx context.Context, s fiber.Storage) error {
	switch st := s.(type) {
	case *redisStorage.Storage:
		return st.Conn().Ping(ctx).Err()
	case pinger:
		return st.Ping(ctx)
	default:
		return nil
	}
}
