package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/grc/pkg/kvx"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces every key the service writes, so the redis
// instance can be shared with the GRC backend.
const redisKeyPrefix = "grc:auth:"

// InitKV opens the configured key-value backend. The memory backend keeps
// throttles and sessions per process and is only suitable for a single
// replica.
func InitKV(ctx context.Context, cfg Config, logger *slog.Logger) (kvx.Store, error) {
	switch cfg.KVBackend {
	case "redis":
		kv, err := kvx.DialRedis(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, redisKeyPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info("kv backend ready", "backend", "redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return kv, nil

	case "memory", "":
		logger.Info("kv backend ready", "backend", "memory")
		return kvx.NewMemory(nil), nil

	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.KVBackend)
	}
}
