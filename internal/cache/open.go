package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

// Open returns the cache for cfg: Redis when an address is set and
// reachable, otherwise a Nop store. An unreachable Redis is logged and
// the run continues uncached.
func Open(ctx context.Context, cfg RedisConfig, logger *zap.Logger) Store {
	if cfg.Addr == "" {
		return Nop{}
	}

	store := NewRedisStore(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, continuing without cache",
			zap.String("addr", cfg.Addr), zap.Error(err))
		_ = store.Close()
		return Nop{}
	}

	logger.Info("using redis cache", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return store
}
