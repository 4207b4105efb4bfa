package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-certificates/internal/modules/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/gcp"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
	"github.com/yungbote/neurobridge-certificates/internal/platform/redislock"
)

type Clients struct {
	Bucket gcp.BucketService
	// Redis and Locker are nil when REDIS_ADDR is unset.
	Redis  redis.UniversalClient
	Locker certificates.Locker
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	var out = Clients{Bucket: bucket}
	if cfg.RedisAddr == "" {
		log.Info("Redis not configured; certificate issuance is serialised per process only")
		return out, nil
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Lock failures degrade to unlocked issuance, so an unreachable redis
		// at boot is not fatal.
		log.Warn("Redis ping failed at startup (continuing)", "addr", cfg.RedisAddr, "error", err)
	}
	out.Redis = rdb
	out.Locker = certificates.NewRedisLocker(redislock.New(log, rdb, redislock.Options{
		TTL:  cfg.CertificateLockTTL,
		Wait: cfg.CertificateLockWait,
	}))
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
