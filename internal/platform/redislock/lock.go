package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

// ErrNotAcquired means another holder kept the key for the whole wait budget.
var ErrNotAcquired = errors.New("redislock: lock not acquired")

// Only the holder that set the token may delete the key.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type Locker struct {
	log      *logger.Logger
	rdb      client
	prefix   string
	ttl      time.Duration
	wait     time.Duration
	retry    time.Duration
	newToken func() (string, error)
}

type Options struct {
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
	Retry  time.Duration
}

func New(log *logger.Logger, rdb client, opts Options) *Locker {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	if opts.Retry <= 0 {
		opts.Retry = 100 * time.Millisecond
	}
	return &Locker{
		log:      log.With("service", "RedisLocker"),
		rdb:      rdb,
		prefix:   opts.Prefix,
		ttl:      opts.TTL,
		wait:     opts.Wait,
		retry:    opts.Retry,
		newToken: randomToken,
	}
}

// Lease is a held lock. Release is safe to call more than once.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Acquire polls SET NX PX until it wins, the wait budget runs out, or ctx ends.
func (l *Locker) Acquire(ctx context.Context, name string) (*Lease, error) {
	token, err := l.newToken()
	if err != nil {
		return nil, fmt.Errorf("redislock token: %w", err)
	}
	key := l.prefix + name
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redislock acquire %s: %w", key, err)
		}
		if ok {
			return &Lease{locker: l, key: key, token: token}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (lease *Lease) Release(ctx context.Context) error {
	if lease == nil || lease.token == "" {
		return nil
	}
	token := lease.token
	lease.token = ""
	n, err := lease.locker.rdb.Eval(ctx, releaseScript, []string{lease.key}, token).Int64()
	if err != nil {
		return fmt.Errorf("redislock release %s: %w", lease.key, err)
	}
	if n == 0 {
		lease.locker.log.Warn("Lock expired before release", "key", lease.key)
	}
	return nil
}

func randomToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
