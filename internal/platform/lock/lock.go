// Package lock provides a Redis backed lease so only one scheduler instance
// runs a cycle at a time
package lock

import (
	"context"
	"errors"
	"time"

	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the key
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing or extending a lease that expired or moved
	ErrLockNotHeld = errors.New("lock not held")
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`)

// Config holds the redis connection settings
type Config struct {
	URL       string
	KeyPrefix string
}

// ConfigFromEnv reads REDIS_URL and REDIS_KEY_PREFIX
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("REDIS_")
	return Config{
		URL:       c.MayString("URL", "redis://localhost:6379/0"),
		KeyPrefix: c.MayString("KEY_PREFIX", "retention:lock:"),
	}
}

// backend is the owner-checked key store the Locker needs
type backend interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DeleteIfOwner(ctx context.Context, key, value string) (bool, error)
	ExpireIfOwner(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// Locker hands out leases on named keys
type Locker struct {
	b         backend
	keyPrefix string
	close     func() error
}

// Lease is one held lock
type Lease struct {
	b     backend
	key   string
	token string
	ttl   time.Duration
}

// Open connects to redis and returns a Locker over it
func Open(ctx context.Context, cfg Config) (*Locker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	l := New(rdb, cfg.KeyPrefix)
	l.close = rdb.Close
	return l, nil
}

// New builds a Locker over an existing redis client
func New(rdb redis.UniversalClient, keyPrefix string) *Locker {
	return newLocker(redisBackend{rdb: rdb}, keyPrefix)
}

func newLocker(b backend, keyPrefix string) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &Locker{b: b, keyPrefix: keyPrefix}
}

// Acquire takes the lease on key or returns ErrLockNotAcquired
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	full := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.b.SetNX(ctx, full, token, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	logger.C(ctx).Debug().Str("lock", full).Msg("lock acquired")
	return &Lease{b: l.b, key: full, token: token, ttl: ttl}, nil
}

// Release drops the lease if this holder still owns it
func (ls *Lease) Release(ctx context.Context) error {
	ok, err := ls.b.DeleteIfOwner(ctx, ls.key, ls.token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the lease expiry out to ttl from now
func (ls *Lease) Extend(ctx context.Context, ttl time.Duration) error {
	ok, err := ls.b.ExpireIfOwner(ctx, ls.key, ls.token, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotHeld
	}
	ls.ttl = ttl
	return nil
}

// WithLock runs fn while holding key. A busy key returns ErrLockNotAcquired
// without running fn
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lease, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.C(ctx).Warn().Err(err).Str("lock", lease.key).Msg("lock release failed")
		}
	}()
	return fn(ctx)
}

// Close closes the redis client when the Locker owns it
func (l *Locker) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

type redisBackend struct {
	rdb redis.UniversalClient
}

func (r redisBackend) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (r redisBackend) DeleteIfOwner(ctx context.Context, key, value string) (bool, error) {
	n, err := releaseScript.Run(ctx, r.rdb, []string{key}, value).Int64()
	return n == 1, err
}

func (r redisBackend) ExpireIfOwner(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, r.rdb, []string{key}, value, ttl.Milliseconds()).Int64()
	return n == 1, err
}
