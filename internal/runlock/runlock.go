// Package runlock guarantees at most one scrape run at a time. Local guards
// a single process; RedisLocker extends the guard across instances sharing
// one Redis.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go-jobboard-scraper/pkg/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrBusy = errors.New("a scrape run is already in progress")

// Locker hands out the single run slot. TryLock never blocks: it returns
// ErrBusy when the slot is taken. The release func is safe to call twice.
type Locker interface {
	TryLock(ctx context.Context) (release func(), err error)
}

type Local struct {
	busy atomic.Bool
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) TryLock(_ context.Context) (func(), error) {
	if !l.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			l.busy.Store(false)
		}
	}, nil
}

const DefaultKey = "jobboard:scrape:lock"

// only the holder's token may delete the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker takes the slot with SET NX PX and extends the TTL every third
// of it while the run holds the slot. The TTL bounds how long a crashed
// holder can block other instances.
type RedisLocker struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	local *Local
	log   *logging.Logger
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration, log *logging.Logger) *RedisLocker {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if log == nil {
		log = logging.Nop()
	}
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl, local: NewLocal(), log: log}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisLocker) TryLock(ctx context.Context) (func(), error) {
	// cheap in-process check first so one instance never races itself
	releaseLocal, err := r.local.TryLock(ctx)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		releaseLocal()
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		releaseLocal()
		return nil, ErrBusy
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		keepAlive(stop, r.ttl/3, func() (bool, error) { return r.extend(token) }, r.log)
	}()

	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		defer releaseLocal()
		close(stop)
		<-stopped
		// the caller's ctx may already be done when the run ends
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.rdb, []string{r.key}, token).Err(); err != nil {
			r.log.Warn("⚠️ Failed to release run lock", "key", r.key, "error", err)
		}
	}, nil
}

func (r *RedisLocker) extend(token string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := extendScript.Run(ctx, r.rdb, []string{r.key}, token, r.ttl.Milliseconds()).Int64()
	return n == 1, err
}

// keepAlive calls extend every interval until stop is closed or the lock is
// found lost. Transient errors are retried on the next tick.
func keepAlive(stop <-chan struct{}, every time.Duration, extend func() (bool, error), log *logging.Logger) {
	if every <= 0 {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			held, err := extend()
			switch {
			case err != nil:
				log.Warn("⚠️ Failed to extend run lock", "error", err)
			case !held:
				log.Warn("⚠️ Run lock lost to another holder")
				return
			}
		}
	}
}
