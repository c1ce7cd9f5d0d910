package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
)

var (
	ErrLockNotAcquired = errors.New(errors.CodeConflict, "model lock not acquired")
	ErrLockNotHeld     = errors.New(errors.CodeConflict, "model lock not held")
)

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

type LockOption func(*ModelLocker)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *ModelLocker) { l.ttl = ttl }
}

func WithRetryDelay(d time.Duration) LockOption {
	return func(l *ModelLocker) { l.retryDelay = d }
}

func WithRetryCount(n int) LockOption {
	return func(l *ModelLocker) { l.retryCount = n }
}

// ModelLocker serializes mutations of one model across service instances.
// A held lock is kept alive by a watchdog until released.
type ModelLocker struct {
	client     *Client
	logger     logging.Logger
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

func NewModelLocker(client *Client, log logging.Logger, opts ...LockOption) *ModelLocker {
	if log == nil {
		log = logging.NewNopLogger()
	}
	l := &ModelLocker{
		client:     client,
		logger:     log.Named("lock"),
		ttl:        30 * time.Second,
		retryDelay: 50 * time.Millisecond,
		retryCount: 100,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ModelLocker) key(id common.ID) string {
	return l.client.Key("lock", "model", string(id))
}

// Lock blocks until the lock for id is held, ctx is done or the retries run
// out. The returned func releases it.
func (l *ModelLocker) Lock(ctx context.Context, id common.ID) (func(), error) {
	for i := 0; i < l.retryCount; i++ {
		unlock, ok, err := l.TryLock(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			return unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, ErrLockNotAcquired.WithDetail("id=" + string(id))
}

// TryLock makes one attempt.
func (l *ModelLocker) TryLock(ctx context.Context, id common.ID) (func(), bool, error) {
	if l.client.isClosed() {
		return nil, false, ErrClientClosed
	}
	key := l.key(id)
	token := uuid.New().String()
	ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "acquiring model lock")
	}
	if !ok {
		return nil, false, nil
	}

	wctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go l.watchdog(wctx, key, token, done)

	return func() {
		cancel()
		<-done
		rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer rcancel()
		if err := l.release(rctx, key, token); err != nil {
			l.logger.Warn("releasing model lock failed",
				logging.String(logging.FieldModelID, string(id)), logging.Err(err))
		}
	}, true, nil
}

func (l *ModelLocker) release(ctx context.Context, key, token string) error {
	res, err := unlockScript.Run(ctx, l.client.rdb, []string{key}, token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "releasing model lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (l *ModelLocker) extend(ctx context.Context, key, token string) (bool, error) {
	res, err := extendScript.Run(ctx, l.client.rdb, []string{key}, token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (l *ModelLocker) watchdog(ctx context.Context, key, token string, done chan struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.extend(ctx, key, token)
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Error("watchdog failed to extend model lock", logging.String("key", key), logging.Err(err))
				}
				return
			}
			if !ok {
				l.logger.Warn("watchdog lost model lock", logging.String("key", key))
				return
			}
		}
	}
}

//Personal.AI order the ending
