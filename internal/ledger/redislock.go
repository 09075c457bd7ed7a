package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"maplecase/pkg/domain"
)

const (
	redisLockTTL   = 15 * time.Second
	redisLockRetry = 50 * time.Millisecond
)

// unlockScript releases the lock only if this holder still owns it, so a
// holder whose TTL expired cannot release someone else's lock.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializes case writers across nodes with a SET NX lease.
// The TTL bounds how long a crashed holder can block a case.
type RedisLocker struct {
	client redis.Cmdable
}

// NewRedisLocker wraps a connected redis client.
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

// Lock polls SET NX until the lease is acquired or the context expires.
func (l *RedisLocker) Lock(ctx context.Context, caseID domain.CaseID) (func(), error) {
	key := "maplecase:lock:case:" + caseID.String()
	holder := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, holder, redisLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = unlockScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, holder).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockRetry):
		}
	}
}
