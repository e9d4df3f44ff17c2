package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

const lockKeyPrefix = "ipsentinel:lock:"

// releaseScript deletes the lock only when this holder still owns it, so a
// lock that expired and was re-acquired elsewhere is never released by the
// old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PassLock is a non-blocking distributed lock used to keep scheduler passes
// from running on more than one replica at a time. Acquire never waits: a
// held lock means another replica is mid-pass, and this replica simply skips
// its turn.
type PassLock struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
}

// NewPassLock builds a lock under the given name with the given TTL. The TTL
// bounds how long a crashed holder can block other replicas and must exceed
// the longest expected pass.
func NewPassLock(client *Client, name string, ttl time.Duration) *PassLock {
	return &PassLock{
		client: client,
		key:    lockKeyPrefix + name,
		value:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. It returns false without error when
// another holder owns it.
func (l *PassLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.rdb.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "acquire pass lock")
	}
	return ok, nil
}

// Release drops the lock if this holder still owns it. Releasing a lock that
// has already expired is not an error.
func (l *PassLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client.rdb, []string{l.key}, l.value).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "release pass lock")
	}
	return nil
}
