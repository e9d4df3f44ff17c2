package redis

import (
	"context"
	"time"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
)

const dedupeKeyPrefix = "ipsentinel:dedupe:"

// DedupeStore suppresses repeat notifications: the first call for a key
// within the window wins, later calls lose until the window expires.
type DedupeStore struct {
	client *Client
}

func NewDedupeStore(client *Client) *DedupeStore {
	return &DedupeStore{client: client}
}

// First reports whether this is the first occurrence of key within the
// window, claiming the window atomically when it is.
func (d *DedupeStore) First(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := d.client.rdb.SetNX(ctx, dedupeKeyPrefix+key, 1, window).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "dedupe window check")
	}
	return ok, nil
}
