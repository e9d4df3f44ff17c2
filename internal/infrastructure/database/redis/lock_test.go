package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Mode: "standalone", Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestPassLock_AcquireRelease(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock := NewPassLock(client, "scheduler", time.Minute)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("ipsentinel:lock:scheduler"))

	require.NoError(t, lock.Release(ctx))
	assert.False(t, mr.Exists("ipsentinel:lock:scheduler"))
}

func TestPassLock_HeldElsewhereIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	first := NewPassLock(client, "scheduler", time.Minute)
	second := NewPassLock(client, "scheduler", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPassLock_ReleaseOnlyByOwner(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	owner := NewPassLock(client, "scheduler", time.Minute)
	intruder := NewPassLock(client, "scheduler", time.Minute)

	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, intruder.Release(ctx))
	assert.True(t, mr.Exists("ipsentinel:lock:scheduler"), "a non-owner release is a no-op")
}

func TestPassLock_ExpiresAfterTTL(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	first := NewPassLock(client, "scheduler", time.Second)
	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	second := NewPassLock(client, "scheduler", time.Second)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock is free for the taking")
}

func TestDedupeStore_FirstWithinWindow(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	d := NewDedupeStore(client)

	first, err := d.First(ctx, "u1:EP1:EXPIRY_WARNING:2025-06-15", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.First(ctx, "u1:EP1:EXPIRY_WARNING:2025-06-15", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(2 * time.Hour)

	later, err := d.First(ctx, "u1:EP1:EXPIRY_WARNING:2025-06-15", time.Hour)
	require.NoError(t, err)
	assert.True(t, later, "window expired, the key is first again")
}
