package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/Shin-zuo/LL-AccountingSystem-sub000/testing"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client, ttl), mr
}

func TestLockerExclusive(t *testing.T) {
	locker, _ := newTestLocker(t, time.Minute)
	ctx := context.Background()

	first, err := locker.Acquire(ctx, "tax:filing:1:2024:lock")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "tax:filing:1:2024:lock")
	require.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, first.Release(ctx))
	second, err := locker.Acquire(ctx, "tax:filing:1:2024:lock")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestLockerReleaseKeepsForeignLock(t *testing.T) {
	locker, mr := newTestLocker(t, time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists("k"), "stale holder must not delete the new owner's lock")
	require.NoError(t, fresh.Release(ctx))
	assert.False(t, mr.Exists("k"))
}

func TestWithLockReleasesOnError(t *testing.T) {
	locker, mr := newTestLocker(t, time.Minute)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "k", func(context.Context) error {
		assert.True(t, mr.Exists("k"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestNilClientLockerIsNoop(t *testing.T) {
	locker := NewLocker(nil, 0)
	called := false
	err := locker.WithLock(context.Background(), "k", func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Ping(context.Background(), client))

	mr.Close()
	err := Ping(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache: ping")
}
