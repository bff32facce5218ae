package utils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetRedis(rc)
	t.Cleanup(func() {
		SetRedis(nil)
		_ = rc.Close()
	})
	return mr
}

func TestCacheWithoutRedisIsNoop(t *testing.T) {
	SetRedis(nil)
	CacheSetBytes("k", []byte("v"), time.Minute)
	_, ok := CacheGetBytes("k")
	assert.False(t, ok)
	InvalidateByPrefix("k")
}

func TestCacheRoundTripAndTTL(t *testing.T) {
	mr := withMiniredis(t)

	CacheSetBytes("cache:posts:index:page=1", []byte("<html>"), 20*time.Second)
	b, ok := CacheGetBytes("cache:posts:index:page=1")
	require.True(t, ok)
	assert.Equal(t, "<html>", string(b))

	mr.FastForward(21 * time.Second)
	_, ok = CacheGetBytes("cache:posts:index:page=1")
	assert.False(t, ok)
}

func TestInvalidateByPrefix(t *testing.T) {
	withMiniredis(t)

	CacheSetBytes("cache:posts:index:u=0:page=1", []byte("a"), 0)
	CacheSetBytes("cache:posts:index:u=1:page=2", []byte("b"), 0)
	CacheSetBytes("cache:other", []byte("c"), 0)

	InvalidateByPrefix("cache:posts:index:")

	_, ok := CacheGetBytes("cache:posts:index:u=0:page=1")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:posts:index:u=1:page=2")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:other")
	assert.True(t, ok)
}
