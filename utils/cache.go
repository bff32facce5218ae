package utils

import (
	"context"
	"time"
)

const defaultCacheTTL = 20 * time.Second

// CacheGetBytes returns cached bytes for a key from Redis.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugw("cache miss", "key", key, "err", err)
		return nil, false
	}
	return b, true
}

// CacheSetBytes stores bytes under key; a non-positive ttl uses the default.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnw("cache set failed", "key", key, "err", err)
	}
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	iter := rc.Scan(ctx, 0, prefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		Sugar.Warnw("cache scan failed", "prefix", prefix, "err", err)
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.Del(ctx, keys...).Err(); err != nil {
		Sugar.Warnw("cache invalidate failed", "prefix", prefix, "err", err)
	}
}
