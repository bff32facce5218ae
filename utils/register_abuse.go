package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/yatube/config"
)

func signupKey(parts ...string) string {
	key := "signup"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// SignupCooldownTry enforces a short cooldown between signup attempts per IP.
// Without Redis, or on Redis errors, it fails open.
func SignupCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	rc := GetRedis()
	if sec <= 0 || rc == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := rc.SetNX(ctx, signupKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// SignupDailyLimitCheck allows up to RegisterMaxPerIPPerDay accounts per IP per day.
func SignupDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	rc := GetRedis()
	if limit <= 0 || rc == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := rc.Get(ctx, signupKey("day", ip, time.Now().Format("20060102"))).Int()
	if err == redis.Nil {
		return true
	} else if err != nil {
		return true
	}
	return n < limit
}

// SignupDailyIncrement counts a successful signup for today.
func SignupDailyIncrement(ip string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := signupKey("day", ip, time.Now().Format("20060102"))
	if err := rc.Incr(ctx, key).Err(); err == nil {
		_ = rc.Expire(ctx, key, 24*time.Hour).Err()
	}
}
