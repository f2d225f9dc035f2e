package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// LoginThrottle counts failed logins per username in redis. Redis errors fail
// open: a broken cache must not lock every cashier out.
type LoginThrottle struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewLoginThrottle(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, maxAttempts: maxAttempts, window: window}
}

func throttleKey(username string) string {
	return fmt.Sprintf("login-attempts:%s", username)
}

func (t *LoginThrottle) Allowed(ctx context.Context, username string) bool {
	n, err := t.rdb.Get(ctx, throttleKey(username)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Str("username", username).Msg("Error reading login attempts")
		}
		return true
	}
	return n < t.maxAttempts
}

// Fail counts a failed attempt. INCR and EXPIRE run in one MULTI/EXEC so a
// counter never exists without a TTL; the window restarts on every failure.
func (t *LoginThrottle) Fail(ctx context.Context, username string) {
	key := throttleKey(username)
	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, t.window)
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Str("username", username).Msg("Error counting login attempt")
	}
}

func (t *LoginThrottle) Reset(ctx context.Context, username string) {
	if err := t.rdb.Del(ctx, throttleKey(username)).Err(); err != nil {
		logger.Error().Err(err).Str("username", username).Msg("Error resetting login attempts")
	}
}
