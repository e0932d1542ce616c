// Package ratelimiter implements per-user cooldowns on top of redis SETNX.
// Every helper allows the action when no redis client is configured.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimitError reports a blocked action and how long until it is allowed.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// CheckAndSetRateLimit reports whether the action is allowed and, if so,
// starts a new cooldown window.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, key(userID, action)).Err()
}

// Limiter binds the helpers to one client and action.
type Limiter struct {
	rdb    *redis.Client
	action string
	window time.Duration
}

func New(rdb *redis.Client, action string, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, action: action, window: window}
}

// Allow returns a *RateLimitError while the user's window is open. When redis
// is unreachable the action is allowed and the failure is logged.
func (l *Limiter) Allow(ctx context.Context, userID uuid.UUID) error {
	allowed, err := CheckAndSetRateLimit(ctx, l.rdb, userID, l.action, l.window)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":  l.action,
			"user_id": userID,
		}).Warn("rate limit check failed, allowing action")
		return nil
	}
	if allowed {
		return nil
	}

	ttl, err := GetRateLimitTTL(ctx, l.rdb, userID, l.action)
	if err != nil {
		logrus.WithError(err).WithField("action", l.action).Warn("failed to read rate limit ttl")
	}
	if ttl <= 0 {
		ttl = l.window
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("please wait %.0f seconds before trying again", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

// Release reopens the window, used when the limited action failed.
func (l *Limiter) Release(ctx context.Context, userID uuid.UUID) error {
	return ClearRateLimit(ctx, l.rdb, userID, l.action)
}
