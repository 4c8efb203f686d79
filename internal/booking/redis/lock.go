package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/youkaichao/WtfTicket/internal/logger"
)

// Lock is a short-lived per-(student, activity) mutex backed by Redis
// SetNX. It absorbs duplicate booking taps from the same student while a
// request is in flight; the hard no-oversell guarantee lives in the
// database, not here, so an expired lock is harmless.
type Lock struct {
	Client *redis.Client
	Logger *logger.Logger
}

func NewLock(client *redis.Client, log *logger.Logger) *Lock {
	return &Lock{Client: client, Logger: log}
}

func (l *Lock) lockTTL() time.Duration {
	defaultTTL := 10 * time.Second

	ttlStr := os.Getenv("BOOKING_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}
	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		l.Logger.Warn("REDIS", "Invalid BOOKING_LOCK_TTL_SECONDS value '"+ttlStr+"', using default 10s")
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

func lockKey(studentID string, activityID int64) string {
	return fmt.Sprintf("booking_lock:%s:%d", studentID, activityID)
}

func (l *Lock) Acquire(ctx context.Context, studentID string, activityID int64) (bool, error) {
	return l.Client.SetNX(ctx, lockKey(studentID, activityID), studentID, l.lockTTL()).Result()
}

func (l *Lock) Release(ctx context.Context, studentID string, activityID int64) error {
	key := lockKey(studentID, activityID)
	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	// Only delete our own lock; an expired-and-reacquired key belongs to a
	// newer request.
	if val == studentID {
		_, err := l.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
