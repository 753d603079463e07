package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// LastSeenStore mirrors "when was this user last connected" into redis.
// The gateway stamps it when a user's final connection goes away and reads
// it back when a conversation list needs to annotate an offline peer.
// Every call is best-effort: a nil client or a redis failure degrades to
// the zero time, it never fails a command.
type LastSeenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLastSeenStore(rdb *redis.Client, ttl time.Duration) *LastSeenStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &LastSeenStore{rdb: rdb, ttl: ttl}
}

// key: ls:<user>, value: unix millis of the stamp
func lastSeenKey(user string) string { return "ls:" + user }

// Stamp records now as the user's last-seen instant.
func (s *LastSeenStore) Stamp(ctx context.Context, user string, at time.Time) error {
	if s == nil || s.rdb == nil || user == "" {
		return nil
	}
	val := strconv.FormatInt(at.UnixMilli(), 10)
	return s.rdb.Set(ctx, lastSeenKey(user), val, s.ttl).Err()
}

// Lookup returns the stored stamp, or the zero time when absent.
func (s *LastSeenStore) Lookup(ctx context.Context, user string) (time.Time, error) {
	if s == nil || s.rdb == nil || user == "" {
		return time.Time{}, nil
	}
	val, err := s.rdb.Get(ctx, lastSeenKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
