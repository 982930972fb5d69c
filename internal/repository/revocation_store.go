package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore is a deny-list of session token ids kept in Redis.  An
// entry lives exactly as long as the token it revokes would have, so the
// keyspace never grows beyond the set of unexpired revoked tokens.
//
// A nil client is valid: Revoke does nothing and IsRevoked always reports
// false, which leaves logout as a client-side discard.
type RevocationStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewRevocationStore returns a store writing keys under prefix.
func NewRevocationStore(rdb *redis.Client, prefix string) *RevocationStore {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RevocationStore{rdb: rdb, prefix: prefix, now: time.Now}
}

// Enabled reports whether revocations are persisted.
func (s *RevocationStore) Enabled() bool { return s != nil && s.rdb != nil }

// Revoke denies the token id jti until expiresAt.  Tokens already past
// their expiry need no entry.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if !s.Enabled() || jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, s.key(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !s.Enabled() || jti == "" {
		return false, nil
	}
	err := s.rdb.Get(ctx, s.key(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RevocationStore) key(jti string) string { return s.prefix + ":" + jti }
