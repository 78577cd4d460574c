package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore tracks revoked access tokens in Redis. Logout writes the
// token's ID with a TTL matching the token's remaining lifetime; after
// expiry the token is invalid on its own and the key can lapse.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Revoke marks the given token ID as logged out for ttl.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	key := fmt.Sprintf("revoked:token:%s", tokenID)

	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRevoked reports whether the given token ID has been logged out.
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf("revoked:token:%s", tokenID)

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
