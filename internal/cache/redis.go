package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedTokenPrefix = "auth:revoked:"
	shortLinkPrefix    = "shortlink:"

	// ShortLinkTTL is how long a resolved short link stays cached.
	ShortLinkTTL = 24 * time.Hour
)

// RedisStore keeps revoked token ids and resolved short links in Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// RevokeToken blacklists a token id until ttl passes.
func (s *RedisStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedTokenPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RedisStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// GetRecipeID returns the cached recipe id of a short link slug.
func (s *RedisStore) GetRecipeID(ctx context.Context, slug string) (uint, bool, error) {
	value, err := s.client.Get(ctx, shortLinkPrefix+slug).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read short link cache: %w", err)
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return uint(id), true, nil
}

func (s *RedisStore) SetRecipeID(ctx context.Context, slug string, recipeID uint) error {
	err := s.client.Set(ctx, shortLinkPrefix+slug, strconv.FormatUint(uint64(recipeID), 10), ShortLinkTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to write short link cache: %w", err)
	}
	return nil
}

// DeleteRecipeID evicts a slug, used when its recipe is deleted.
func (s *RedisStore) DeleteRecipeID(ctx context.Context, slug string) error {
	if err := s.client.Del(ctx, shortLinkPrefix+slug).Err(); err != nil {
		return fmt.Errorf("failed to evict short link cache: %w", err)
	}
	return nil
}
