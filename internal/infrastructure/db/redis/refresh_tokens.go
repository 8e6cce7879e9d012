package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// RefreshTokenStore keeps refresh tokens in Redis.
// Key format: refresh:<token> → account id, expiring with the token.
// Each account also has a set refresh:account:<id> of its live tokens.
type RefreshTokenStore struct {
	client *redis.Client
}

// NewRefreshTokenStore creates a RefreshTokenStore wrapping the given Redis client.
func NewRefreshTokenStore(client *redis.Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

func (s *RefreshTokenStore) Put(ctx context.Context, token string, id domain.AccountID, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key(token), id.String(), ttl)
		pipe.SAdd(ctx, accountKey(id), token)
		pipe.Expire(ctx, accountKey(id), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresh token put: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the token so it can be used only once.
func (s *RefreshTokenStore) Take(ctx context.Context, token string) (domain.AccountID, bool, error) {
	v, err := s.client.GetDel(ctx, key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("refresh token take: %w", err)
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("refresh token take: corrupt value %q", v)
	}
	id := domain.AccountID(n)
	// A stale set member only costs one extra DEL on RevokeAll.
	_ = s.client.SRem(ctx, accountKey(id), token).Err()
	return id, true, nil
}

func (s *RefreshTokenStore) Delete(ctx context.Context, token string) error {
	_, _, err := s.Take(ctx, token)
	return err
}

// RevokeAll deletes every refresh token issued to id.
func (s *RefreshTokenStore) RevokeAll(ctx context.Context, id domain.AccountID) error {
	tokens, err := s.client.SMembers(ctx, accountKey(id)).Result()
	if err != nil {
		return fmt.Errorf("refresh token revoke: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, key(t))
	}
	keys = append(keys, accountKey(id))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("refresh token revoke: %w", err)
	}
	return nil
}

func key(token string) string {
	return "refresh:" + token
}

func accountKey(id domain.AccountID) string {
	return "refresh:account:" + id.String()
}
