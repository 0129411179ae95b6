package service

import (
	"context"
	"fmt"
	"time"

	"github.com/carebridge/telehealth-api/pkg/database"
)

// TokenBlacklistService keeps logged-out access tokens in Redis until they
// would have expired anyway
type TokenBlacklistService struct {
	redis *database.Redis
}

var _ Blacklist = (*TokenBlacklistService)(nil)

// NewTokenBlacklistService creates a new token blacklist service
func NewTokenBlacklistService(redis *database.Redis) *TokenBlacklistService {
	return &TokenBlacklistService{redis: redis}
}

// Add puts a token on the blacklist with the given TTL
func (s *TokenBlacklistService) Add(ctx context.Context, token string, ttl time.Duration) error {
	key := fmt.Sprintf("blacklist:token:%s", token)
	if err := s.redis.Client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// Contains checks whether a token is blacklisted
func (s *TokenBlacklistService) Contains(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:token:%s", token)
	exists, err := s.redis.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}
