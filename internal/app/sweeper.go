package app

import (
	"context"
	"time"

	"github.com/carebridge/telehealth-api/internal/repository"
	"go.uber.org/zap"
)

// TokenSweeper periodically deletes expired refresh-token rows. Revoked rows
// stay for audit until their expiry passes; nothing else grows the table
// unboundedly.
type TokenSweeper struct {
	tokenRepo repository.TokenRepository
	logger    *zap.Logger
	interval  time.Duration
}

// NewTokenSweeper creates a sweeper with the given interval
func NewTokenSweeper(tokenRepo repository.TokenRepository, logger *zap.Logger, interval time.Duration) *TokenSweeper {
	return &TokenSweeper{
		tokenRepo: tokenRepo,
		logger:    logger,
		interval:  interval,
	}
}

// Run sweeps on a ticker until the context is cancelled
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	deleted, err := s.tokenRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Token sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("Swept expired refresh tokens", zap.Int64("deleted", deleted))
	}
}
