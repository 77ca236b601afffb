package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"salonbook/internal/domain"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository serves from primary (redis) and switches to the
// fallback (memory) when primary errors. Recovery is retried once a minute.
type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// retryDue reports whether a down primary is due for a recovery attempt.
func (r *FailoverSessionRepository) retryDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) <= time.Minute {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverSessionRepository) usePrimary() bool {
	return !r.isDown.Load() || r.retryDue()
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	if r.usePrimary() {
		s, err := r.primary.GetSession(ctx, id)
		if err == nil || errors.Is(err, domain.ErrSessionNotFound) {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary session repository recovered")
			}
			if err == nil {
				return s, nil
			}
			// A session written during the outage lives only in the fallback.
			return r.fallback.GetSession(ctx, id)
		}
		r.markDown(err)
	}
	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.BookingSession) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	// Both stores may hold a copy.
	_ = r.fallback.DeleteSession(ctx, id)
	if r.usePrimary() {
		err := r.primary.DeleteSession(ctx, id)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return nil
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
