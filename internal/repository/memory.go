package repository

import (
	"context"
	"sync"
	"time"

	"salonbook/internal/domain"
	"salonbook/internal/models"
)

type memoryEntry struct {
	session   models.BookingSession
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process. Entries expire after ttl.
type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration

	rlMu       sync.Mutex
	rateLimits map[string]*rateLimitEntry
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl:        ttl,
		rateLimits: make(map[string]*rateLimitEntry),
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(id)
		return nil, domain.ErrSessionNotFound
	}
	s := cloneSession(entry.session)
	return &s, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.BookingSession) error {
	r.sessions.Store(session.ID, &memoryEntry{
		session:   cloneSession(*session),
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.rlMu.Lock()
	defer r.rlMu.Unlock()

	now := time.Now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{count: 0, expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// Sweep drops expired sessions and rate limit windows.
func (r *MemorySessionRepository) Sweep() {
	now := time.Now()
	r.sessions.Range(func(k, v any) bool {
		if r.ttl > 0 && now.After(v.(*memoryEntry).expiresAt) {
			r.sessions.Delete(k)
		}
		return true
	})

	r.rlMu.Lock()
	defer r.rlMu.Unlock()
	for k, e := range r.rateLimits {
		if now.After(e.expiresAt) {
			delete(r.rateLimits, k)
		}
	}
}

func cloneSession(s models.BookingSession) models.BookingSession {
	s.Form.SelectedServices = append([]string(nil), s.Form.SelectedServices...)
	if s.Reservation != nil {
		res := *s.Reservation
		s.Reservation = &res
	}
	return s
}
