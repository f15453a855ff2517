package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

// MemoryRepository is an in-memory Repository. Used in tests and when no database is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.SleepSession
}

// NewMemoryRepository returns an empty in-memory sleep log repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]domain.SleepSession)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.SleepSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.SleepSession, error) {
	list := r.filter(func(s *domain.SleepSession) bool {
		return s.UserID == userID && s.SleepDate.Equal(day)
	})
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *MemoryRepository) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.SleepSession, error) {
	return r.filter(func(s *domain.SleepSession) bool {
		return s.UserID == userID && !s.SleepDate.Before(from) && !s.SleepDate.After(to)
	}), nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) (*Page, error) {
	all := r.filter(func(s *domain.SleepSession) bool { return s.UserID == userID })
	out := &Page{Total: len(all), PageSize: pageSize}
	if page < 1 || pageSize < 1 {
		return out, nil
	}
	lo := (page - 1) * pageSize
	if lo >= len(all) {
		return out, nil
	}
	hi := lo + pageSize
	if hi > len(all) {
		hi = len(all)
	}
	out.Items = all[lo:hi]
	return out, nil
}

func (r *MemoryRepository) Latest(ctx context.Context, userID string) (*domain.SleepSession, error) {
	list := r.filter(func(s *domain.SleepSession) bool { return s.UserID == userID })
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.SleepSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, s *domain.SleepSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// filter returns copies of matching sessions ordered like the Postgres queries:
// sleep date desc, created_at desc, id.
func (r *MemoryRepository) filter(keep func(*domain.SleepSession) bool) []*domain.SleepSession {
	r.mu.RLock()
	out := make([]*domain.SleepSession, 0)
	for _, s := range r.sessions {
		s := s
		if keep(&s) {
			out = append(out, &s)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SleepDate.Equal(b.SleepDate) {
			return a.SleepDate.After(b.SleepDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}
