package repository

import (
	"context"
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

// Page is one page of a user's sleep logs plus the total number of logs for the user.
type Page struct {
	Items    []*domain.SleepSession
	Total    int
	PageSize int
}

// Repository defines persistence for sleep sessions. Dates are calendar dates as midnight UTC.
type Repository interface {
	// GetByID returns the session for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.SleepSession, error)
	// GetByUserAndDay returns the user's session attributed to day, or nil.
	GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.SleepSession, error)
	// ListInRange returns the user's sessions with sleep date in [from, to], both inclusive.
	ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.SleepSession, error)
	// ListByUser returns page (1-based) of the user's sessions, newest sleep date first.
	ListByUser(ctx context.Context, userID string, page, pageSize int) (*Page, error)
	// Latest returns the user's most recent session, or nil.
	Latest(ctx context.Context, userID string) (*domain.SleepSession, error)
	Create(ctx context.Context, s *domain.SleepSession) error
	// Update replaces the stored record with the same ID. Returns domain.ErrNotFound if missing.
	Update(ctx context.Context, s *domain.SleepSession) error
	Delete(ctx context.Context, id string) error
}
