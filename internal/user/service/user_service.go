package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sleeptracker/backend/internal/audit"
	"sleeptracker/backend/internal/logger"
	"sleeptracker/backend/internal/user/domain"
	"sleeptracker/backend/internal/user/repository"
)

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserService implements user profile create, read, update, and delete.
type UserService struct {
	repo  repository.Repository
	log   *zap.Logger
	audit audit.AuditLogger
	now   func() time.Time
}

// NewUserService returns a UserService backed by repo. log may be nil.
func NewUserService(repo repository.Repository, log *zap.Logger) *UserService {
	return &UserService{repo: repo, log: logger.OrNop(log), now: time.Now}
}

// WithAudit records create, update, and delete operations to a. Returns s for chaining.
func (s *UserService) WithAudit(a audit.AuditLogger) *UserService {
	s.audit = a
	return s
}

// Exists reports whether a user with id exists. It satisfies the sleep log UserLookup.
func (s *UserService) Exists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// Get returns the user for id or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Create validates name and persists a new user with a generated ID.
func (s *UserService) Create(ctx context.Context, name string) (*domain.User, error) {
	now := s.now().UTC()
	u := &domain.User{ID: uuid.New().String(), Name: strings.TrimSpace(name), CreatedAt: now, UpdatedAt: now}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID))
	s.record(ctx, "create", u.ID)
	return u, nil
}

// Update replaces the user's name.
func (s *UserService) Update(ctx context.Context, id, name string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(name)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.record(ctx, "update", u.ID)
	return u, nil
}

// Delete removes the user and returns the deleted record.
func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	s.record(ctx, "delete", id)
	return u, nil
}

func (s *UserService) record(ctx context.Context, action, userID string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, audit.Event{UserID: userID, Action: action, Resource: "user", ResourceID: userID})
}
