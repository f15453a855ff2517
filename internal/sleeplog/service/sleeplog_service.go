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
	policyengine "sleeptracker/backend/internal/policy/engine"
	"sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/sleeplog/engine"
	"sleeptracker/backend/internal/sleeplog/repository"
	"sleeptracker/backend/internal/telemetry"
)

const (
	auditResource   = "sleep_log"
	telemetrySource = "sleeplog_service"

	// DefaultPageSize is used by List when neither the caller nor WithPageSizes sets one.
	DefaultPageSize = 10
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100
)

// UserLookup reports whether a user exists.
type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// CreateInput is a new session as submitted by a client.
type CreateInput struct {
	UserID       string
	BedtimeStart time.Time
	BedtimeEnd   time.Time
	Feeling      domain.MorningFeeling
	// SleepDate is optional. When set it must equal today's local date.
	SleepDate time.Time
}

// UpdateInput fully replaces the mutable fields of a session.
type UpdateInput struct {
	// UserID is optional. When set it must equal the session's user.
	UserID       string
	BedtimeStart time.Time
	BedtimeEnd   time.Time
	Feeling      domain.MorningFeeling
	// SleepDate is optional. When set it must equal the session's sleep date.
	SleepDate time.Time
}

// Metrics records write counters. Implemented over OTel in telemetry/otel.
type Metrics interface {
	RecordWrite(ctx context.Context, action string, minutes float64, feeling string)
}

// Option configures optional SleepLogService collaborators.
type Option func(*SleepLogService)

// WithPolicy evaluates per-request rules with p, passing settings as policy input.
func WithPolicy(p policyengine.Evaluator, settings policyengine.Settings) Option {
	return func(s *SleepLogService) {
		s.policy = p
		s.settings = settings
	}
}

// WithAudit records create, update, and delete operations.
func WithAudit(a audit.AuditLogger) Option {
	return func(s *SleepLogService) { s.audit = a }
}

// WithEmitter emits telemetry events for writes and served aggregates.
func WithEmitter(e telemetry.EventEmitter) Option {
	return func(s *SleepLogService) { s.emitter = e }
}

// WithMetrics counts writes on m.
func WithMetrics(m Metrics) Option {
	return func(s *SleepLogService) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SleepLogService) { s.now = now }
}

// WithPageSizes sets the page size List uses when the caller passes none.
func WithPageSizes(defaultSize int) Option {
	return func(s *SleepLogService) {
		if defaultSize > 0 && defaultSize <= MaxPageSize {
			s.defaultPageSize = defaultSize
		}
	}
}

// SleepLogService implements the sleep log use cases. All calendar arithmetic happens in loc.
type SleepLogService struct {
	repo     repository.Repository
	users    UserLookup
	loc      *time.Location
	log      *zap.Logger
	policy   policyengine.Evaluator
	settings policyengine.Settings
	audit    audit.AuditLogger
	emitter  telemetry.EventEmitter
	metrics  Metrics
	now      func() time.Time

	defaultPageSize int
}

// NewSleepLogService returns a service over repo. users resolves user existence; loc is the zone
// sessions are attributed in (nil means time.Local). log may be nil.
func NewSleepLogService(repo repository.Repository, users UserLookup, loc *time.Location, log *zap.Logger, opts ...Option) *SleepLogService {
	if loc == nil {
		loc = time.Local
	}
	s := &SleepLogService{
		repo:            repo,
		users:           users,
		loc:             loc,
		log:             logger.OrNop(log),
		now:             time.Now,
		defaultPageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone sessions are attributed in.
func (s *SleepLogService) Location() *time.Location {
	return s.loc
}

// Create validates in against the current time and persists a new session attributed to today.
func (s *SleepLogService) Create(ctx context.Context, in CreateInput) (*domain.SleepSession, error) {
	if err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	if !in.Feeling.Valid() {
		return nil, fmt.Errorf("%w: unknown morning feeling %q", domain.ErrMalformedInput, in.Feeling)
	}
	now := s.now()
	minutes, err := engine.ValidateAndDeriveDuration(in.BedtimeStart, in.BedtimeEnd, now, s.loc)
	if err != nil {
		return nil, err
	}
	today := engine.DateOf(now, s.loc)
	if !in.SleepDate.IsZero() && !sameDate(in.SleepDate, today) {
		return nil, fmt.Errorf("%w: sleep date %s is not today (%s)",
			domain.ErrOutOfWindow, in.SleepDate.Format(time.DateOnly), today.Format(time.DateOnly))
	}

	rules := s.rules(ctx, in.UserID, policyengine.OperationCreate)
	if rules.OnePerDay {
		existing, err := s.repo.GetByUserAndDay(ctx, in.UserID, today)
		if err != nil {
			return nil, fmt.Errorf("check existing sleep log: %w", err)
		}
		if existing != nil {
			return nil, domain.ErrDuplicateDay
		}
	}

	session := &domain.SleepSession{
		ID:                    uuid.New().String(),
		UserID:                in.UserID,
		SleepDate:             today,
		BedtimeStart:          in.BedtimeStart,
		BedtimeEnd:            in.BedtimeEnd,
		TotalTimeInBedMinutes: minutes,
		MorningFeeling:        in.Feeling,
		CreatedAt:             now.UTC(),
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create sleep log: %w", err)
	}
	s.log.Info("sleep log created",
		zap.String("sleep_log_id", session.ID),
		zap.String("user_id", session.UserID),
		zap.String("sleep_date", session.SleepDate.Format(time.DateOnly)))
	s.record(ctx, "create", telemetry.EventSleepLogCreated, session)
	return session, nil
}

// Update replaces the bedtime interval and mood of an existing session. The sleep date and creation time
// never change. By default the interval is validated against the session's own sleep date; the
// updates_use_create_window policy rule validates it against now instead.
func (s *SleepLogService) Update(ctx context.Context, id string, in UpdateInput) (*domain.SleepSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, session.UserID); err != nil {
		return nil, err
	}
	if in.UserID != "" && in.UserID != session.UserID {
		return nil, fmt.Errorf("%w: sleep log %s belongs to another user", domain.ErrMalformedInput, id)
	}
	if !in.SleepDate.IsZero() && !sameDate(in.SleepDate, session.SleepDate) {
		return nil, fmt.Errorf("%w: sleep date cannot change", domain.ErrMalformedInput)
	}
	if !in.Feeling.Valid() {
		return nil, fmt.Errorf("%w: unknown morning feeling %q", domain.ErrMalformedInput, in.Feeling)
	}

	ref := engine.ReferenceForDate(session.SleepDate, s.loc)
	if s.rules(ctx, session.UserID, policyengine.OperationUpdate).UpdatesUseCreateWindow {
		ref = s.now()
	}
	minutes, err := engine.ValidateAndDeriveDuration(in.BedtimeStart, in.BedtimeEnd, ref, s.loc)
	if err != nil {
		return nil, err
	}

	updated := *session
	updated.BedtimeStart = in.BedtimeStart
	updated.BedtimeEnd = in.BedtimeEnd
	updated.TotalTimeInBedMinutes = minutes
	updated.MorningFeeling = in.Feeling
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: sleep log %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("update sleep log: %w", err)
	}
	s.record(ctx, "update", telemetry.EventSleepLogUpdated, &updated)
	return &updated, nil
}

// Delete removes the session and returns the deleted record.
func (s *SleepLogService) Delete(ctx context.Context, id string) (*domain.SleepSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete sleep log: %w", err)
	}
	s.log.Info("sleep log deleted", zap.String("sleep_log_id", id), zap.String("user_id", session.UserID))
	s.record(ctx, "delete", telemetry.EventSleepLogDeleted, session)
	return session, nil
}

// Get returns the session for id or an error wrapping domain.ErrNotFound.
func (s *SleepLogService) Get(ctx context.Context, id string) (*domain.SleepSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: sleep log id is required", domain.ErrMalformedInput)
	}
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sleep log: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sleep log %s", domain.ErrNotFound, id)
	}
	return session, nil
}

// LastNight returns the user's most recent session.
func (s *SleepLogService) LastNight(ctx context.Context, userID string) (*domain.SleepSession, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	session, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest sleep log: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: no sleep logs for user %s", domain.ErrNotFound, userID)
	}
	return session, nil
}

// ThirtyDayAverage aggregates the user's sessions dated within the 30 days ending today.
// Returns domain.ErrEmptyWindow when there are none.
func (s *SleepLogService) ThirtyDayAverage(ctx context.Context, userID string) (domain.Aggregate, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return domain.Aggregate{}, err
	}
	now := s.now()
	from, to := engine.ThirtyDayWindow(now, s.loc)
	sessions, err := s.repo.ListInRange(ctx, userID, from, to)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("list sleep logs in window: %w", err)
	}
	agg, err := engine.AggregateThirtyDays(sessions, now, s.loc)
	if err != nil {
		return domain.Aggregate{}, err
	}
	telemetry.EmitAsync(ctx, s.emitter, telemetry.NewEvent(telemetry.EventAggregateServed, telemetrySource, userID,
		map[string]any{"session_count": agg.SessionCount, "window": agg.WindowLabel}), s.log)
	return agg, nil
}

// List returns page (1-based) of the user's sessions, newest first. pageSize 0 uses the default;
// larger than MaxPageSize is clamped. An empty page is domain.ErrNotFound.
func (s *SleepLogService) List(ctx context.Context, userID string, page, pageSize int) (*repository.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", domain.ErrMalformedInput)
	}
	if pageSize < 0 {
		return nil, fmt.Errorf("%w: page size must be positive", domain.ErrMalformedInput)
	}
	if pageSize == 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list sleep logs: %w", err)
	}
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("%w: no sleep logs on page %d", domain.ErrNotFound, page)
	}
	return p, nil
}

func (s *SleepLogService) requireUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrMalformedInput)
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return nil
}

func (s *SleepLogService) rules(ctx context.Context, userID, op string) policyengine.Rules {
	if s.policy == nil {
		return policyengine.DefaultRules(s.settings)
	}
	rules, err := s.policy.Evaluate(ctx, policyengine.Input{UserID: userID, Operation: op, Settings: s.settings})
	if err != nil {
		s.log.Warn("sleep log policy evaluation failed", zap.String("operation", op), zap.Error(err))
		return policyengine.DefaultRules(s.settings)
	}
	return rules
}

func (s *SleepLogService) record(ctx context.Context, action, eventType string, session *domain.SleepSession) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, audit.Event{
			UserID:     session.UserID,
			Action:     action,
			Resource:   auditResource,
			ResourceID: session.ID,
		})
	}
	if s.metrics != nil {
		s.metrics.RecordWrite(ctx, action, session.TotalTimeInBedMinutes, string(session.MorningFeeling))
	}
	telemetry.EmitAsync(ctx, s.emitter, telemetry.NewEvent(eventType, telemetrySource, session.UserID, map[string]any{
		"sleep_log_id":              session.ID,
		"sleep_date":                session.SleepDate.Format(time.DateOnly),
		"total_time_in_bed_minutes": session.TotalTimeInBedMinutes,
		"morning_feeling":           session.MorningFeeling,
	}), s.log)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
