package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/logger"
	"sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/sleeplog/repository"
	"sleeptracker/backend/internal/sleeplog/service"
)

// SleepLogService is the use-case surface the handler needs.
type SleepLogService interface {
	Create(ctx context.Context, in service.CreateInput) (*domain.SleepSession, error)
	Update(ctx context.Context, id string, in service.UpdateInput) (*domain.SleepSession, error)
	Delete(ctx context.Context, id string) (*domain.SleepSession, error)
	Get(ctx context.Context, id string) (*domain.SleepSession, error)
	LastNight(ctx context.Context, userID string) (*domain.SleepSession, error)
	ThirtyDayAverage(ctx context.Context, userID string) (domain.Aggregate, error)
	List(ctx context.Context, userID string, page, pageSize int) (*repository.Page, error)
	Location() *time.Location
}

// Server implements SleepLogService (gRPC) over the sleep log use cases.
type Server struct {
	svc SleepLogService
	log *zap.Logger
}

var _ sleepv1.SleepLogServiceServer = (*Server)(nil)

// NewServer returns a new SleepLog gRPC server. svc may be nil; then all RPCs return Unimplemented.
func NewServer(svc SleepLogService, log *zap.Logger) *Server {
	return &Server{svc: svc, log: logger.OrNop(log)}
}

// CreateSleepLog validates and stores last night's sleep.
func (s *Server) CreateSleepLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method CreateSleepLog not implemented")
	}
	var r sleepv1.CreateSleepLogRequest
	if err := sleepv1.Decode(req, &r); err != nil {
		return nil, s.toStatus(err)
	}
	in, err := r.ToInput()
	if err != nil {
		return nil, s.toStatus(err)
	}
	session, err := s.svc.Create(ctx, in)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromSession(session, s.svc.Location()))
}

// UpdateSleepLog replaces a sleep log's interval and mood.
func (s *Server) UpdateSleepLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method UpdateSleepLog not implemented")
	}
	var r sleepv1.UpdateSleepLogRequest
	if err := sleepv1.Decode(req, &r); err != nil {
		return nil, s.toStatus(err)
	}
	in, err := r.ToInput()
	if err != nil {
		return nil, s.toStatus(err)
	}
	session, err := s.svc.Update(ctx, r.IDSleep, in)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromSession(session, s.svc.Location()))
}

// DeleteSleepLog removes a sleep log and returns it.
func (s *Server) DeleteSleepLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method DeleteSleepLog not implemented")
	}
	var r sleepv1.SleepLogIDRequest
	if err := s.decodeValid(req, &r); err != nil {
		return nil, err
	}
	session, err := s.svc.Delete(ctx, r.IDSleep)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromSession(session, s.svc.Location()))
}

// GetSleepLog returns a sleep log by ID.
func (s *Server) GetSleepLog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method GetSleepLog not implemented")
	}
	var r sleepv1.SleepLogIDRequest
	if err := s.decodeValid(req, &r); err != nil {
		return nil, err
	}
	session, err := s.svc.Get(ctx, r.IDSleep)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromSession(session, s.svc.Location()))
}

// GetLastNight returns the user's most recent sleep log.
func (s *Server) GetLastNight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method GetLastNight not implemented")
	}
	var r sleepv1.UserIDRequest
	if err := s.decodeValid(req, &r); err != nil {
		return nil, err
	}
	session, err := s.svc.LastNight(ctx, r.IDUser)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromSession(session, s.svc.Location()))
}

// GetThirtyDayAverage returns the user's rolling 30-day summary.
func (s *Server) GetThirtyDayAverage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method GetThirtyDayAverage not implemented")
	}
	var r sleepv1.UserIDRequest
	if err := s.decodeValid(req, &r); err != nil {
		return nil, err
	}
	agg, err := s.svc.ThirtyDayAverage(ctx, r.IDUser)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromAggregate(r.IDUser, agg, s.svc.Location()))
}

// ListSleepLogs returns one page of the user's sleep logs.
func (s *Server) ListSleepLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method ListSleepLogs not implemented")
	}
	var r sleepv1.ListSleepLogsRequest
	if err := s.decodeValid(req, &r); err != nil {
		return nil, err
	}
	if r.Page == 0 {
		r.Page = 1
	}
	page, err := s.svc.List(ctx, r.IDUser, r.Page, r.PageSize)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(sleepv1.FromSessions(page.Items, page.Total, page.PageSize, s.svc.Location()))
}

func (s *Server) decodeValid(req *structpb.Struct, v any) error {
	if err := sleepv1.Decode(req, v); err != nil {
		return s.toStatus(err)
	}
	if err := sleepv1.Validate(v); err != nil {
		return s.toStatus(err)
	}
	return nil
}

func (s *Server) encode(v any) (*structpb.Struct, error) {
	out, err := sleepv1.Encode(v)
	if err != nil {
		s.log.Error("sleeplog: encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// toStatus maps service errors to gRPC status codes.
func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateDay):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrMalformedInput),
		errors.Is(err, domain.ErrInvalidOrdering),
		errors.Is(err, domain.ErrOutOfWindow),
		errors.Is(err, domain.ErrInconsistentEndDate):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEmptyWindow):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.log.Error("sleeplog: internal error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
