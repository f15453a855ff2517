package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/logger"
	sleepdomain "sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/user/domain"
	"sleeptracker/backend/internal/user/service"
)

// UserService is the user lifecycle surface the handler needs.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, name string) (*domain.User, error)
	Update(ctx context.Context, id, name string) (*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
}

// Server implements UserService (gRPC) for user lifecycle.
type Server struct {
	users UserService
	log   *zap.Logger
}

var _ sleepv1.UserServiceServer = (*Server)(nil)

// NewServer returns a new User gRPC server. users may be nil; then all RPCs return Unimplemented.
func NewServer(users UserService, log *zap.Logger) *Server {
	return &Server{users: users, log: logger.OrNop(log)}
}

// CreateUser registers a user profile.
func (s *Server) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method CreateUser not implemented")
	}
	var r sleepv1.UserRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, r.UserName)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(u)
}

// GetUser returns a user by ID.
func (s *Server) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
	}
	var r sleepv1.UserIDRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, strings.TrimSpace(r.IDUser))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(u)
}

// UpdateUser renames a user.
func (s *Server) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method UpdateUser not implemented")
	}
	var r sleepv1.UserRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(r.IDUser)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "idUser required")
	}
	u, err := s.users.Update(ctx, id, r.UserName)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(u)
}

// DeleteUser removes a user and returns the deleted record.
func (s *Server) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "method DeleteUser not implemented")
	}
	var r sleepv1.UserIDRequest
	if err := decode(req, &r); err != nil {
		return nil, err
	}
	u, err := s.users.Delete(ctx, strings.TrimSpace(r.IDUser))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return s.encode(u)
}

func decode(req *structpb.Struct, v any) error {
	if err := sleepv1.Decode(req, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := sleepv1.Validate(v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func (s *Server) encode(u *domain.User) (*structpb.Struct, error) {
	out, err := sleepv1.Encode(sleepv1.FromUser(u))
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode user")
	}
	return out, nil
}

func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, domain.ErrInvalidName), errors.Is(err, sleepdomain.ErrMalformedInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.log.Error("user: internal error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
