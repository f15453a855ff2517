package handler

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/audit/repository"
	"sleeptracker/backend/internal/logger"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Server implements AuditService for audit logs.
type Server struct {
	repo repository.Repository
	log  *zap.Logger
}

var _ sleepv1.AuditServiceServer = (*Server)(nil)

// NewServer returns a new Audit gRPC server. repo may be nil; then ListAuditLogs returns Unimplemented.
func NewServer(repo repository.Repository, log *zap.Logger) *Server {
	return &Server{repo: repo, log: logger.OrNop(log)}
}

// ListAuditLogs returns audit logs newest first, optionally for one user.
func (s *Server) ListAuditLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, status.Error(codes.Unimplemented, "method ListAuditLogs not implemented")
	}
	var r sleepv1.ListAuditLogsRequest
	if err := sleepv1.Decode(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := sleepv1.Validate(r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	limit := r.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	list, err := s.repo.ListByUser(ctx, strings.TrimSpace(r.IDUser), int32(limit), int32(r.Offset))
	if err != nil {
		s.log.Error("audit: list logs", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to list audit logs")
	}
	out, err := sleepv1.Encode(sleepv1.FromAuditLogs(list))
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}
