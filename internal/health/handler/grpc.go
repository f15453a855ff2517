package handler

import (
	"context"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"sleeptracker/backend/internal/logger"
)

// Pinger reports database reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker reports whether the sleep log policy evaluator is usable.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements the standard gRPC health service for readiness and liveness.
type Server struct {
	healthpb.UnimplementedHealthServer
	db     Pinger
	policy PolicyChecker
	log    *zap.Logger
}

// NewServer returns a new Health gRPC server. db and policy may be nil; then their checks are skipped.
func NewServer(db Pinger, policy PolicyChecker, log *zap.Logger) *Server {
	return &Server{db: db, policy: policy, log: logger.OrNop(log)}
}

// Check returns SERVING when every configured dependency responds.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := s.Ready(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// Ready checks the database and policy evaluator. The REST gateway uses it for /health.
func (s *Server) Ready(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.log.Warn("health: database ping failed", zap.Error(err))
			return err
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			s.log.Warn("health: policy check failed", zap.Error(err))
			return err
		}
	}
	return nil
}
