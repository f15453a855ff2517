package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/audit"
	audithandler "sleeptracker/backend/internal/audit/handler"
	auditrepo "sleeptracker/backend/internal/audit/repository"
	healthhandler "sleeptracker/backend/internal/health/handler"
	"sleeptracker/backend/internal/logger"
	"sleeptracker/backend/internal/server/interceptors"
	sleephandler "sleeptracker/backend/internal/sleeplog/handler"
	"sleeptracker/backend/internal/telemetry"
	userhandler "sleeptracker/backend/internal/user/handler"
)

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// SleepLogs backs SleepLogService. If nil, sleep log RPCs return Unimplemented.
	SleepLogs sleephandler.SleepLogService
	// Users backs UserService. If nil, user RPCs return Unimplemented.
	Users userhandler.UserService
	// AuditRepo is the audit log repository for AuditService. If nil, ListAuditLogs returns Unimplemented.
	AuditRepo auditrepo.Repository
	// Auditor records read RPCs through the audit interceptor. If nil, no RPCs are audited by the interceptor.
	Auditor audit.AuditLogger
	// Emitter receives one grpc_request event per RPC. If nil, the telemetry interceptor no-ops.
	Emitter telemetry.EventEmitter
	// HealthPinger is used by the health service for readiness (e.g. *sql.DB). If nil, the DB ping is skipped.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. OPA evaluator). If nil, the policy check is skipped.
	HealthPolicyChecker healthhandler.PolicyChecker
	// Log may be nil.
	Log *zap.Logger
}

// SkipAuditMethods are not audited by the interceptor. Write RPCs are audited by their services.
var SkipAuditMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName:                  true,
	healthpb.Health_Watch_FullMethodName:                  true,
	sleepv1.AuditService_ListAuditLogs_FullMethodName:     true,
	sleepv1.SleepLogService_CreateSleepLog_FullMethodName: true,
	sleepv1.SleepLogService_UpdateSleepLog_FullMethodName: true,
	sleepv1.SleepLogService_DeleteSleepLog_FullMethodName: true,
	sleepv1.UserService_CreateUser_FullMethodName:         true,
	sleepv1.UserService_UpdateUser_FullMethodName:         true,
	sleepv1.UserService_DeleteUser_FullMethodName:         true,
}

// SkipTelemetryMethods emit no grpc_request events.
var SkipTelemetryMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// NewGRPCServer returns a gRPC server with OTel instrumentation and all services registered.
// Interceptors run identity first so audit and telemetry see the caller.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	log := logger.OrNop(deps.Log)
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.IdentityUnary(),
			interceptors.AuditUnary(deps.Auditor, SkipAuditMethods),
			interceptors.TelemetryUnary(deps.Emitter, SkipTelemetryMethods, log),
		),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - SleepLogService → internal/sleeplog/handler
//   - UserService     → internal/user/handler
//   - AuditService    → internal/audit/handler
//   - grpc.health.v1  → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	sleepv1.RegisterSleepLogServiceServer(s, sleephandler.NewServer(deps.SleepLogs, deps.Log))
	sleepv1.RegisterUserServiceServer(s, userhandler.NewServer(deps.Users, deps.Log))
	sleepv1.RegisterAuditServiceServer(s, audithandler.NewServer(deps.AuditRepo, deps.Log))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker, deps.Log))
}
