package server

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/audit"
	auditrepo "sleeptracker/backend/internal/audit/repository"
	"sleeptracker/backend/internal/server/interceptors"
	sleeprepo "sleeptracker/backend/internal/sleeplog/repository"
	sleepservice "sleeptracker/backend/internal/sleeplog/service"
	userrepo "sleeptracker/backend/internal/user/repository"
	userservice "sleeptracker/backend/internal/user/service"
)

// mockServiceRegistrar implements grpc.ServiceRegistrar for testing.
type mockServiceRegistrar struct {
	services []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.services = append(m.services, desc.ServiceName)
}

func TestRegisterServices_NilDependencies(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{})

	want := []string{sleepv1.SleepLogServiceName, sleepv1.UserServiceName, sleepv1.AuditServiceName, healthpb.Health_ServiceDesc.ServiceName}
	if len(mockReg.services) != len(want) {
		t.Fatalf("registered %v, want %v", mockReg.services, want)
	}
	for i, name := range want {
		if mockReg.services[i] != name {
			t.Errorf("service %d = %s, want %s", i, mockReg.services[i], name)
		}
	}
}

func dial(t *testing.T, deps Deps) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer(deps)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGRPCServer_EndToEnd(t *testing.T) {
	now := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	audits := auditrepo.NewMemoryRepository()
	auditor := audit.NewLogger(audits, interceptors.ClientIP, nil)
	users := userservice.NewUserService(userrepo.NewMemoryRepository(), nil).WithAudit(auditor)
	sleeps := sleepservice.NewSleepLogService(sleeprepo.NewMemoryRepository(), users, time.UTC, nil,
		sleepservice.WithClock(func() time.Time { return now }),
		sleepservice.WithAudit(auditor),
	)
	conn := dial(t, Deps{SleepLogs: sleeps, Users: users, AuditRepo: audits, Auditor: auditor})
	client := sleepv1.NewClient(conn)
	ctx := context.Background()

	var user sleepv1.User
	if err := client.Call(ctx, sleepv1.UserService_CreateUser_FullMethodName, sleepv1.UserRequest{UserName: "Grace Hopper"}, &user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	var created sleepv1.SleepLog
	err := client.Call(ctx, sleepv1.SleepLogService_CreateSleepLog_FullMethodName, sleepv1.CreateSleepLogRequest{
		IDUser:           user.IDUser,
		DateBedtimeStart: "2024-01-09T22:00:00Z",
		DateBedtimeEnd:   "2024-01-10T06:30:00Z",
		FeelingMorning:   "GOOD",
	}, &created)
	if err != nil {
		t.Fatalf("CreateSleepLog: %v", err)
	}
	if created.TotalTimeInBedMinutes != 510 || created.SleepDate != "2024-01-10" {
		t.Errorf("created = %+v", created)
	}

	callCtx := metadata.AppendToOutgoingContext(ctx, interceptors.UserIDHeader, user.IDUser)
	var last sleepv1.SleepLog
	if err := client.Call(callCtx, sleepv1.SleepLogService_GetLastNight_FullMethodName, sleepv1.UserIDRequest{IDUser: user.IDUser}, &last); err != nil {
		t.Fatalf("GetLastNight: %v", err)
	}
	if last.IDSleep != created.IDSleep {
		t.Errorf("last night = %s, want %s", last.IDSleep, created.IDSleep)
	}

	err = client.Call(ctx, sleepv1.SleepLogService_GetLastNight_FullMethodName, sleepv1.UserIDRequest{IDUser: "nobody"}, nil)
	if status.Code(err) != codes.NotFound {
		t.Errorf("GetLastNight unknown user: code = %v, want NotFound", status.Code(err))
	}

	var logs sleepv1.AuditLogList
	if err := client.Call(ctx, sleepv1.AuditService_ListAuditLogs_FullMethodName, sleepv1.ListAuditLogsRequest{IDUser: user.IDUser}, &logs); err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	actions := map[string]bool{}
	for _, l := range logs.Items {
		actions[l.Resource+"/"+l.Action] = true
	}
	for _, want := range []string{"user/create", "sleep_log/create", "sleep_log/get_last_night"} {
		if !actions[want] {
			t.Errorf("missing audit entry %s in %v", want, actions)
		}
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("health = %v, want SERVING", resp.GetStatus())
	}
}
