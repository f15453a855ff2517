package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"sleeptracker/backend/internal/audit/domain"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (m *mockAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return m.entries, nil
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	l := NewLogger(repo, func(context.Context) string { return "192.168.1.1" }, nil)
	fixed := time.Date(2024, 1, 10, 7, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))
	l.now = func() time.Time { return fixed }

	l.LogEvent(context.Background(), Event{
		UserID: "user-1", Action: "create", Resource: "sleep_log", ResourceID: "s1", Metadata: `{"k":"v"}`,
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.UserID != "user-1" || e.Action != "create" || e.Resource != "sleep_log" || e.ResourceID != "s1" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want 192.168.1.1", e.IP)
	}
	if e.Metadata != `{"k":"v"}` {
		t.Errorf("metadata = %q", e.Metadata)
	}
	if e.ID == "" {
		t.Error("entry ID should be set")
	}
	if !e.CreatedAt.Equal(fixed) || e.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v in UTC", e.CreatedAt, fixed)
	}
}

func TestLogger_LogEvent_UnknownIP(t *testing.T) {
	testCases := []struct {
		name      string
		extractor IPExtractor
	}{
		{"nil extractor", nil},
		{"empty result", func(context.Context) string { return "" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockAuditRepo{}
			NewLogger(repo, tc.extractor, nil).LogEvent(context.Background(), Event{Action: "a", Resource: "r"})
			if len(repo.entries) != 1 || repo.entries[0].IP != "unknown" {
				t.Errorf("entries = %+v, want one with ip unknown", repo.entries)
			}
		})
	}
}

func TestLogger_LogEvent_RepositoryErrorIsSwallowed(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	NewLogger(repo, nil, nil).LogEvent(context.Background(), Event{Action: "a", Resource: "r"})
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	NewLogger(nil, nil, nil).LogEvent(context.Background(), Event{Action: "a", Resource: "r"})
}
