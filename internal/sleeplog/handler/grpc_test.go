package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/sleeplog/repository"
	"sleeptracker/backend/internal/sleeplog/service"
)

var testLoc = time.FixedZone("UTC-3", -3*60*60)

// mockService is a SleepLogService whose results are set per test.
type mockService struct {
	session *domain.SleepSession
	agg     domain.Aggregate
	page    *repository.Page
	err     error

	createIn   service.CreateInput
	updateID   string
	listPage   int
	listSize   int
	lastUserID string
}

func (m *mockService) Create(ctx context.Context, in service.CreateInput) (*domain.SleepSession, error) {
	m.createIn = in
	return m.session, m.err
}

func (m *mockService) Update(ctx context.Context, id string, in service.UpdateInput) (*domain.SleepSession, error) {
	m.updateID = id
	return m.session, m.err
}

func (m *mockService) Delete(ctx context.Context, id string) (*domain.SleepSession, error) {
	return m.session, m.err
}

func (m *mockService) Get(ctx context.Context, id string) (*domain.SleepSession, error) {
	return m.session, m.err
}

func (m *mockService) LastNight(ctx context.Context, userID string) (*domain.SleepSession, error) {
	m.lastUserID = userID
	return m.session, m.err
}

func (m *mockService) ThirtyDayAverage(ctx context.Context, userID string) (domain.Aggregate, error) {
	return m.agg, m.err
}

func (m *mockService) List(ctx context.Context, userID string, page, pageSize int) (*repository.Page, error) {
	m.listPage, m.listSize = page, pageSize
	return m.page, m.err
}

func (m *mockService) Location() *time.Location { return testLoc }

func sampleSession() *domain.SleepSession {
	return &domain.SleepSession{
		ID:                    "sleep-1",
		UserID:                "user-1",
		SleepDate:             time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		BedtimeStart:          time.Date(2024, 1, 9, 22, 0, 0, 0, testLoc),
		BedtimeEnd:            time.Date(2024, 1, 10, 6, 30, 0, 0, testLoc),
		TotalTimeInBedMinutes: 510,
		MorningFeeling:        domain.FeelingGood,
		CreatedAt:             time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
	}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestCreateSleepLog(t *testing.T) {
	m := &mockService{session: sampleSession()}
	srv := NewServer(m, nil)
	req := mustStruct(t, map[string]any{
		"idUser":           "user-1",
		"dateBedtimeStart": "2024-01-09T22:00:00-03:00",
		"dateBedtimeEnd":   "2024-01-10T06:30:00-03:00",
		"feelingMorning":   "GOOD",
	})
	resp, err := srv.CreateSleepLog(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateSleepLog: %v", err)
	}
	if m.createIn.UserID != "user-1" || m.createIn.Feeling != domain.FeelingGood {
		t.Errorf("service input = %+v", m.createIn)
	}
	var out sleepv1.SleepLog
	if err := sleepv1.Decode(resp, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.IDSleep != "sleep-1" || out.TotalTimeInBedMinutes != 510 || out.FeelingMorning != "GOOD" {
		t.Errorf("response = %+v", out)
	}
}

func TestCreateSleepLog_InvalidArgument(t *testing.T) {
	srv := NewServer(&mockService{session: sampleSession()}, nil)
	tests := []struct {
		name string
		req  map[string]any
	}{
		{"missing user", map[string]any{"dateBedtimeStart": "2024-01-09T22:00:00Z", "dateBedtimeEnd": "2024-01-10T06:00:00Z", "feelingMorning": "OK"}},
		{"bad timestamp", map[string]any{"idUser": "u", "dateBedtimeStart": "yesterday", "dateBedtimeEnd": "2024-01-10T06:00:00Z", "feelingMorning": "OK"}},
		{"bad feeling", map[string]any{"idUser": "u", "dateBedtimeStart": "2024-01-09T22:00:00Z", "dateBedtimeEnd": "2024-01-10T06:00:00Z", "feelingMorning": "GREAT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.CreateSleepLog(context.Background(), mustStruct(t, tt.req))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("code = %v, want InvalidArgument (err %v)", status.Code(err), err)
			}
		})
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"malformed", domain.ErrMalformedInput, codes.InvalidArgument},
		{"ordering", domain.ErrInvalidOrdering, codes.InvalidArgument},
		{"window", domain.ErrOutOfWindow, codes.InvalidArgument},
		{"end date", domain.ErrInconsistentEndDate, codes.InvalidArgument},
		{"not found", domain.ErrNotFound, codes.NotFound},
		{"empty window", domain.ErrEmptyWindow, codes.NotFound},
		{"duplicate", domain.ErrDuplicateDay, codes.AlreadyExists},
		{"other", errors.New("db down"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&mockService{err: tt.err}, nil)
			_, err := srv.GetSleepLog(context.Background(), mustStruct(t, map[string]any{"idSleep": "sleep-1"}))
			if status.Code(err) != tt.want {
				t.Errorf("code = %v, want %v", status.Code(err), tt.want)
			}
		})
	}
}

func TestUpdateSleepLog_PassesID(t *testing.T) {
	m := &mockService{session: sampleSession()}
	srv := NewServer(m, nil)
	_, err := srv.UpdateSleepLog(context.Background(), mustStruct(t, map[string]any{
		"idSleep":          "sleep-1",
		"dateBedtimeStart": "2024-01-09T23:00:00-03:00",
		"dateBedtimeEnd":   "2024-01-10T07:00:00-03:00",
		"feelingMorning":   "BAD",
	}))
	if err != nil {
		t.Fatalf("UpdateSleepLog: %v", err)
	}
	if m.updateID != "sleep-1" {
		t.Errorf("update id = %q", m.updateID)
	}
}

func TestGetLastNight_RequiresUser(t *testing.T) {
	srv := NewServer(&mockService{session: sampleSession()}, nil)
	_, err := srv.GetLastNight(context.Background(), mustStruct(t, map[string]any{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestGetThirtyDayAverage(t *testing.T) {
	agg := domain.Aggregate{
		From:            time.Date(2023, 12, 12, 0, 0, 0, 0, time.UTC),
		To:              time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		WindowLabel:     "Dec 12th to Jan 10th",
		AverageBedtime:  time.Date(2024, 1, 9, 22, 15, 0, 0, testLoc),
		AverageWakeTime: time.Date(2024, 1, 10, 6, 15, 0, 0, testLoc),
		Moods:           domain.MoodCounts{Good: 2, OK: 1},
		SessionCount:    3,
	}
	srv := NewServer(&mockService{agg: agg}, nil)
	resp, err := srv.GetThirtyDayAverage(context.Background(), mustStruct(t, map[string]any{"idUser": "user-1"}))
	if err != nil {
		t.Fatalf("GetThirtyDayAverage: %v", err)
	}
	var out sleepv1.ThirtyDayAverage
	if err := sleepv1.Decode(resp, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.IDUser != "user-1" || out.QtdDaysGood != 2 || out.QtdDaysOk != 1 || out.IntervalOfTimeFormatted != "Dec 12th to Jan 10th" {
		t.Errorf("response = %+v", out)
	}
}

func TestListSleepLogs(t *testing.T) {
	m := &mockService{page: &repository.Page{Items: []*domain.SleepSession{sampleSession()}, Total: 3, PageSize: 2}}
	srv := NewServer(m, nil)
	resp, err := srv.ListSleepLogs(context.Background(), mustStruct(t, map[string]any{"idUser": "user-1", "pageSize": 2}))
	if err != nil {
		t.Fatalf("ListSleepLogs: %v", err)
	}
	if m.listPage != 1 || m.listSize != 2 {
		t.Errorf("list args = page %d size %d, want 1 and 2", m.listPage, m.listSize)
	}
	var out sleepv1.SleepLogPage
	if err := sleepv1.Decode(resp, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.TotalRecords != 3 || out.TotalPages != 2 || len(out.Items) != 1 {
		t.Errorf("page = %+v", out)
	}
}

func TestServer_NilService(t *testing.T) {
	srv := NewServer(nil, nil)
	_, err := srv.GetSleepLog(context.Background(), mustStruct(t, map[string]any{"idSleep": "x"}))
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("code = %v, want Unimplemented", status.Code(err))
	}
}
