package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sleeptracker/backend/internal/audit"
	policyengine "sleeptracker/backend/internal/policy/engine"
	"sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/sleeplog/repository"
	"sleeptracker/backend/internal/telemetry"
)

var testLoc = time.FixedZone("UTC-3", -3*60*60)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, testLoc)
}

// mockUsers implements UserLookup.
type mockUsers struct {
	ids map[string]bool
	err error
}

func (m *mockUsers) Exists(ctx context.Context, id string) (bool, error) {
	return m.ids[id], m.err
}

// mockPolicy returns fixed rules or an error.
type mockPolicy struct {
	rules policyengine.Rules
	err   error
	seen  []policyengine.Input
}

func (m *mockPolicy) Evaluate(ctx context.Context, in policyengine.Input) (policyengine.Rules, error) {
	m.seen = append(m.seen, in)
	return m.rules, m.err
}

// mockAudit captures audit events.
type mockAudit struct {
	events []audit.Event
}

func (m *mockAudit) LogEvent(ctx context.Context, ev audit.Event) {
	m.events = append(m.events, ev)
}

// chanEmitter forwards emitted events to a channel.
type chanEmitter struct {
	ch chan *telemetry.Event
}

func (c *chanEmitter) Emit(ctx context.Context, ev *telemetry.Event) error {
	c.ch <- ev
	return nil
}

// recordingMetrics captures RecordWrite calls.
type recordingMetrics struct {
	actions []string
	minutes []float64
}

func (m *recordingMetrics) RecordWrite(ctx context.Context, action string, minutes float64, feeling string) {
	m.actions = append(m.actions, action)
	m.minutes = append(m.minutes, minutes)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	svc   *SleepLogService
	repo  *repository.MemoryRepository
	clock *clock
	audit *mockAudit
	users *mockUsers
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:  repository.NewMemoryRepository(),
		clock: &clock{now: at(2024, time.January, 10, 8, 0)},
		audit: &mockAudit{},
	}
	f.users = &mockUsers{ids: map[string]bool{"user-1": true, "user-2": true}}
	opts = append([]Option{WithClock(f.clock.Now), WithAudit(f.audit)}, opts...)
	f.svc = NewSleepLogService(f.repo, f.users, testLoc, nil, opts...)
	return f
}

func validInput() CreateInput {
	return CreateInput{
		UserID:       "user-1",
		BedtimeStart: at(2024, time.January, 9, 22, 0),
		BedtimeEnd:   at(2024, time.January, 10, 6, 30),
		Feeling:      domain.FeelingGood,
	}
}

func TestCreate_Success(t *testing.T) {
	em := &chanEmitter{ch: make(chan *telemetry.Event, 1)}
	f := newFixture(t, WithEmitter(em))
	ctx := context.Background()

	s, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Error("ID should be set")
	}
	if s.TotalTimeInBedMinutes != 510 {
		t.Errorf("TotalTimeInBedMinutes = %v, want 510", s.TotalTimeInBedMinutes)
	}
	if want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC); !s.SleepDate.Equal(want) {
		t.Errorf("SleepDate = %v, want %v", s.SleepDate, want)
	}
	if !s.CreatedAt.Equal(f.clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", s.CreatedAt, f.clock.Now())
	}
	stored, _ := f.repo.GetByID(ctx, s.ID)
	if stored == nil || stored.MorningFeeling != domain.FeelingGood {
		t.Fatalf("stored = %+v", stored)
	}
	if len(f.audit.events) != 1 || f.audit.events[0].Action != "create" || f.audit.events[0].ResourceID != s.ID {
		t.Errorf("audit events = %+v", f.audit.events)
	}
	select {
	case ev := <-em.ch:
		if ev.EventType != telemetry.EventSleepLogCreated || ev.UserID != "user-1" {
			t.Errorf("telemetry event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("telemetry event not emitted")
	}
}

func TestCreate_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"empty user", func(in *CreateInput) { in.UserID = "" }, domain.ErrMalformedInput},
		{"unknown user", func(in *CreateInput) { in.UserID = "ghost" }, domain.ErrNotFound},
		{"unknown feeling", func(in *CreateInput) { in.Feeling = "GREAT" }, domain.ErrMalformedInput},
		{"empty feeling", func(in *CreateInput) { in.Feeling = "" }, domain.ErrMalformedInput},
		{"missing start", func(in *CreateInput) { in.BedtimeStart = time.Time{} }, domain.ErrMalformedInput},
		{"end before start", func(in *CreateInput) { in.BedtimeEnd = in.BedtimeStart.Add(-time.Minute) }, domain.ErrInvalidOrdering},
		{"start two days ago", func(in *CreateInput) { in.BedtimeStart = at(2024, time.January, 8, 23, 0) }, domain.ErrOutOfWindow},
		{"start tomorrow", func(in *CreateInput) {
			in.BedtimeStart = at(2024, time.January, 11, 1, 0)
			in.BedtimeEnd = at(2024, time.January, 11, 7, 0)
		}, domain.ErrOutOfWindow},
		{"end tomorrow", func(in *CreateInput) {
			in.BedtimeStart = at(2024, time.January, 9, 23, 0)
			in.BedtimeEnd = at(2024, time.January, 11, 1, 0)
		}, domain.ErrInconsistentEndDate},
		{"explicit sleep date not today", func(in *CreateInput) {
			in.SleepDate = time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
		}, domain.ErrOutOfWindow},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			tc.mutate(&in)
			_, err := f.svc.Create(context.Background(), in)
			if !errors.Is(err, tc.want) {
				t.Errorf("Create err = %v, want %v", err, tc.want)
			}
			if len(f.audit.events) != 0 {
				t.Errorf("rejected create should not be audited: %+v", f.audit.events)
			}
		})
	}
}

func TestCreate_ExplicitSleepDateToday(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.SleepDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestCreate_UserLookupError(t *testing.T) {
	lookupErr := errors.New("db down")
	svc := NewSleepLogService(repository.NewMemoryRepository(), &mockUsers{err: lookupErr}, testLoc, nil)
	if _, err := svc.Create(context.Background(), validInput()); !errors.Is(err, lookupErr) {
		t.Errorf("Create err = %v, want %v", err, lookupErr)
	}
}

func TestCreate_OnePerDay(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed by default", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 2; i++ {
			if _, err := f.svc.Create(ctx, validInput()); err != nil {
				t.Fatalf("Create #%d: %v", i+1, err)
			}
		}
	})

	t.Run("rejected by policy", func(t *testing.T) {
		pol := &mockPolicy{rules: policyengine.Rules{OnePerDay: true}}
		f := newFixture(t, WithPolicy(pol, policyengine.Settings{OnePerDay: true}))
		if _, err := f.svc.Create(ctx, validInput()); err != nil {
			t.Fatalf("first Create: %v", err)
		}
		if _, err := f.svc.Create(ctx, validInput()); !errors.Is(err, domain.ErrDuplicateDay) {
			t.Errorf("second Create err = %v, want ErrDuplicateDay", err)
		}
		other := validInput()
		other.UserID = "user-2"
		if _, err := f.svc.Create(ctx, other); err != nil {
			t.Errorf("other user Create: %v", err)
		}
		if pol.seen[0].Operation != policyengine.OperationCreate || !pol.seen[0].Settings.OnePerDay {
			t.Errorf("policy input = %+v", pol.seen[0])
		}
	})

	t.Run("policy error falls back to settings", func(t *testing.T) {
		pol := &mockPolicy{err: errors.New("eval failed")}
		f := newFixture(t, WithPolicy(pol, policyengine.Settings{OnePerDay: true}))
		_, _ = f.svc.Create(ctx, validInput())
		if _, err := f.svc.Create(ctx, validInput()); !errors.Is(err, domain.ErrDuplicateDay) {
			t.Errorf("second Create err = %v, want ErrDuplicateDay", err)
		}
	})
}

func TestUpdate_ValidatesAgainstOwnSleepDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.clock.Set(at(2024, time.January, 15, 9, 0))
	up := UpdateInput{
		BedtimeStart: at(2024, time.January, 9, 23, 0),
		BedtimeEnd:   at(2024, time.January, 10, 7, 0),
		Feeling:      domain.FeelingBad,
	}
	updated, err := f.svc.Update(ctx, created.ID, up)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TotalTimeInBedMinutes != 480 {
		t.Errorf("TotalTimeInBedMinutes = %v, want 480", updated.TotalTimeInBedMinutes)
	}
	if !updated.SleepDate.Equal(created.SleepDate) || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("SleepDate/CreatedAt changed: %+v vs %+v", updated, created)
	}
	stored, _ := f.repo.GetByID(ctx, created.ID)
	if stored.MorningFeeling != domain.FeelingBad || !stored.BedtimeEnd.Equal(up.BedtimeEnd) {
		t.Errorf("stored = %+v", stored)
	}
	if n := len(f.audit.events); n != 2 || f.audit.events[1].Action != "update" {
		t.Errorf("audit events = %+v", f.audit.events)
	}

	up.BedtimeStart = at(2024, time.January, 8, 23, 0)
	up.BedtimeEnd = at(2024, time.January, 9, 7, 0)
	if _, err := f.svc.Update(ctx, created.ID, up); !errors.Is(err, domain.ErrInconsistentEndDate) && !errors.Is(err, domain.ErrOutOfWindow) {
		t.Errorf("Update outside own date err = %v, want a window error", err)
	}
}

func TestUpdate_CreateWindowPolicy(t *testing.T) {
	pol := &mockPolicy{rules: policyengine.Rules{UpdatesUseCreateWindow: true}}
	f := newFixture(t, WithPolicy(pol, policyengine.Settings{UpdatesUseCreateWindow: true}))
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.clock.Set(at(2024, time.January, 15, 9, 0))
	_, err = f.svc.Update(ctx, created.ID, UpdateInput{
		BedtimeStart: at(2024, time.January, 9, 23, 0),
		BedtimeEnd:   at(2024, time.January, 10, 7, 0),
		Feeling:      domain.FeelingOK,
	})
	if !errors.Is(err, domain.ErrOutOfWindow) {
		t.Errorf("Update err = %v, want ErrOutOfWindow", err)
	}
	if last := pol.seen[len(pol.seen)-1]; last.Operation != policyengine.OperationUpdate {
		t.Errorf("policy operation = %q, want update", last.Operation)
	}
}

func TestUpdate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	base := UpdateInput{
		BedtimeStart: validInput().BedtimeStart,
		BedtimeEnd:   validInput().BedtimeEnd,
		Feeling:      domain.FeelingOK,
	}
	testCases := []struct {
		name   string
		id     string
		mutate func(*UpdateInput)
		want   error
	}{
		{"missing id", "", func(*UpdateInput) {}, domain.ErrMalformedInput},
		{"unknown id", "nope", func(*UpdateInput) {}, domain.ErrNotFound},
		{"other user", created.ID, func(in *UpdateInput) { in.UserID = "user-2" }, domain.ErrMalformedInput},
		{"changed sleep date", created.ID, func(in *UpdateInput) { in.SleepDate = time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC) }, domain.ErrMalformedInput},
		{"bad feeling", created.ID, func(in *UpdateInput) { in.Feeling = "meh" }, domain.ErrMalformedInput},
		{"ordering", created.ID, func(in *UpdateInput) { in.BedtimeEnd = in.BedtimeStart }, domain.ErrInvalidOrdering},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			if _, err := f.svc.Update(ctx, tc.id, in); !errors.Is(err, tc.want) {
				t.Errorf("Update err = %v, want %v", err, tc.want)
			}
		})
	}
	same := base
	same.UserID = "user-1"
	same.SleepDate = created.SleepDate
	if _, err := f.svc.Update(ctx, created.ID, same); err != nil {
		t.Errorf("Update with matching user and date: %v", err)
	}
}

func TestUpdate_RequiresExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	delete(f.users.ids, "user-1")

	_, err = f.svc.Update(ctx, created.ID, UpdateInput{
		BedtimeStart: created.BedtimeStart,
		BedtimeEnd:   created.BedtimeEnd,
		Feeling:      domain.FeelingOK,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update err = %v, want ErrNotFound", err)
	}
	stored, _ := f.repo.GetByID(ctx, created.ID)
	if stored == nil || stored.MorningFeeling != domain.FeelingGood {
		t.Errorf("stored = %+v, want unchanged", stored)
	}
}

func TestDeleteAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := f.svc.Get(ctx, created.ID)
	if err != nil || got.ID != created.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	deleted, err := f.svc.Delete(ctx, created.ID)
	if err != nil || deleted.ID != created.ID {
		t.Fatalf("Delete = %+v, %v", deleted, err)
	}
	if _, err := f.svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if last := f.audit.events[len(f.audit.events)-1]; last.Action != "delete" {
		t.Errorf("last audit action = %q, want delete", last.Action)
	}
}

func TestWrites_RecordMetrics(t *testing.T) {
	m := &recordingMetrics{}
	f := newFixture(t, WithMetrics(m))
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(m.actions) != 2 || m.actions[0] != "create" || m.actions[1] != "delete" {
		t.Fatalf("actions = %v", m.actions)
	}
	if m.minutes[0] != 510 {
		t.Errorf("create minutes = %v, want 510", m.minutes[0])
	}
}

// seed stores a session directly, bypassing the create window.
func seed(t *testing.T, repo *repository.MemoryRepository, id, user string, day int, bedH, bedM, wakeH, wakeM int, feeling domain.MorningFeeling) {
	t.Helper()
	date := time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
	if day <= 0 {
		date = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
	}
	start := time.Date(date.Year(), date.Month(), date.Day()-1, bedH, bedM, 0, 0, testLoc)
	end := time.Date(date.Year(), date.Month(), date.Day(), wakeH, wakeM, 0, 0, testLoc)
	s := &domain.SleepSession{
		ID: id, UserID: user, SleepDate: date, BedtimeStart: start, BedtimeEnd: end,
		MorningFeeling: feeling, CreatedAt: end.UTC(),
	}
	s.DeriveTotalTimeInBed()
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestLastNight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.LastNight(ctx, "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LastNight with no logs err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.LastNight(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LastNight unknown user err = %v, want ErrNotFound", err)
	}
	seed(t, f.repo, "s8", "user-1", 8, 22, 0, 6, 0, domain.FeelingOK)
	seed(t, f.repo, "s9", "user-1", 9, 22, 0, 6, 0, domain.FeelingGood)
	seed(t, f.repo, "o9", "user-2", 10, 22, 0, 6, 0, domain.FeelingGood)
	got, err := f.svc.LastNight(ctx, "user-1")
	if err != nil {
		t.Fatalf("LastNight: %v", err)
	}
	if got.ID != "s9" {
		t.Errorf("LastNight = %s, want s9", got.ID)
	}
}

func TestThirtyDayAverage(t *testing.T) {
	em := &chanEmitter{ch: make(chan *telemetry.Event, 1)}
	f := newFixture(t, WithEmitter(em))
	ctx := context.Background()

	if _, err := f.svc.ThirtyDayAverage(ctx, "user-1"); !errors.Is(err, domain.ErrEmptyWindow) {
		t.Fatalf("empty window err = %v, want ErrEmptyWindow", err)
	}

	seed(t, f.repo, "a", "user-1", 8, 22, 0, 6, 0, domain.FeelingGood)
	seed(t, f.repo, "b", "user-1", 9, 22, 15, 6, 15, domain.FeelingOK)
	seed(t, f.repo, "c", "user-1", 10, 22, 30, 6, 30, domain.FeelingGood)
	// Dec 11th is one day before the window and must not count.
	seed(t, f.repo, "old", "user-1", -20, 1, 0, 5, 0, domain.FeelingBad)
	seed(t, f.repo, "other", "user-2", 10, 1, 0, 5, 0, domain.FeelingBad)

	agg, err := f.svc.ThirtyDayAverage(ctx, "user-1")
	if err != nil {
		t.Fatalf("ThirtyDayAverage: %v", err)
	}
	if agg.SessionCount != 3 {
		t.Errorf("SessionCount = %d, want 3", agg.SessionCount)
	}
	if agg.IntervalFormatted != "10:15 pm - 6:15 am" {
		t.Errorf("IntervalFormatted = %q", agg.IntervalFormatted)
	}
	if agg.TimeInBedFormatted != "8 h 00 min" {
		t.Errorf("TimeInBedFormatted = %q", agg.TimeInBedFormatted)
	}
	if agg.Moods != (domain.MoodCounts{Good: 2, OK: 1}) {
		t.Errorf("Moods = %+v", agg.Moods)
	}
	if agg.WindowLabel != "Dec 12th to Jan 10th" {
		t.Errorf("WindowLabel = %q", agg.WindowLabel)
	}
	select {
	case ev := <-em.ch:
		if ev.EventType != telemetry.EventAggregateServed {
			t.Errorf("event type = %q", ev.EventType)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("telemetry event not emitted")
	}

	if _, err := f.svc.ThirtyDayAverage(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t, WithPageSizes(2))
	ctx := context.Background()
	for day := 1; day <= 5; day++ {
		seed(t, f.repo, fmt.Sprintf("s%d", day), "user-1", day, 22, 0, 6, 0, domain.FeelingOK)
	}

	p, err := f.svc.List(ctx, "user-1", 1, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if p.Total != 5 || len(p.Items) != 2 || p.Items[0].ID != "s5" || p.Items[1].ID != "s4" {
		t.Errorf("page 1 = total %d items %d first %s", p.Total, len(p.Items), p.Items[0].ID)
	}
	p, err = f.svc.List(ctx, "user-1", 3, 0)
	if err != nil || len(p.Items) != 1 || p.Items[0].ID != "s1" {
		t.Errorf("page 3 = %+v, %v", p, err)
	}
	p, err = f.svc.List(ctx, "user-1", 1, 500)
	if err != nil || len(p.Items) != 5 {
		t.Errorf("clamped page = %+v, %v", p, err)
	}
	if _, err := f.svc.List(ctx, "user-1", 4, 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("page past end err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.List(ctx, "user-1", 0, 0); !errors.Is(err, domain.ErrMalformedInput) {
		t.Errorf("page 0 err = %v, want ErrMalformedInput", err)
	}
	if _, err := f.svc.List(ctx, "user-1", 1, -1); !errors.Is(err, domain.ErrMalformedInput) {
		t.Errorf("negative page size err = %v, want ErrMalformedInput", err)
	}
	if _, err := f.svc.List(ctx, "ghost", 1, 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}
