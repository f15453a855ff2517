// Package sleepv1 holds the wire contract shared by the gRPC services and the REST gateway: request and
// response messages, their validation, and the hand-maintained gRPC service descriptors that carry them
// as google.protobuf.Struct.
package sleepv1

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	auditdomain "sleeptracker/backend/internal/audit/domain"
	"sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/sleeplog/engine"
	"sleeptracker/backend/internal/sleeplog/service"
	userdomain "sleeptracker/backend/internal/user/domain"
)

// CreateSleepLogRequest registers last night's sleep.
type CreateSleepLogRequest struct {
	IDUser           string `json:"idUser" validate:"required"`
	DateBedtimeStart string `json:"dateBedtimeStart" validate:"required"`
	DateBedtimeEnd   string `json:"dateBedtimeEnd" validate:"required"`
	FeelingMorning   string `json:"feelingMorning" validate:"required"`
	// DateSleep is optional (YYYY-MM-DD). When present it must be today.
	DateSleep string `json:"dateSleep,omitempty"`
}

// UpdateSleepLogRequest fully replaces a sleep log. IDSleep comes from the path in REST.
type UpdateSleepLogRequest struct {
	IDSleep          string `json:"idSleep" validate:"required"`
	IDUser           string `json:"idUser,omitempty"`
	DateBedtimeStart string `json:"dateBedtimeStart" validate:"required"`
	DateBedtimeEnd   string `json:"dateBedtimeEnd" validate:"required"`
	FeelingMorning   string `json:"feelingMorning" validate:"required"`
	DateSleep        string `json:"dateSleep,omitempty"`
}

// SleepLogIDRequest addresses one sleep log.
type SleepLogIDRequest struct {
	IDSleep string `json:"idSleep" validate:"required"`
}

// UserIDRequest addresses one user.
type UserIDRequest struct {
	IDUser string `json:"idUser" validate:"required"`
}

// ListSleepLogsRequest pages through a user's sleep logs. Page is 1-based; zero means 1.
type ListSleepLogsRequest struct {
	IDUser   string `json:"idUser" validate:"required"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"pageSize" validate:"gte=0,lte=100"`
}

// UserRequest creates or renames a user. IDUser is set only on update.
type UserRequest struct {
	IDUser   string `json:"idUser,omitempty"`
	UserName string `json:"userName" validate:"required,max=120"`
}

// ListAuditLogsRequest pages through audit entries, optionally for one user.
type ListAuditLogsRequest struct {
	IDUser string `json:"idUser,omitempty"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Offset int    `json:"offset" validate:"gte=0"`
}

// SleepLog is the wire form of a sleep session.
type SleepLog struct {
	IDSleep                 string  `json:"idSleep"`
	IDUser                  string  `json:"idUser"`
	SleepDate               string  `json:"sleepDate"`
	DateSleep               string  `json:"dateSleep"`
	DateBedtimeStart        string  `json:"dateBedtimeStart"`
	DateBedtimeEnd          string  `json:"dateBedtimeEnd"`
	DateBedtimeStartAndEnd  string  `json:"dateBedtimeStartAndEnd"`
	TotalTimeInBedMinutes   float64 `json:"totalTimeInBedMinutes"`
	TotalTimeInBedFormatted string  `json:"totalTimeInBedFormatted"`
	FeelingMorning          string  `json:"feelingMorning"`
	FeelingMorningDisplay   string  `json:"feelingMorningDisplay"`
	CreatedAt               string  `json:"createdAt"`
}

// SleepLogPage is one page of sleep logs.
type SleepLogPage struct {
	Items        []SleepLog `json:"items"`
	TotalRecords int        `json:"totalRecords"`
	TotalPages   int        `json:"totalPages"`
}

// ThirtyDayAverage is the wire form of the rolling 30-day summary.
type ThirtyDayAverage struct {
	IDUser                                 string  `json:"idUser"`
	FromDate                               string  `json:"fromDate"`
	ToDate                                 string  `json:"toDate"`
	IntervalOfTimeFormatted                string  `json:"intervalOfTimeFormatted"`
	AverageDateBedtimeStart                string  `json:"averageDateBedtimeStart"`
	AverageDateBedtimeEnd                  string  `json:"averageDateBedtimeEnd"`
	AverageDateBedtimeStartAndEndFormatted string  `json:"averageDateBedtimeStartAndEndFormatted"`
	AverageTotalTimeInBed                  float64 `json:"averageTotalTimeInBed"`
	AverageTotalTimeInBedFormatted         string  `json:"averageTotalTimeInBedFormatted"`
	QtdDaysGood                            int     `json:"qtdDaysGood"`
	QtdDaysOk                              int     `json:"qtdDaysOk"`
	QtdDaysBad                             int     `json:"qtdDaysBad"`
	SessionCount                           int     `json:"sessionCount"`
}

// User is the wire form of a user profile.
type User struct {
	IDUser    string `json:"idUser"`
	UserName  string `json:"userName"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// AuditLog is the wire form of an audit entry.
type AuditLog struct {
	ID         string `json:"id"`
	IDUser     string `json:"idUser,omitempty"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	ResourceID string `json:"resourceId,omitempty"`
	IP         string `json:"ip"`
	Metadata   string `json:"metadata,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// AuditLogList is a page of audit entries.
type AuditLogList struct {
	Items []AuditLog `json:"items"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags on req. Failures wrap domain.ErrMalformedInput and name the offending fields.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrMalformedInput, strings.Join(parts, "; "))
}

// ToInput validates r and parses its timestamps and mood.
func (r CreateSleepLogRequest) ToInput() (service.CreateInput, error) {
	if err := Validate(r); err != nil {
		return service.CreateInput{}, err
	}
	start, end, feeling, sleepDate, err := parseSession(r.DateBedtimeStart, r.DateBedtimeEnd, r.FeelingMorning, r.DateSleep)
	if err != nil {
		return service.CreateInput{}, err
	}
	return service.CreateInput{
		UserID:       strings.TrimSpace(r.IDUser),
		BedtimeStart: start,
		BedtimeEnd:   end,
		Feeling:      feeling,
		SleepDate:    sleepDate,
	}, nil
}

// ToInput validates r and parses its timestamps and mood.
func (r UpdateSleepLogRequest) ToInput() (service.UpdateInput, error) {
	if err := Validate(r); err != nil {
		return service.UpdateInput{}, err
	}
	start, end, feeling, sleepDate, err := parseSession(r.DateBedtimeStart, r.DateBedtimeEnd, r.FeelingMorning, r.DateSleep)
	if err != nil {
		return service.UpdateInput{}, err
	}
	return service.UpdateInput{
		UserID:       strings.TrimSpace(r.IDUser),
		BedtimeStart: start,
		BedtimeEnd:   end,
		Feeling:      feeling,
		SleepDate:    sleepDate,
	}, nil
}

func parseSession(startRaw, endRaw, feelingRaw, dateRaw string) (start, end time.Time, feeling domain.MorningFeeling, sleepDate time.Time, err error) {
	if start, err = engine.ParseInstant(startRaw); err != nil {
		return
	}
	if end, err = engine.ParseInstant(endRaw); err != nil {
		return
	}
	if feeling, err = domain.ParseMorningFeeling(feelingRaw); err != nil {
		return
	}
	if strings.TrimSpace(dateRaw) != "" {
		sleepDate, err = time.Parse(time.DateOnly, strings.TrimSpace(dateRaw))
		if err != nil {
			err = fmt.Errorf("%w: dateSleep %q is not YYYY-MM-DD", domain.ErrMalformedInput, dateRaw)
		}
	}
	return
}

// FromSession renders s for the wire. Timestamps are RFC 3339 in loc.
func FromSession(s *domain.SleepSession, loc *time.Location) SleepLog {
	return SleepLog{
		IDSleep:                 s.ID,
		IDUser:                  s.UserID,
		SleepDate:               s.SleepDate.Format(time.DateOnly),
		DateSleep:               engine.FormatSleepDate(s.SleepDate),
		DateBedtimeStart:        s.BedtimeStart.In(loc).Format(time.RFC3339),
		DateBedtimeEnd:          s.BedtimeEnd.In(loc).Format(time.RFC3339),
		DateBedtimeStartAndEnd:  engine.FormatInterval(s.BedtimeStart, s.BedtimeEnd, loc),
		TotalTimeInBedMinutes:   s.TotalTimeInBedMinutes,
		TotalTimeInBedFormatted: engine.FormatDuration(engine.MinutesToDuration(s.TotalTimeInBedMinutes)),
		FeelingMorning:          string(s.MorningFeeling),
		FeelingMorningDisplay:   s.MorningFeeling.DisplayName(),
		CreatedAt:               s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FromSessions renders a page of sessions.
func FromSessions(items []*domain.SleepSession, total, pageSize int, loc *time.Location) SleepLogPage {
	out := SleepLogPage{Items: make([]SleepLog, 0, len(items)), TotalRecords: total, TotalPages: TotalPages(total, pageSize)}
	for _, s := range items {
		out.Items = append(out.Items, FromSession(s, loc))
	}
	return out
}

// TotalPages returns ceil(total / pageSize), or 0 for a non-positive pageSize.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// FromAggregate renders a 30-day summary for userID.
func FromAggregate(userID string, a domain.Aggregate, loc *time.Location) ThirtyDayAverage {
	return ThirtyDayAverage{
		IDUser:                                 userID,
		FromDate:                               a.From.Format(time.DateOnly),
		ToDate:                                 a.To.Format(time.DateOnly),
		IntervalOfTimeFormatted:                a.WindowLabel,
		AverageDateBedtimeStart:                a.AverageBedtime.In(loc).Format(time.RFC3339),
		AverageDateBedtimeEnd:                  a.AverageWakeTime.In(loc).Format(time.RFC3339),
		AverageDateBedtimeStartAndEndFormatted: a.IntervalFormatted,
		AverageTotalTimeInBed:                  a.AverageTimeInBedMinutes,
		AverageTotalTimeInBedFormatted:         a.TimeInBedFormatted,
		QtdDaysGood:                            a.Moods.Good,
		QtdDaysOk:                              a.Moods.OK,
		QtdDaysBad:                             a.Moods.Bad,
		SessionCount:                           a.SessionCount,
	}
}

// FromUser renders a user profile.
func FromUser(u *userdomain.User) User {
	return User{
		IDUser:    u.ID,
		UserName:  u.Name,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// FromAuditLogs renders audit entries.
func FromAuditLogs(list []*auditdomain.AuditLog) AuditLogList {
	out := AuditLogList{Items: make([]AuditLog, 0, len(list))}
	for _, a := range list {
		out.Items = append(out.Items, AuditLog{
			ID:         a.ID,
			IDUser:     a.UserID,
			Action:     a.Action,
			Resource:   a.Resource,
			ResourceID: a.ResourceID,
			IP:         a.IP,
			Metadata:   a.Metadata,
			CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
