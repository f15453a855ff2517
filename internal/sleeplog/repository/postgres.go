package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

const sessionColumns = `id, user_id, sleep_date, bedtime_start, bedtime_end, total_time_in_bed_minutes, morning_feeling, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a sleep log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.SleepSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sleep_logs WHERE id = $1`, id)
	return scanOne(row)
}

// GetByUserAndDay returns the newest session for the user on day, or nil if none.
func (r *PostgresRepository) GetByUserAndDay(ctx context.Context, userID string, day time.Time) (*domain.SleepSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sleep_logs
		 WHERE user_id = $1 AND sleep_date = $2
		 ORDER BY created_at DESC, id
		 LIMIT 1`, userID, day)
	return scanOne(row)
}

// ListInRange returns the user's sessions whose sleep date lies in [from, to].
func (r *PostgresRepository) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.SleepSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sleep_logs
		 WHERE user_id = $1 AND sleep_date >= $2 AND sleep_date <= $3
		 ORDER BY sleep_date DESC, created_at DESC, id`, userID, from, to)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// ListByUser returns a page of the user's sessions and the user's total count.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) (*Page, error) {
	out := &Page{PageSize: pageSize}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sleep_logs WHERE user_id = $1`, userID).Scan(&out.Total); err != nil {
		return nil, err
	}
	if page < 1 || pageSize < 1 || out.Total == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sleep_logs
		 WHERE user_id = $1
		 ORDER BY sleep_date DESC, created_at DESC, id
		 LIMIT $2 OFFSET $3`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	out.Items, err = scanAll(rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the user's most recent session, or nil if the user has none.
func (r *PostgresRepository) Latest(ctx context.Context, userID string) (*domain.SleepSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sleep_logs
		 WHERE user_id = $1
		 ORDER BY sleep_date DESC, created_at DESC, id
		 LIMIT 1`, userID)
	return scanOne(row)
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.SleepSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sleep_logs (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.SleepDate, s.BedtimeStart, s.BedtimeEnd, s.TotalTimeInBedMinutes, string(s.MorningFeeling), s.CreatedAt)
	return err
}

// Update replaces the mutable fields of the session. sleep_date and created_at are never changed.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.SleepSession) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sleep_logs
		 SET user_id = $2, bedtime_start = $3, bedtime_end = $4, total_time_in_bed_minutes = $5, morning_feeling = $6
		 WHERE id = $1`,
		s.ID, s.UserID, s.BedtimeStart, s.BedtimeEnd, s.TotalTimeInBedMinutes, string(s.MorningFeeling))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the session with id. Deleting a missing id is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sleep_logs WHERE id = $1`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*domain.SleepSession, error) {
	var s domain.SleepSession
	var feeling string
	if err := sc.Scan(&s.ID, &s.UserID, &s.SleepDate, &s.BedtimeStart, &s.BedtimeEnd,
		&s.TotalTimeInBedMinutes, &feeling, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.MorningFeeling = domain.MorningFeeling(feeling)
	y, m, d := s.SleepDate.Date()
	s.SleepDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &s, nil
}

func scanOne(row *sql.Row) (*domain.SleepSession, error) {
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanAll(rows *sql.Rows) ([]*domain.SleepSession, error) {
	defer rows.Close()
	var out []*domain.SleepSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
