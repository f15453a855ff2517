package engine

import (
	"fmt"
	"strings"
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

// ParseInstant parses an absolute timestamp. It accepts RFC 3339 (e.g. 2024-01-10T07:00:00Z or
// with an offset) and a bare YYYY-MM-DD, which is read as midnight UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", domain.ErrMalformedInput)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q is not RFC 3339 or YYYY-MM-DD", domain.ErrMalformedInput, s)
}
