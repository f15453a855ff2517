package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidName is returned when a user name is blank or has characters other than letters and spaces.
var ErrInvalidName = errors.New("name must contain only letters and spaces")

var namePattern = regexp.MustCompile(`^[A-Za-z ]+$`)

// User is the profile a sleep log belongs to.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" || !namePattern.MatchString(u.Name) {
		return ErrInvalidName
	}
	return nil
}
