package domain

import "time"

// AuditLog represents one recorded operation against a user or sleep log.
type AuditLog struct {
	ID         string
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	IP         string
	Metadata   string
	CreatedAt  time.Time
}
