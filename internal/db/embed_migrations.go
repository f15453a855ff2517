package db

import "embed"

// MigrationFS embeds the users, sleep_logs, and audit_logs schema.
// Used by the migrate runner (cmd/migrate, and cmd/server with MIGRATE_ON_START) to apply migrations.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
