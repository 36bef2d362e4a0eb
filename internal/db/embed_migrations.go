package db

import "embed"

// MigrationFS holds the users, credentials, otp_codes and audit_logs schema applied by cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
