package db

import "embed"

// MigrationsDir is the directory inside MigrationFS holding the numbered up/down pairs.
const MigrationsDir = "migrations"

// MigrationFS carries the invoicex schema (identity, orgs and memberships, audit_logs) so the
// migrate binary needs no files on disk.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
