package main

import (
	"testing"
)

func TestMigrationsDir_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	if got := migrationsDir(); got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestMigrationsDir_Default(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")

	if got := migrationsDir(); got != "db/migrations" {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	if got := databaseDSN(); got != defaultDSN {
		t.Fatalf("expected default dsn, got %q", got)
	}

	t.Setenv("DB_DSN", "postgres://u:p@db:5432/books")
	if got := databaseDSN(); got != "postgres://u:p@db:5432/books" {
		t.Fatalf("expected DB_DSN override, got %q", got)
	}
}
