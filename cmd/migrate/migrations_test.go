package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file lives in cmd/migrate/, so repo root is ../..
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
	return filepath.Join(repoRoot, "db", "migrations")
}

func TestCollectMigrations_ParsesMigrationsDir(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoMigrationsDir(t), 0, goose.MaxVersion)
	if err != nil {
		t.Fatalf("expected migrations to parse, got error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}
}

func TestBooksMigration_NamesCheckConstraintsByColumn(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), "00001_create_books.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	s := string(b)
	// the book store maps books_<column>_check back to the request field
	for _, c := range []string{"books_title_check", "books_author_check", "books_year_check", "books_genre_check"} {
		if !strings.Contains(s, c) {
			t.Errorf("missing constraint %s", c)
		}
	}
}

func TestSearchIndexMigration_CoversTitleAndAuthor(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), "00002_add_books_search_indexes.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	s := string(b)
	for _, col := range []string{"(title gin_trgm_ops)", "(author gin_trgm_ops)"} {
		if !strings.Contains(s, col) {
			t.Errorf("missing trigram index on %s", col)
		}
	}
}
