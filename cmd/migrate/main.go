package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"bookshelf/internal/config"
	"bookshelf/internal/platform/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	logger := logging.Init(os.Getenv("LOG_LEVEL"), "text")

	dir := migrationsDir()
	if *command == "create" {
		if *name == "" {
			fatal(logger, "name is required for 'create' command", nil)
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			fatal(logger, "failed to create migration", err)
		}
		logger.Info("migration created", "name", *name, "dir", dir)
		return
	}

	dsn := databaseDSN()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fatal(logger, "failed to connect to database", err, "dsn", config.RedactDSN(dsn))
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		fatal(logger, "failed to set dialect", err)
	}

	switch *command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			fatal(logger, "failed to run migrations", err)
		}
		logger.Info("migrations applied successfully")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			fatal(logger, "failed to rollback migrations", err)
		}
		logger.Info("migrations rolled back successfully")
	case "status":
		if err := goose.Status(db, dir); err != nil {
			fatal(logger, "failed to check migration status", err)
		}
	case "version":
		if err := goose.Version(db, dir); err != nil {
			fatal(logger, "failed to read migration version", err)
		}
	default:
		fatal(logger, "unknown command; use up, down, status, version, create", nil, "command", *command)
	}
}

func fatal(logger *slog.Logger, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	logger.Error(msg, args...)
	os.Exit(1)
}
