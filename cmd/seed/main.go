package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	var (
		count = flag.Int("count", 50, "Number of books to generate")
		owner = flag.String("owner", "", "Owner id (defaults to DEFAULT_OWNER_ID)")
	)
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel, "text")

	if *owner == "" {
		*owner = cfg.DefaultOwnerID
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Error("seeding needs the postgres store driver", "store_driver", cfg.StoreDriver)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to connect to database", "dsn", config.RedactDSN(cfg.DatabaseDSN), "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	service := book.NewService(book.NewPostgresRepo(pool, cfg.DBTimeout), book.NewSchema(nil))
	inserted, err := seed(ctx, service, *owner, *count, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		logger.Error("failed to insert books", "inserted", inserted, "error", err)
		os.Exit(1)
	}

	stats, err := service.Stats(ctx, *owner)
	if err != nil {
		logger.Error("failed to read stats", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "inserted", inserted, "owner_id", *owner, "total", stats.TotalCount)
}

// seed creates count books through the service, so every generated record
// passes the same validation as a client request.
func seed(ctx context.Context, service *book.Service, owner string, count int, rnd *rand.Rand) (int, error) {
	for i := 0; i < count; i++ {
		payload := map[string]any{
			"title":       fmt.Sprintf("Book Title %d - %s", i+1, randomWord(rnd)),
			"author":      randomAuthor(rnd),
			"genre":       book.Genres[rnd.Intn(len(book.Genres))],
			"description": fmt.Sprintf("This is a book about %s.", randomWord(rnd)),
		}
		// roughly one in five books has no known year
		if rnd.Intn(5) != 0 {
			payload["year"] = strconv.Itoa(1950 + rnd.Intn(75))
		}

		changes, err := service.CheckCreate(payload)
		if err != nil {
			return i, fmt.Errorf("generated payload %d: %w", i+1, err)
		}
		if _, err := service.Create(ctx, owner, changes); err != nil {
			return i, err
		}
	}
	return count, nil
}

func randomAuthor(rnd *rand.Rand) string {
	first := []string{"Ada", "Jorge", "Octavia", "Italo", "Ursula", "Haruki", "Chinua", "Toni"}
	last := []string{"Lovelace", "Borges", "Butler", "Calvino", "Le Guin", "Murakami", "Achebe", "Morrison"}
	return first[rnd.Intn(len(first))] + " " + last[rnd.Intn(len(last))]
}

func randomWord(rnd *rand.Rand) string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rnd.Intn(len(words))]
}
