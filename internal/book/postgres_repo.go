package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, year, genre, image_path, description, owner_id, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, error) {
	q = q.normalized()
	clauses := []string{"owner_id = $1"}
	args := []any{q.OwnerID}
	argn := 2

	if q.Text != "" {
		clauses = append(clauses, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR author ILIKE $%d ESCAPE '\')`, argn, argn))
		args = append(args, "%"+escapeLike(q.Text)+"%")
		argn++
	}

	if q.Genre != "" {
		clauses = append(clauses, fmt.Sprintf("genre = $%d", argn))
		args = append(args, q.Genre)
		argn++
	}

	sql := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY created_at DESC, id DESC`,
		bookColumns, strings.Join(clauses, " AND "))

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, ownerID, id string) (Book, error) {
	sql := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 AND owner_id = $2`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, sql, id, ownerID))
	if err != nil {
		return Book{}, translateErr(err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const sql = `
		INSERT INTO books (id, title, author, year, genre, image_path, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at`

	id := uuid.NewString()
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql,
		id, b.Title, b.Author, b.Year, b.Genre, b.ImagePath, b.Description, b.OwnerID,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return translateErr(err)
	}
	b.ID = id
	return nil
}

// Update writes every writable column; concurrent updates are last-write-wins.
func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const sql = `
		UPDATE books SET
			title = $3,
			author = $4,
			year = $5,
			genre = $6,
			image_path = $7,
			description = $8,
			updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql,
		b.ID, b.OwnerID, b.Title, b.Author, b.Year, b.Genre, b.ImagePath, b.Description,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return translateErr(err)
}

func (r *PostgresRepo) Delete(ctx context.Context, ownerID, id string) (Book, error) {
	sql := `DELETE FROM books WHERE id = $1 AND owner_id = $2 RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, sql, id, ownerID))
	if err != nil {
		return Book{}, translateErr(err)
	}
	return b, nil
}

func (r *PostgresRepo) Stats(ctx context.Context, ownerID string) (Stats, error) {
	stats := emptyStats()

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	const countSQL = `SELECT COUNT(*) FROM books WHERE owner_id = $1`
	if err := r.db.QueryRow(timeoutCtx, countSQL, ownerID).Scan(&stats.TotalCount); err != nil {
		return Stats{}, translateErr(err)
	}

	const genreSQL = `
		SELECT genre, COUNT(*) FROM books
		WHERE owner_id = $1
		GROUP BY genre
		ORDER BY COUNT(*) DESC, genre ASC`
	rows, err := r.db.Query(timeoutCtx, genreSQL, ownerID)
	if err != nil {
		return Stats{}, translateErr(err)
	}
	stats.GenreStats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (GenreCount, error) {
		var gc GenreCount
		err := row.Scan(&gc.Genre, &gc.Count)
		return gc, err
	})
	if err != nil {
		return Stats{}, translateErr(err)
	}

	const yearSQL = `
		SELECT year, COUNT(*) FROM books
		WHERE owner_id = $1 AND year <> ''
		GROUP BY year
		ORDER BY year::int DESC
		LIMIT $2`
	rows, err = r.db.Query(timeoutCtx, yearSQL, ownerID, yearStatsLimit)
	if err != nil {
		return Stats{}, translateErr(err)
	}
	stats.YearStats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (YearCount, error) {
		var yc YearCount
		err := row.Scan(&yc.Year, &yc.Count)
		return yc, err
	})
	if err != nil {
		return Stats{}, translateErr(err)
	}
	return stats, nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Year, &b.Genre, &b.ImagePath, &b.Description,
		&b.OwnerID, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var columnFields = map[string]string{
	"title":       "title",
	"author":      "author",
	"year":        "year",
	"genre":       "genre",
	"image_path":  "imagePath",
	"description": "description",
}

// translateErr maps driver errors onto the package's error kinds. Constraint
// violations become per-field validation errors when the column is known.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02":
			return ErrInvalidID
		case "23514", "23502", "22001":
			return validation.Errors{{
				Field:   constraintField(pgErr),
				Message: "Value rejected by the book store: " + pgErr.Message,
			}}
		}
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func constraintField(pgErr *pgconn.PgError) string {
	if f, ok := columnFields[pgErr.ColumnName]; ok {
		return f
	}
	// constraints are named books_<column>_check
	name := strings.TrimSuffix(strings.TrimPrefix(pgErr.ConstraintName, "books_"), "_check")
	if f, ok := columnFields[name]; ok {
		return f
	}
	return "book"
}
