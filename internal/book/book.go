package book

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidID is returned when an identifier is not a well-formed book id.
	ErrInvalidID = errors.New("invalid book id")
	// ErrStoreUnavailable wraps backend failures that are not the caller's fault.
	ErrStoreUnavailable = errors.New("book store unavailable")
)

// GenreAll is the search sentinel meaning "no genre filter".
const GenreAll = "All"

// Genres is the fixed set of allowed genre values.
var Genres = []string{"Fiction", "Non-fiction", "Biography", "Fantasy", "Science", "Romance", "Other"}

// Book represents a book record owned by a single principal.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Year        string    `json:"year"`
	Genre       string    `json:"genre"`
	ImagePath   string    `json:"imagePath"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FormattedYear returns the year or "N/A" when unknown.
func (b Book) FormattedYear() string {
	if b.Year == "" {
		return "N/A"
	}
	return b.Year
}

func (b Book) MarshalJSON() ([]byte, error) {
	type plain Book
	return json.Marshal(struct {
		plain
		FormattedYear string `json:"formattedYear"`
	}{plain(b), b.FormattedYear()})
}

// fields exposes the writable fields in the shape the schema checks.
func (b Book) fields() map[string]any {
	return map[string]any{
		"title":       b.Title,
		"author":      b.Author,
		"year":        b.Year,
		"genre":       b.Genre,
		"imagePath":   b.ImagePath,
		"description": b.Description,
	}
}

// Changes carries normalised writable fields. A nil field was not supplied.
type Changes struct {
	Title       *string
	Author      *string
	Year        *string
	Genre       *string
	ImagePath   *string
	Description *string
}

// changesFrom maps schema output onto Changes; keys the schema does not
// know, including id and ownerId, never reach a record.
func changesFrom(values map[string]string) Changes {
	pick := func(key string) *string {
		if v, ok := values[key]; ok {
			return &v
		}
		return nil
	}
	return Changes{
		Title:       pick("title"),
		Author:      pick("author"),
		Year:        pick("year"),
		Genre:       pick("genre"),
		ImagePath:   pick("imagePath"),
		Description: pick("description"),
	}
}

// Apply overwrites the supplied fields of b.
func (c Changes) Apply(b *Book) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.Title, c.Title)
	set(&b.Author, c.Author)
	set(&b.Year, c.Year)
	set(&b.Genre, c.Genre)
	set(&b.ImagePath, c.ImagePath)
	set(&b.Description, c.Description)
}

// Query selects books for one owner. Empty Text and Genre mean no filter.
type Query struct {
	OwnerID string
	Text    string
	Genre   string
}

func (q Query) normalized() Query {
	q.Text = strings.TrimSpace(q.Text)
	q.Genre = strings.TrimSpace(q.Genre)
	if q.Genre == GenreAll {
		q.Genre = ""
	}
	return q
}

// Matches reports whether b satisfies the query filters.
func (q Query) Matches(b Book) bool {
	q = q.normalized()
	if b.OwnerID != q.OwnerID {
		return false
	}
	if q.Genre != "" && b.Genre != q.Genre {
		return false
	}
	if q.Text == "" {
		return true
	}
	needle := strings.ToLower(q.Text)
	return strings.Contains(strings.ToLower(b.Title), needle) ||
		strings.Contains(strings.ToLower(b.Author), needle)
}

const yearStatsLimit = 10

type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// Stats summarises an owner's collection.
type Stats struct {
	TotalCount int          `json:"totalCount"`
	GenreStats []GenreCount `json:"genreStats"`
	YearStats  []YearCount  `json:"yearStats"`
}

func emptyStats() Stats {
	return Stats{GenreStats: []GenreCount{}, YearStats: []YearCount{}}
}
