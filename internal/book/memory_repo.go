package book

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo keeps books in-process. It backs local development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	books map[string]memoryEntry
	seq   uint64
	now   func() time.Time
}

type memoryEntry struct {
	book Book
	seq  uint64
}

// NewMemoryRepo initializes an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		books: make(map[string]memoryEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepo) List(_ context.Context, q Query) ([]Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(m.books))
	for _, e := range m.books {
		if q.Matches(e.book) {
			entries = append(entries, e)
		}
	}
	sortNewestFirst(entries)

	out := make([]Book, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.book)
	}
	return out, nil
}

func (m *MemoryRepo) GetByID(_ context.Context, ownerID, id string) (Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.books[id]
	if !ok || e.book.OwnerID != ownerID {
		return Book{}, ErrNotFound
	}
	return e.book, nil
}

func (m *MemoryRepo) Create(_ context.Context, b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := m.now()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	m.books[b.ID] = memoryEntry{book: *b, seq: m.seq}
	return nil
}

func (m *MemoryRepo) Update(_ context.Context, b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.books[b.ID]
	if !ok || e.book.OwnerID != b.OwnerID {
		return ErrNotFound
	}
	b.CreatedAt = e.book.CreatedAt
	b.UpdatedAt = m.now()
	e.book = *b
	m.books[b.ID] = e
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, ownerID, id string) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.books[id]
	if !ok || e.book.OwnerID != ownerID {
		return Book{}, ErrNotFound
	}
	delete(m.books, id)
	return e.book, nil
}

func (m *MemoryRepo) Stats(_ context.Context, ownerID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := emptyStats()
	genres := map[string]int{}
	years := map[string]int{}
	for _, e := range m.books {
		if e.book.OwnerID != ownerID {
			continue
		}
		stats.TotalCount++
		genres[e.book.Genre]++
		if e.book.Year != "" {
			years[e.book.Year]++
		}
	}

	for g, n := range genres {
		stats.GenreStats = append(stats.GenreStats, GenreCount{Genre: g, Count: n})
	}
	sort.Slice(stats.GenreStats, func(i, j int) bool {
		a, b := stats.GenreStats[i], stats.GenreStats[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Genre < b.Genre
	})

	for y, n := range years {
		stats.YearStats = append(stats.YearStats, YearCount{Year: y, Count: n})
	}
	// years are validated four-digit strings, so lexical order is numeric order
	sort.Slice(stats.YearStats, func(i, j int) bool {
		return stats.YearStats[i].Year > stats.YearStats[j].Year
	})
	if len(stats.YearStats) > yearStatsLimit {
		stats.YearStats = stats.YearStats[:yearStatsLimit]
	}
	return stats, nil
}

func sortNewestFirst(entries []memoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.book.CreatedAt.Equal(b.book.CreatedAt) {
			return a.book.CreatedAt.After(b.book.CreatedAt)
		}
		return a.seq > b.seq
	})
}
