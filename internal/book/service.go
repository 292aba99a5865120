package book

import (
	"context"

	"bookshelf/internal/validation"

	"github.com/google/uuid"
)

// Service provides book-related business logic.
type Service struct {
	repo   Repository
	schema *validation.Schema
}

// NewService creates a new book service. The schema is consulted both when
// checking request payloads and before every write reaches the repository.
func NewService(repo Repository, schema *validation.Schema) *Service {
	if schema == nil {
		schema = NewSchema(nil)
	}
	return &Service{repo: repo, schema: schema}
}

// CheckCreate validates a create payload; every required field must be present.
func (s *Service) CheckCreate(payload map[string]any) (Changes, error) {
	values, err := s.schema.Check(payload, validation.Full)
	if err != nil {
		return Changes{}, err
	}
	return changesFrom(values), nil
}

// CheckUpdate validates only the fields present in a partial payload.
func (s *Service) CheckUpdate(payload map[string]any) (Changes, error) {
	values, err := s.schema.Check(payload, validation.Partial)
	if err != nil {
		return Changes{}, err
	}
	return changesFrom(values), nil
}

// List returns every book of the owner, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Book, error) {
	return s.repo.List(ctx, Query{OwnerID: ownerID})
}

// Search filters the owner's books by title/author substring and genre.
func (s *Service) Search(ctx context.Context, ownerID, text, genre string) ([]Book, error) {
	q := Query{OwnerID: ownerID, Text: text, Genre: genre}
	return s.repo.List(ctx, q.normalized())
}

// Get returns a single book.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Book, error) {
	id, err := parseID(id)
	if err != nil {
		return Book{}, err
	}
	return s.repo.GetByID(ctx, ownerID, id)
}

// Create stores a new book for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, c Changes) (Book, error) {
	b := Book{OwnerID: ownerID}
	c.Apply(&b)
	if err := s.checkRecord(b); err != nil {
		return Book{}, err
	}
	if err := s.repo.Create(ctx, &b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Update applies the supplied changes to an existing book. The merged record
// is validated again since a partial payload never saw the other fields.
func (s *Service) Update(ctx context.Context, ownerID, id string, c Changes) (Book, error) {
	id, err := parseID(id)
	if err != nil {
		return Book{}, err
	}
	b, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return Book{}, err
	}
	c.Apply(&b)
	if err := s.checkRecord(b); err != nil {
		return Book{}, err
	}
	if err := s.repo.Update(ctx, &b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Delete removes a book. Any cover image is left in place.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = s.repo.Delete(ctx, ownerID, id)
	return err
}

// Stats summarises the owner's collection.
func (s *Service) Stats(ctx context.Context, ownerID string) (Stats, error) {
	return s.repo.Stats(ctx, ownerID)
}

func (s *Service) checkRecord(b Book) error {
	_, err := s.schema.Check(b.fields(), validation.Full)
	return err
}

func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}
