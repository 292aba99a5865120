package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage. Every call is
// scoped to an owner.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, error)
	GetByID(ctx context.Context, ownerID, id string) (Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, ownerID, id string) (Book, error)
	Stats(ctx context.Context, ownerID string) (Stats, error)
}
