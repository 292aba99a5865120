package image

import (
	"context"
	"io"
	"time"
)

// Object is the metadata a Backend keeps for a stored key.
type Object struct {
	Key      string
	Size     int64
	ModTime  time.Time
	Location string
}

// Backend is durable byte storage addressed by flat keys.
type Backend interface {
	// Create writes data under key and fails with ErrExists if the key is taken.
	Create(ctx context.Context, key string, data []byte, contentType string) error
	// Stat fails with ErrNotFound when key is absent.
	Stat(ctx context.Context, key string) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// Remove fails with ErrNotFound when key is absent.
	Remove(ctx context.Context, key string) error
}
