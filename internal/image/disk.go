package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskBackend keeps every image as a file in one flat directory.
type DiskBackend struct {
	dir string
}

// NewDiskBackend creates dir when missing.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskBackend{dir: dir}, nil
}

func (d *DiskBackend) path(key string) string {
	return filepath.Join(d.dir, key)
}

// Create writes to a temp file first and links it into place, so a reader
// never sees a partial image and an existing file is never replaced.
func (d *DiskBackend) Create(_ context.Context, key string, data []byte, _ string) error {
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Link(tmpName, d.path(key)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("link image: %w", err)
	}
	return nil
}

func (d *DiskBackend) Stat(_ context.Context, key string) (Object, error) {
	fi, err := os.Stat(d.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("stat image: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return Object{}, ErrNotFound
	}
	return d.object(key, fi), nil
}

func (d *DiskBackend) Open(_ context.Context, key string) (io.ReadCloser, Object, error) {
	f, err := os.Open(d.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Object{}, ErrNotFound
		}
		return nil, Object{}, fmt.Errorf("open image: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("stat image: %w", err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, Object{}, ErrNotFound
	}
	return f, d.object(key, fi), nil
}

func (d *DiskBackend) Remove(_ context.Context, key string) error {
	if err := os.Remove(d.path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (d *DiskBackend) object(key string, fi os.FileInfo) Object {
	return Object{
		Key:      key,
		Size:     fi.Size(),
		ModTime:  fi.ModTime().UTC(),
		Location: d.path(key),
	}
}
