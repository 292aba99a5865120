package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	filenamePrefix = "book-cover-"
	maxNameLen     = 255
	// a fresh name is drawn on ErrExists; the random part makes this rare
	maxNameAttempts = 3
)

// Store enforces the upload rules on top of a Backend.
type Store struct {
	backend   Backend
	maxBytes  int64
	urlPrefix string
	now       func() time.Time
	newID     func() string
}

// NewStore returns a Store that accepts files up to maxBytes and publishes
// them under urlPrefix (for example "/uploads/").
func NewStore(backend Backend, maxBytes int64, urlPrefix string) *Store {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Store{
		backend:   backend,
		maxBytes:  maxBytes,
		urlPrefix: urlPrefix,
		now:       time.Now,
		newID:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// MaxBytes is the largest accepted file size.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// URL maps a filename to the path it is served from.
func (s *Store) URL(filename string) string {
	return s.urlPrefix + filename
}

// Put validates and writes an upload under a freshly generated filename.
// The write only counts once the artifact can be read back at full size.
func (s *Store) Put(ctx context.Context, u Upload) (StoredImage, error) {
	size := int64(len(u.Data))
	if size > s.maxBytes {
		return StoredImage{}, ErrTooLarge
	}
	if !Accepts(u.OriginalName, u.ContentType) {
		return StoredImage{}, ErrUnsupportedType
	}

	ext := storedExtension(u.OriginalName, u.ContentType)
	mimeType := mimeTypeFor(ext, u.ContentType)

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := s.newName(ext)
		err := s.backend.Create(ctx, name, u.Data, mimeType)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return StoredImage{}, fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}

		obj, err := s.backend.Stat(ctx, name)
		if err != nil || obj.Size != size {
			_ = s.backend.Remove(ctx, name)
			if err == nil {
				err = fmt.Errorf("stored %d of %d bytes", obj.Size, size)
			}
			return StoredImage{}, fmt.Errorf("%w: verify %s: %w", ErrWriteFailed, name, err)
		}

		return StoredImage{
			Filename:     name,
			OriginalName: u.OriginalName,
			Size:         obj.Size,
			MimeType:     mimeType,
			URL:          s.URL(name),
			Path:         obj.Location,
		}, nil
	}
	return StoredImage{}, fmt.Errorf("%w: no free filename after %d attempts", ErrWriteFailed, maxNameAttempts)
}

// Info describes a stored image.
func (s *Store) Info(ctx context.Context, filename string) (StoredImage, error) {
	if !validName(filename) {
		return StoredImage{}, ErrNotFound
	}
	obj, err := s.backend.Stat(ctx, filename)
	if err != nil {
		return StoredImage{}, err
	}
	return s.describe(filename, obj), nil
}

// Open returns the image bytes. The caller closes the reader.
func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, StoredImage, error) {
	if !validName(filename) {
		return nil, StoredImage{}, ErrNotFound
	}
	rc, obj, err := s.backend.Open(ctx, filename)
	if err != nil {
		return nil, StoredImage{}, err
	}
	return rc, s.describe(filename, obj), nil
}

// Delete removes an image. A second delete of the same name is ErrNotFound.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if !validName(filename) {
		return ErrNotFound
	}
	return s.backend.Remove(ctx, filename)
}

func (s *Store) describe(filename string, obj Object) StoredImage {
	created := obj.ModTime
	return StoredImage{
		Filename:  filename,
		Size:      obj.Size,
		MimeType:  mimeTypeFor(extensionOf(filename), ""),
		URL:       s.URL(filename),
		CreatedAt: &created,
	}
}

func (s *Store) newName(ext string) string {
	name := filenamePrefix + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + s.newID()
	if ext != "" {
		name += "." + ext
	}
	return name
}

// validName accepts a single visible path element. Anything else cannot name
// a stored image.
func validName(name string) bool {
	if name == "" || len(name) > maxNameLen || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
