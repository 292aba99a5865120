// Package image stores book cover images and serves them back by filename.
package image

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no image is stored under a filename.
	ErrNotFound = errors.New("image not found")
	// ErrTooLarge is returned when a file or upload request exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
	// ErrUnsupportedType is returned when neither the name nor the declared type is an accepted image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooManyFiles is returned when a form carries more than one image file.
	ErrTooManyFiles = errors.New("too many files")
	// ErrNoFile is returned when a form carries no image file.
	ErrNoFile = errors.New("no image file provided")
	// ErrUnexpectedField is returned when a file arrives in a field other than FileField.
	ErrUnexpectedField = errors.New("unexpected file field")
	// ErrFieldTooLarge is returned when a non-file form value exceeds 1 MiB.
	ErrFieldTooLarge = errors.New("form field too large")
	// ErrInvalidForm is returned when the multipart body cannot be parsed.
	ErrInvalidForm = errors.New("invalid multipart form")
	// ErrWriteFailed is returned when an image could not be stored and verified.
	ErrWriteFailed = errors.New("image write failed")

	// ErrExists is returned by a Backend when the key is already taken.
	ErrExists = errors.New("image already exists")
)

// Upload is a single file received from a client.
type Upload struct {
	OriginalName string
	ContentType  string
	Data         []byte
}

// StoredImage describes an artifact held by the Store.
type StoredImage struct {
	Filename     string     `json:"filename"`
	OriginalName string     `json:"originalName,omitempty"`
	Size         int64      `json:"size"`
	MimeType     string     `json:"mimeType,omitempty"`
	URL          string     `json:"url"`
	Path         string     `json:"path,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}
