package image

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// FileField is the multipart field that carries the image.
	FileField = "image"

	maxFieldBytes = 1 << 20

	// room for boundaries, part headers and small form values
	multipartOverhead = 1 << 20
)

// RequestLimit is the largest upload request body accepted for a file limit
// of maxBytes. It sits well above the file limit so an oversize file is
// reported as ErrTooLarge by the part reader.
func RequestLimit(maxBytes int64) int64 {
	return 2*maxBytes + multipartOverhead
}

// ReadUpload pulls the single image file out of a multipart request. Every
// part is checked before anything is stored, so a rejected form leaves no
// artifact behind.
func ReadUpload(r *http.Request, maxBytes int64) (Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return Upload{}, ErrNoFile
	}

	var (
		up    Upload
		found bool
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Upload{}, formError(err)
		}

		if part.FileName() == "" {
			n, err := io.Copy(io.Discard, io.LimitReader(part, maxFieldBytes+1))
			part.Close()
			if err != nil {
				return Upload{}, formError(err)
			}
			if n > maxFieldBytes {
				return Upload{}, ErrFieldTooLarge
			}
			continue
		}

		if part.FormName() != FileField {
			part.Close()
			return Upload{}, fmt.Errorf("%w: %q", ErrUnexpectedField, part.FormName())
		}
		if found {
			part.Close()
			return Upload{}, ErrTooManyFiles
		}

		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		part.Close()
		if err != nil {
			return Upload{}, formError(err)
		}
		if int64(len(data)) > maxBytes {
			return Upload{}, ErrTooLarge
		}

		up = Upload{
			OriginalName: part.FileName(),
			ContentType:  part.Header.Get("Content-Type"),
			Data:         data,
		}
		found = true
	}

	if !found {
		return Upload{}, ErrNoFile
	}
	return up, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrTooLarge
	}
	return fmt.Errorf("%w: %w", ErrInvalidForm, err)
}
