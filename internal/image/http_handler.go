package image

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	store  *Store
	logger *slog.Logger
}

func NewHTTPHandler(store *Store, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{store: store, logger: logger}
}

// Upload handles POST /upload/image
func (h *HTTPHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := RequestLimit(h.store.MaxBytes())
	if r.ContentLength > limit {
		h.writeError(w, r, ErrTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	up, err := ReadUpload(r, h.store.MaxBytes())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	img, err := h.store.Put(r.Context(), up)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "image stored",
		"filename", img.Filename,
		"size", img.Size,
		"mime_type", img.MimeType,
		"request_id", httpx.RequestIDFrom(r),
	)
	httpx.JSONMessage(w, r, http.StatusOK, "Image uploaded successfully", img)
}

// Info handles GET /upload/image/{filename}
func (h *HTTPHandler) Info(w http.ResponseWriter, r *http.Request) {
	img, err := h.store.Info(r.Context(), r.PathValue("filename"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, img)
}

// Delete handles DELETE /upload/image/{filename}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("filename")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, r, http.StatusOK, "Image deleted successfully", nil)
}

// Serve handles GET /uploads/{filename} and returns the raw image bytes.
func (h *HTTPHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rc, img, err := h.store.Open(r.Context(), r.PathValue("filename"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")

	var modTime time.Time
	if img.CreatedAt != nil {
		modTime = *img.CreatedAt
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, img.Filename, modTime, rs)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "image stream interrupted", "filename", img.Filename, "error", err)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeTooLarge,
			fmt.Sprintf("File too large. Maximum size is %s.", humanSize(h.store.MaxBytes())), nil)
	case errors.Is(err, ErrUnsupportedType):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeUnsupported, "Only image files are allowed!", nil)
	case errors.Is(err, ErrTooManyFiles):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeTooMany, "Too many files. Only one file is allowed.", nil)
	case errors.Is(err, ErrNoFile):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "No image file provided", nil)
	case errors.Is(err, ErrUnexpectedField):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Unexpected field", nil)
	case errors.Is(err, ErrFieldTooLarge):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Field value too long", nil)
	case errors.Is(err, ErrInvalidForm):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid multipart form", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Image file not found", nil)
	case errors.Is(err, ErrWriteFailed):
		h.logError(r, "image write failed", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeWriteFailed, "Failed to save file to disk", nil)
	default:
		h.logError(r, "image request failed", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
	}
}

func (h *HTTPHandler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", httpx.RequestIDFrom(r),
		"error", err,
	)
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
