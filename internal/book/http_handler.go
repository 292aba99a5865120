package book

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/validation"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// List handles GET /books. A query or genre parameter turns it into a search.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := httpx.OwnerIDFrom(r)
	params := r.URL.Query()

	var (
		books []Book
		err   error
	)
	if params.Has("query") || params.Has("genre") {
		books, err = h.service.Search(r.Context(), ownerID, params.Get("query"), params.Get("genre"))
	} else {
		books, err = h.service.List(r.Context(), ownerID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONList(w, r, books, len(books))
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), httpx.OwnerIDFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	changes, err := h.service.CheckCreate(payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.service.Create(r.Context(), httpx.OwnerIDFrom(r), changes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, r, http.StatusCreated, "Book created successfully", b)
}

// Update handles PUT /books/{id}. Only the supplied fields change.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	changes, err := h.service.CheckUpdate(payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.service.Update(r.Context(), httpx.OwnerIDFrom(r), r.PathValue("id"), changes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, r, http.StatusOK, "Book updated successfully", b)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httpx.OwnerIDFrom(r), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, r, http.StatusOK, "Book deleted successfully", nil)
}

// Stats handles GET /books/stats/summary
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), httpx.OwnerIDFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, stats)
}

// decodePayload reads a JSON object body. Numbers are kept as json.Number so
// the schema sees the literal the client sent.
func (h *HTTPHandler) decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return nil, false
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		details := make([]httpx.ErrorDetail, 0, len(verrs))
		for _, v := range verrs {
			details = append(details, httpx.ErrorDetail{Field: v.Field, Message: v.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", details)
	case errors.Is(err, ErrInvalidID):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeInvalidID, "Invalid book ID", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Book not found", nil)
	default:
		h.logger.ErrorContext(r.Context(), "book request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFrom(r),
			"error", err,
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
	}
}
