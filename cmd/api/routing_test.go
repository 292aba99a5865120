package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/image"
	"bookshelf/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, config.Config) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.StoreDriver = config.StoreDriverMemory
	cfg.UploadDir = t.TempDir()

	backend, err := image.NewDiskBackend(cfg.UploadDir)
	require.NoError(t, err)

	handler := newRouter(routerDeps{
		books:  book.NewHTTPHandler(book.NewService(book.NewMemoryRepo(), nil), logger),
		images: image.NewHTTPHandler(image.NewStore(backend, cfg.MaxFileSize, cfg.UploadURL), logger),
		ready:  func(context.Context) error { return nil },
		cfg:    cfg,
		logger: logger,
	})
	return handler, cfg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler, _ := newTestRouter(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, r *http.Request) testutil.RecordResponse {
	t.Helper()
	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return testutil.RecordResponse{Code: resp.StatusCode, Header: resp.Header, Body: body}
}

func clientRequest(t *testing.T, srv *httptest.Server, method, path string, body interface{}) *http.Request {
	t.Helper()
	r := testutil.NewRequest(method, srv.URL+path, body)
	r.RequestURI = ""
	return r
}

func TestRouting_BookLifecycle(t *testing.T) {
	srv := newTestServer(t)

	created := do(t, clientRequest(t, srv, http.MethodPost, "/books", testutil.BookPayload()))
	testutil.AssertResponseCode(t, created.Code, http.StatusCreated)
	assert.NotEmpty(t, created.Header.Get("X-Request-Id"))
	id, _ := created.Data()["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "default-user", created.Data()["ownerId"])

	list := do(t, clientRequest(t, srv, http.MethodGet, "/books?query=le%20guin&genre=Fiction", nil))
	testutil.AssertResponseCode(t, list.Code, http.StatusOK)
	testutil.AssertResponseBody(t, list.Body, "count", float64(1))

	updated := do(t, clientRequest(t, srv, http.MethodPut, "/books/"+id, map[string]interface{}{"description": "new text"}))
	testutil.AssertResponseCode(t, updated.Code, http.StatusOK)
	assert.Equal(t, "new text", updated.Data()["description"])
	assert.Equal(t, "1969", updated.Data()["year"])

	stats := do(t, clientRequest(t, srv, http.MethodGet, "/books/stats/summary", nil))
	testutil.AssertResponseCode(t, stats.Code, http.StatusOK)
	assert.Equal(t, float64(1), stats.Data()["totalCount"])

	for _, want := range []int{http.StatusOK, http.StatusNotFound} {
		deleted := do(t, clientRequest(t, srv, http.MethodDelete, "/books/"+id, nil))
		testutil.AssertResponseCode(t, deleted.Code, want)
	}

	malformed := do(t, clientRequest(t, srv, http.MethodGet, "/books/not-an-id", nil))
	testutil.AssertResponseCode(t, malformed.Code, http.StatusBadRequest)
}

func TestRouting_ImageURLServesUploadedBytes(t *testing.T) {
	srv := newTestServer(t)
	data := bytes.Repeat([]byte("cover"), 100)

	r := testutil.NewMultipartRequest(http.MethodPost, srv.URL+"/upload/image",
		[]testutil.FilePart{{Field: "image", Filename: "cover.png", ContentType: "application/octet-stream", Data: data}}, nil)
	r.RequestURI = ""
	uploaded := do(t, r)
	testutil.AssertResponseCode(t, uploaded.Code, http.StatusOK)

	url, _ := uploaded.Data()["url"].(string)
	require.NotEmpty(t, url)

	resp, err := http.Get(srv.URL + url)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, data, got)

	filename, _ := uploaded.Data()["filename"].(string)
	info := do(t, clientRequest(t, srv, http.MethodGet, "/upload/image/"+filename, nil))
	testutil.AssertResponseCode(t, info.Code, http.StatusOK)
	assert.Equal(t, float64(len(data)), info.Data()["size"])
}

func TestRouting_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/books/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouting_NotReady(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := newRouter(routerDeps{
		books:  book.NewHTTPHandler(book.NewService(book.NewMemoryRepo(), nil), logger),
		images: image.NewHTTPHandler(image.NewStore(nil, 1, "/uploads/"), logger),
		ready:  func(context.Context) error { return errors.New("down") },
		cfg:    config.Defaults(),
		logger: logger,
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouting_OversizeUploadIsBadRequest(t *testing.T) {
	handler, cfg := newTestRouter(t)
	// larger than the whole upload request limit, not just the file limit
	data := bytes.Repeat([]byte{0x89}, int(image.RequestLimit(cfg.MaxFileSize))+1)

	for _, chunked := range []bool{false, true} {
		r := testutil.NewMultipartRequest(http.MethodPost, "/upload/image",
			[]testutil.FilePart{{Field: "image", Filename: "cover.png", ContentType: "image/png", Data: data}}, nil)
		if chunked {
			r.ContentLength = -1
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		resp := testutil.RecordHTTPResponse(w)

		testutil.AssertResponseCode(t, resp.Code, http.StatusBadRequest)
		testutil.AssertResponseBody(t, resp.Body, "code", "FILE_TOO_LARGE")
		testutil.AssertResponseBody(t, resp.Body, "error", "File too large. Maximum size is 5MB.")
	}

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRouting_OversizeBookBodyIsRejected(t *testing.T) {
	handler, _ := newTestRouter(t)
	payload := testutil.BookPayload()
	payload["description"] = strings.Repeat("x", jsonBodyLimit+1)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/books", payload))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
