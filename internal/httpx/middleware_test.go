package httpx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000", "http://localhost:5173"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Expected CORS header for allowed origin, got %s", w.Header().Get("Access-Control-Allow-Origin"))
	}
	methods := w.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(methods, "PUT") || !strings.Contains(methods, "DELETE") {
		t.Errorf("Expected methods header to include PUT and DELETE, got %s", methods)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "http://evil.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("Expected no CORS header for disallowed origin, got %s", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSMiddleware_OPTIONSRequest(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for OPTIONS request, got %d", w.Code)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	for _, hsts := range []bool{true, false} {
		handler := SecurityHeadersMiddleware(hsts)(okHandler())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("Expected nosniff header")
		}
		if w.Header().Get("X-Frame-Options") != "DENY" {
			t.Error("Expected frame options header")
		}
		got := w.Header().Get("Strict-Transport-Security")
		if hsts && got != "max-age=31536000; includeSubDomains" {
			t.Errorf("Expected HSTS header, got %q", got)
		}
		if !hsts && got != "" {
			t.Errorf("Expected no HSTS header, got %q", got)
		}
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(1024)(okHandler())

	small := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(make([]byte, 512)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, small)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for request under limit, got %d", w.Code)
	}

	large := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(make([]byte, 2048)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, large)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for request over limit, got %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "abc-123" || w.Header().Get("X-Request-Id") != "abc-123" {
		t.Errorf("Expected incoming request id to be propagated, got %q", seen)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))
	if seen == "" || seen == "abc-123" {
		t.Errorf("Expected a generated request id, got %q", seen)
	}
}

func TestOwnerMiddleware(t *testing.T) {
	var owner string
	handler := OwnerMiddleware("default-user")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = OwnerIDFrom(r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books", nil))

	if owner != "default-user" {
		t.Errorf("Expected default owner, got %q", owner)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mark("outer"), mark("inner")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("Expected outer,inner got %v", order)
	}
}

func TestRequestIDMiddleware_RejectsUnsafeIDs(t *testing.T) {
	handler := RequestIDMiddleware(okHandler())

	for _, id := range []string{"bad id", "x\ny", strings.Repeat("a", 129)} {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("X-Request-Id", id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-Id"); got == id || got == "" {
			t.Errorf("Expected replacement id for %q, got %q", id, got)
		}
	}
}
