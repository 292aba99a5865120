package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/image"
)

// book payloads are small JSON objects; uploads enforce their own limit
const jsonBodyLimit = 1 << 20

type routerDeps struct {
	books   *book.HTTPHandler
	images  *image.HTTPHandler
	ready   func(context.Context) error
	limiter *httpx.RateLimitMiddleware
	cfg     config.Config
	logger  *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	router := http.NewServeMux()

	// writes are rate limited per client when a limiter is configured
	limited := func(h http.Handler) http.Handler {
		if d.limiter == nil {
			return h
		}
		return d.limiter.Middleware(h)
	}
	jsonBody := func(h http.HandlerFunc) http.Handler {
		return httpx.RequestSizeLimitMiddleware(jsonBodyLimit)(h)
	}

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /books", d.books.List)
	router.HandleFunc("GET /books/stats/summary", d.books.Stats)
	router.HandleFunc("GET /books/{id}", d.books.Get)
	router.Handle("POST /books", limited(jsonBody(d.books.Create)))
	router.Handle("PUT /books/{id}", limited(jsonBody(d.books.Update)))
	router.Handle("DELETE /books/{id}", limited(http.HandlerFunc(d.books.Delete)))

	router.Handle("POST /upload/image", limited(http.HandlerFunc(d.images.Upload)))
	router.HandleFunc("GET /upload/image/{filename}", d.images.Info)
	router.Handle("DELETE /upload/image/{filename}", limited(http.HandlerFunc(d.images.Delete)))
	router.HandleFunc("GET "+d.cfg.UploadURL+"{filename}", d.images.Serve)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.OwnerMiddleware(d.cfg.DefaultOwnerID),
		httpx.AccessLogMiddleware(d.logger),
		httpx.RecoveryMiddleware(d.logger),
		httpx.SecurityHeadersMiddleware(d.cfg.EnableHSTS),
		httpx.CORSMiddleware(d.cfg.CORSOrigins),
	)
}
