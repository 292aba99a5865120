package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	ownerIDKey   contextKey = "ownerID"
	requestIDKey contextKey = "requestID"
)

// OwnerIDFrom retrieves the owner ID resolved for the request.
func OwnerIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ownerIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithOwner returns a new context carrying the owner ID.
func ContextWithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
