package httpx

import (
	"net/http"
)

// OwnerMiddleware resolves the owner every store call is scoped to. There is
// no authentication yet, so all requests belong to defaultOwner.
func OwnerMiddleware(defaultOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ContextWithOwner(r.Context(), defaultOwner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
