package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type correlationIDKey struct{}

// Correlation stamps every request with a correlation id, propagated as
// an explicit context value rather than a package-level thread-local, so
// the logger and any on-disk dump writer can tag entries for one request
// across handler, router, and provider-client boundaries.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Correlation-ID", id)

		ctx := context.WithValue(r.Context(), correlationIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CorrelationID reads the id stamped by Correlation, or "" if the
// request never passed through that middleware (e.g. in a unit test
// calling a handler directly).
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
