// Package servicetoken authenticates machine callers that share a static secret.
package servicetoken

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"altguard/pkg/requestcontext"
)

// Header carries the shared secret.
const Header = "X-Service-Token"

// Require rejects requests whose X-Service-Token does not equal expected.
func Require(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(Header)
			// constant-time comparison
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "service token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"service token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
