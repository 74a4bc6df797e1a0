package request

import (
	"net/http"

	"github.com/google/uuid"

	"altguard/pkg/requestcontext"
)

// HeaderRequestID carries the correlation ID in and out of the service.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates an inbound X-Request-ID or generates one, stores it in the
// context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
