package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altguard/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLimiterAllow(t *testing.T) {
	l := New(1, 2, discardLogger())

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "burst exhausted")
	assert.True(t, l.Allow("5.6.7.8"), "buckets are per address")
}

func TestLimiterPrune(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(60, 1, discardLogger(), WithIdleTimeout(time.Minute), WithClock(func() time.Time { return now }))

	l.Allow("1.2.3.4")
	now = now.Add(2 * time.Minute)
	l.Allow("5.6.7.8")

	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 0, l.Prune())
}

func TestLimiterMiddleware(t *testing.T) {
	l := New(1, 1, discardLogger())
	calls := 0
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/verify", nil)
		r = r.WithContext(requestcontext.WithClientMetadata(r.Context(), "1.2.3.4", "ua"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	require.Equal(t, http.StatusOK, send().Code)
	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, 1, calls)
}
