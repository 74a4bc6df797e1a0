// Package ratelimit throttles requests per client address with token buckets.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/httputil"
	"altguard/pkg/platform/privacy"
	"altguard/pkg/requestcontext"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP. Idle buckets are evicted by Prune.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Limiter)

// WithIdleTimeout sets how long an unused bucket is retained.
func WithIdleTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

// WithClock overrides the clock used for eviction bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a limiter allowing perMinute requests per address with the given burst.
func New(perMinute, burst int, logger *slog.Logger, opts ...Option) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request from ip may proceed.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	l.mu.Unlock()
	return v.limiter.Allow()
}

// Prune drops buckets idle for longer than the idle timeout and returns how many were removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idle)
	removed := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

// Middleware rejects requests over the per-address budget with 429.
// It expects the metadata middleware to have populated the client IP.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if !l.Allow(ip) {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"ip_prefix", privacy.AnonymizeIP(ip),
			)
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many verification attempts"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) retryAfterSeconds() int {
	if l.limit <= 0 {
		return 60
	}
	return max(int(1/float64(l.limit)), 1)
}
