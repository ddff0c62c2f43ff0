package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/chromaflow/internal/ratelimit"
)

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (ratelimit.Decision, error)
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shouldRateLimit(r) {
			next.ServeHTTP(w, r)
			return
		}

		route := routeLabel(r.URL.Path)
		subject := rateLimitSubject(r.Header.Get(s.rateLimitUserIDHeader), route)

		decision, err := s.rateLimiter.Allow(r.Context(), subject)
		if err != nil {
			s.logger.Printf("rate limiter check failed for subject=%s err=%v", subject, err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
		s.metrics.rateLimitRejected.WithLabelValues(route).Inc()
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded",
		})
	})
}

// shouldRateLimit limits every write under /v1; reads are free.
func shouldRateLimit(r *http.Request) bool {
	return r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/v1/")
}

func rateLimitSubject(user, route string) string {
	user = strings.TrimSpace(user)
	if user == "" {
		user = "anonymous"
	}
	return user + ":" + route
}

func retryAfterSeconds(d time.Duration) int {
	return max(1, int(d.Round(time.Second).Seconds()))
}
