package handlers

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/metrics"
	"github.com/Shivam-2310/ShortAI/internal/ratelimit"
)

// clientIP honours X-Forwarded-For (first element), then X-Real-IP, then the
// socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware guards the redirect path only; API endpoints are not
// behind it. Limit headers go on every response, Retry-After on refusals.
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed := limiter.Allow(r.Context(), ip)

			remaining := limiter.Remaining(r.Context(), ip)
			reset := limiter.ResetSeconds(r.Context(), ip)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if reset > 0 {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
			}

			if !allowed {
				metrics.RateLimited.Inc()
				if reset > 0 {
					w.Header().Set("Retry-After", strconv.FormatInt(reset, 10))
				}
				jsonError(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger emits one structured line per request and feeds the latency
// histogram.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, r.URL.Path, fmt.Sprintf("%d", rec.status)).
			Observe(elapsed.Seconds())

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Str("ip", clientIP(r)).
			Msg("request")
	})
}
