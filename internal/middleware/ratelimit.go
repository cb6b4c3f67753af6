package middleware

import (
	"net/http"

	"elearning-access/internal/platform/logger"
	"elearning-access/internal/platform/ratelimit"
)

// RateLimit limita por usuario autenticado (o IP si no hay claims).
// Si el limiter falla se deja pasar y se loguea: el limiter no es un control de acceso.
func RateLimit(l ratelimit.Limiter, bucket string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if c, ok := GetClaims(r.Context()); ok && c.UserID != "" {
				key = "user:" + c.UserID
			}

			ok, err := l.Allow(r.Context(), bucket, key)
			if err != nil {
				log.Warn("rate limiter error", map[string]any{"bucket": bucket, "err": err})
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
