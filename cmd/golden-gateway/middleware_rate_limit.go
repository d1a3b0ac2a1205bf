package main

import (
	"net/http"
)

// rateLimitMiddleware enforces the optional global limiter, skipping the
// streaming routes. This is transport-level backpressure; the sentinel-sender
// 429 in the send handler is independent of it.
func (g *gateway) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sse" || r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		if !g.limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
