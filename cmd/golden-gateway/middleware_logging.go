package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// instrumentationMiddleware times every request, logs one line per request and
// folds the completion into the golden-signal collectors. The /metrics route
// is excluded so scrapes never measure themselves.
func (g *gateway) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		g.requestCount.Add(1)
		g.inflight.Add(1)
		defer g.inflight.Add(-1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		// The client is gone; recording a completion status now would be a
		// phantom outcome.
		if r.Context().Err() != nil {
			log.Printf("%s %s %s - client disconnected after %v", r.RemoteAddr, r.Method, r.URL.Path, duration)
			return
		}

		path := routeTemplate(r)
		status := strconv.Itoa(rw.statusCode)

		g.metrics.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration.Seconds())
		g.metrics.requestsTotal.WithLabelValues(r.Method, path, status).Inc()
		if rw.statusCode >= 400 {
			errorType := "client_error"
			if rw.statusCode >= 500 {
				errorType = "server_error"
			}
			g.metrics.errorsTotal.WithLabelValues(r.Method, path, status, errorType).Inc()
		}

		if g.cfg.LogRequests {
			log.Printf("%s %s %s %s - %d %v",
				r.RemoteAddr, r.Header.Get("X-Request-ID"), r.Method, r.URL.Path, rw.statusCode, duration)
		}
	})
}

// routeTemplate returns the mux route template so the path label stays low
// cardinality, falling back to the raw path for unmatched requests.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil && tmpl != "" {
			return tmpl
		}
	}
	return r.URL.Path
}
