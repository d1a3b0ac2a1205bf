package main

import (
	"net/http"
	"runtime"
	"time"
)

// Health check handlers
func (g *gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"queueDepth": g.chaos.QueueDepth(),
	})
}

func (g *gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Server info handler
func (g *gateway) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp":  time.Now(),
		"request_id": r.Header.Get("X-Request-ID"),
		"server": map[string]interface{}{
			"hostname":       g.cfg.Hostname,
			"version":        "1.0.0",
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
			"start_time":     g.startTime,
			"uptime":         time.Since(g.startTime).String(),
			"request_count":  g.requestCount.Load(),
			"policy":         g.policy.Name(),
			"loadSimulation": g.chaos.UnderLoad(),
			"queueDepth":     g.chaos.QueueDepth(),
		},
	})
}
