package main

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes and middleware for the gateway.
func (g *gateway) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(g.instrumentationMiddleware)
	router.Use(g.corsMiddleware)
	router.Use(requestIDMiddleware)
	if g.limiter != nil {
		router.Use(g.rateLimitMiddleware)
	}

	// Message send endpoints
	router.HandleFunc("/sms/send", g.handleSendSMS).Methods("POST")
	router.HandleFunc("/whatsapp/send-template", g.handleSendWhatsApp).Methods("POST")

	// Chaos admin toggle
	router.HandleFunc("/admin/simulate-load", g.handleSimulateLoad).Methods("POST")

	// Health check endpoints
	router.HandleFunc("/health", g.handleHealth).Methods("GET")
	router.HandleFunc("/ready", g.handleReady).Methods("GET")

	// Server info
	router.HandleFunc("/info", g.handleInfo).Methods("GET")

	// Recent deliveries and replay
	router.HandleFunc("/deliveries", g.handleDeliveries).Methods("GET")
	router.HandleFunc("/deliveries/replay", g.handleReplay).Methods("POST")

	// Live delivery events and stats
	router.HandleFunc("/ws", g.handleWS)
	router.HandleFunc("/sse", g.handleSSE)

	// Prometheus exposition over the gateway's own registry
	router.Handle("/metrics", promhttp.HandlerFor(g.metrics.registry, promhttp.HandlerOpts{}))

	return router
}
