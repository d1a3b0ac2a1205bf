package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	cfg := loadConfigFromEnv()
	g, err := newGateway(cfg)
	if err != nil {
		log.Fatalf("Gateway initialization failed: %v", err)
	}

	router := g.setupRoutes()

	// Wrap the router with h2c to support HTTP/2 over cleartext
	handler := h2c.NewHandler(router, &http2.Server{})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // must outlast the worst simulated delay
		IdleTimeout:  120 * time.Second,
	}

	// SIGTERM logs and exits without draining in-flight requests.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigs
		log.Printf("Received %s, shutting down", sig)
		os.Exit(0)
	}()

	log.Printf("Golden Gateway starting on port %s (policy: %s)", cfg.Port, g.policy.Name())

	if err := startServer(cfg, server); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
