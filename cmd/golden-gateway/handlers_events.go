package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventHub fans delivery records out to connected WebSocket subscribers.
type eventHub struct {
	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[*websocket.Conn]struct{})}
}

func (h *eventHub) subscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[conn] = struct{}{}
}

func (h *eventHub) unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, conn)
}

// publish writes the record to every subscriber, dropping connections that
// fail to write.
func (h *eventHub) publish(record DeliveryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		if err := conn.WriteJSON(record); err != nil {
			conn.Close()
			delete(h.subs, conn)
		}
	}
}

// handleWS streams delivery-outcome events over a WebSocket.
func (g *gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("delivery event subscriber connected: %s", r.RemoteAddr)

	g.events.subscribe(conn)
	defer g.events.unsubscribe(conn)

	// Read loop only to notice the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleSSE streams gateway stats as server-sent events.
func (g *gateway) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			data := map[string]interface{}{
				"timestamp":      time.Now(),
				"queueDepth":     g.chaos.QueueDepth(),
				"loadSimulation": g.chaos.UnderLoad(),
				"inflight":       g.inflight.Load(),
				"requestCount":   g.requestCount.Load(),
			}
			jsonData, _ := json.Marshal(data)
			fmt.Fprintf(w, "data: %s\n\n", jsonData)
			flusher.Flush()
		}
	}
}
