package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// DeliveryRecord is one entry in the recent-deliveries ring buffer.
type DeliveryRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Route     string    `json:"route"`
	To        string    `json:"to"`
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Platform  string    `json:"platform"`
	Country   string    `json:"country"`
	Status    string    `json:"status"`
	LatencyMs int64     `json:"latencyMs"`
}

// deliveryHistory keeps the last N delivery records in memory.
type deliveryHistory struct {
	mu      sync.Mutex
	records []DeliveryRecord
	size    int
}

func newDeliveryHistory(size int) *deliveryHistory {
	if size <= 0 {
		size = 100
	}
	return &deliveryHistory{records: make([]DeliveryRecord, 0, size), size: size}
}

func (h *deliveryHistory) add(record DeliveryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	if len(h.records) > h.size {
		h.records = h.records[1:]
	}
}

func (h *deliveryHistory) list() []DeliveryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]DeliveryRecord, len(h.records))
	copy(out, h.records)
	return out
}

func (h *deliveryHistory) find(id string) (DeliveryRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range h.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return DeliveryRecord{}, false
}

// handleDeliveries returns the recent delivery records.
func (g *gateway) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.history.list())
}

// handleReplay re-submits a recorded message through the send pipeline, so a
// replayed delivery is simulated, measured and recorded like a fresh one.
func (g *gateway) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	record, ok := g.history.find(req.ID)
	if !ok {
		g.writeError(w, r, http.StatusNotFound, "delivery id not found")
		return
	}

	resend := sendRequest{To: record.To, From: record.From}
	if record.Route == "/whatsapp/send-template" {
		resend.Body = record.Message
	} else {
		resend.Text = record.Message
	}
	g.processSend(w, r, resend, record.Platform, record.Route)
}
