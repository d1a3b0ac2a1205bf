package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// sendRequest is the body of both send routes. SMS carries the message in
// "text", WhatsApp templates in "body".
type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text,omitempty"`
	Body string `json:"body,omitempty"`
	From string `json:"from"`
}

func (s sendRequest) message() string {
	if s.Text != "" {
		return s.Text
	}
	return s.Body
}

// handleSendSMS simulates an SMS send. Platform defaults to android unless the
// X-Platform header says otherwise.
func (g *gateway) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeSendRequest(w, r, "text")
	if !ok {
		return
	}
	platform := r.Header.Get("X-Platform")
	if platform == "" {
		platform = "android"
	}
	g.processSend(w, r, req, platform, "/sms/send")
}

// handleSendWhatsApp simulates a WhatsApp template send.
func (g *gateway) handleSendWhatsApp(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeSendRequest(w, r, "body")
	if !ok {
		return
	}
	platform := r.Header.Get("X-Platform")
	if platform == "" {
		platform = "whatsapp"
	}
	g.processSend(w, r, req, platform, "/whatsapp/send-template")
}

// decodeSendRequest parses and validates the send body. Validation failures
// are client errors and must return before any simulated delay.
func (g *gateway) decodeSendRequest(w http.ResponseWriter, r *http.Request, messageField string) (sendRequest, bool) {
	var req sendRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, g.cfg.MaxBodySize))
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "error reading request body")
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.To == "" {
		g.writeError(w, r, http.StatusBadRequest, "missing required field: to")
		return req, false
	}
	if req.message() == "" {
		g.writeError(w, r, http.StatusBadRequest, "missing required field: "+messageField)
		return req, false
	}
	return req, true
}

// processSend runs the shared send pipeline: sentinel rate limit, pre-delay
// outcome decision, cancellable simulated delay, metric/queue side effects,
// and the uniformly optimistic "accepted" response. The replay endpoint feeds
// recorded messages back through this same path.
func (g *gateway) processSend(w http.ResponseWriter, r *http.Request, req sendRequest, platform, route string) {
	// Sentinel sender always rate limits, regardless of chaos state, and
	// before any delay.
	if req.From == g.profile.RateLimitSender {
		retryAfter := g.profile.RetryAfterSeconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		log.Printf("rate limit sentinel hit: from=%s to=%s", req.From, req.To)
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":      "rate limit exceeded",
			"retryAfter": retryAfter,
		})
		return
	}

	state := g.chaos.State()
	// The outcome, including any simulated upstream error, is decided before
	// the artificial delay.
	outcome := g.policy.Outcome(req, platform, state)
	latency := g.policy.Latency(state)

	select {
	case <-g.clock.After(latency):
	case <-r.Context().Done():
		// Client disconnected mid-delay; do not record a phantom outcome.
		log.Printf("send aborted by client: to=%s platform=%s", req.To, platform)
		return
	}

	g.metrics.deliveryLatency.WithLabelValues(platform).Observe(latency.Seconds())

	if outcome.StatusCode >= 500 {
		g.metrics.messagesSent.WithLabelValues(outcome.Country, outcomeError, platform).Inc()
		g.recordDelivery(req, route, outcome, latency, outcomeError)
		g.writeError(w, r, http.StatusInternalServerError, "upstream delivery provider unavailable")
		return
	}

	status := outcomeDelivered
	if !outcome.Delivered {
		// Silent failure: the message joins the retry queue and the caller
		// still sees "accepted". Only metrics and logs expose the truth.
		status = outcomeFailed
		g.chaos.AdjustQueueDepth(1)
		log.Printf("silent delivery failure: to=%s platform=%s country=%s", req.To, platform, outcome.Country)
	}
	g.metrics.messagesSent.WithLabelValues(outcome.Country, status, platform).Inc()
	record := g.recordDelivery(req, route, outcome, latency, status)
	g.events.publish(record)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messageId":         record.ID,
		"status":            "accepted",
		"to":                req.To,
		"estimatedDelivery": g.clock.Now().Add(5 * time.Second).UTC().Format(time.RFC3339),
	})
}

// recordDelivery appends one record to the ring buffer and returns it.
func (g *gateway) recordDelivery(req sendRequest, route string, outcome DeliveryOutcome, latency time.Duration, status string) DeliveryRecord {
	record := DeliveryRecord{
		ID:        "msg-" + generateID(),
		Timestamp: g.clock.Now(),
		Route:     route,
		To:        req.To,
		From:      req.From,
		Message:   req.message(),
		Platform:  outcome.Platform,
		Country:   outcome.Country,
		Status:    status,
		LatencyMs: latency.Milliseconds(),
	}
	g.history.add(record)
	return record
}

// writeError logs and returns a JSON error body.
func (g *gateway) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	log.Printf("%s %s %s - %d %s", r.RemoteAddr, r.Method, r.URL.Path, status, msg)
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
