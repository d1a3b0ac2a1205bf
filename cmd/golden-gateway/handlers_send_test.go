package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSendSMSAccepted(t *testing.T) {
	_, clock, router := newTestRouter(t, policyPlatform)

	rr, resp := sendSMS(t, router, "+15551234567", "hello", "acme", "android")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if resp["status"] != "accepted" {
		t.Errorf("expected status accepted, got %v", resp["status"])
	}
	if resp["messageId"] == nil || resp["messageId"] == "" {
		t.Error("missing messageId")
	}
	if resp["to"] != "+15551234567" {
		t.Errorf("expected to echoed back, got %v", resp["to"])
	}
	if resp["estimatedDelivery"] == nil {
		t.Error("missing estimatedDelivery")
	}

	delays := clock.afterCalls()
	if len(delays) != 1 {
		t.Fatalf("expected exactly one simulated delay, got %d", len(delays))
	}
	if delays[0] < 50*time.Millisecond || delays[0] > 250*time.Millisecond {
		t.Errorf("healthy delay %v outside [50ms,250ms]", delays[0])
	}
}

func TestSendValidationFailsBeforeDelay(t *testing.T) {
	_, clock, router := newTestRouter(t, policyPlatform)

	rr, resp := postJSON(t, router, "/sms/send", map[string]string{"text": "hi", "from": "acme"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing to, got %d", rr.Code)
	}
	if resp["error"] != "missing required field: to" {
		t.Errorf("unexpected error message: %v", resp["error"])
	}

	rr, resp = postJSON(t, router, "/sms/send", map[string]string{"to": "+15551234567", "from": "acme"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing text, got %d", rr.Code)
	}
	if resp["error"] != "missing required field: text" {
		t.Errorf("unexpected error message: %v", resp["error"])
	}

	if calls := clock.afterCalls(); len(calls) != 0 {
		t.Errorf("validation errors must return before any delay, saw %d delays", len(calls))
	}
}

func TestSendRateLimitSentinel(t *testing.T) {
	g, clock, router := newTestRouter(t, policyPlatform)
	g.chaos.SetUnderLoad(true) // sentinel behavior is independent of chaos state

	rr, resp := sendSMS(t, router, "+15551234567", "hello", "rate-limit-test", "android")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "30" {
		t.Errorf("expected Retry-After 30, got %q", rr.Header().Get("Retry-After"))
	}
	if retry, ok := resp["retryAfter"].(float64); !ok || retry != 30 {
		t.Errorf("expected retryAfter 30 in body, got %v", resp["retryAfter"])
	}
	if calls := clock.afterCalls(); len(calls) != 0 {
		t.Errorf("rate limit must return before any delay, saw %d delays", len(calls))
	}
}

func TestSendDisfavoredPlatformSilentFailure(t *testing.T) {
	g, _, router := newTestRouter(t, policyPlatform)

	rr, resp := sendSMS(t, router, "+15551234567", "hello", "acme", "ios")
	if rr.Code != http.StatusOK {
		t.Fatalf("silent failure must still return 200, got %d", rr.Code)
	}
	if resp["status"] != "accepted" {
		t.Errorf("silent failure must still report accepted, got %v", resp["status"])
	}
	if depth := g.chaos.QueueDepth(); depth != 1 {
		t.Errorf("expected queueDepth 1 after silent failure, got %d", depth)
	}
	if got := testutil.ToFloat64(g.metrics.messagesSent.WithLabelValues("US", outcomeFailed, "ios")); got != 1 {
		t.Errorf("expected messages_sent{US,failed,ios}=1, got %v", got)
	}

	// A healthy platform leaves the queue untouched.
	sendSMS(t, router, "+15551234567", "hello", "acme", "android")
	if depth := g.chaos.QueueDepth(); depth != 1 {
		t.Errorf("expected queueDepth unchanged at 1, got %d", depth)
	}
	if got := testutil.ToFloat64(g.metrics.messagesSent.WithLabelValues("US", outcomeDelivered, "android")); got != 1 {
		t.Errorf("expected messages_sent{US,delivered,android}=1, got %v", got)
	}
}

func TestSendDestinationPolicySimulatedError(t *testing.T) {
	g, _, router := newTestRouter(t, policyDestination)
	g.profile.LoadedErrorRate = 1 // force the failure branch
	g.chaos.SetUnderLoad(true)

	rr, resp := sendSMS(t, router, "+447700900123", "hello", "acme", "android")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if resp["error"] == nil {
		t.Error("expected error body for simulated upstream failure")
	}
	if got := testutil.ToFloat64(g.metrics.messagesSent.WithLabelValues("UK", outcomeError, "android")); got != 1 {
		t.Errorf("expected messages_sent{UK,error,android}=1, got %v", got)
	}
}

func TestSendWhatsAppTemplate(t *testing.T) {
	g, _, router := newTestRouter(t, policyPlatform)

	rr, resp := postJSON(t, router, "/whatsapp/send-template",
		map[string]string{"to": "+4915112345678", "body": "template-1", "from": "acme"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if resp["status"] != "accepted" {
		t.Errorf("expected accepted, got %v", resp["status"])
	}
	if got := testutil.ToFloat64(g.metrics.messagesSent.WithLabelValues("DE", outcomeDelivered, "whatsapp")); got != 1 {
		t.Errorf("expected messages_sent{DE,delivered,whatsapp}=1, got %v", got)
	}
}

func TestChaosToggleRestoresLatency(t *testing.T) {
	_, clock, router := newTestRouter(t, policyPlatform)

	// Enable, observe a degraded delay, disable, observe a healthy one.
	postJSON(t, router, "/admin/simulate-load", map[string]bool{"enabled": true}, nil)
	sendSMS(t, router, "+15551234567", "hello", "acme", "android")
	postJSON(t, router, "/admin/simulate-load", map[string]bool{"enabled": false}, nil)
	sendSMS(t, router, "+15551234567", "hello", "acme", "android")

	delays := clock.afterCalls()
	if len(delays) != 2 {
		t.Fatalf("expected two simulated delays, got %d", len(delays))
	}
	if delays[0] < 500*time.Millisecond || delays[0] > 2500*time.Millisecond {
		t.Errorf("loaded delay %v outside [500ms,2500ms]", delays[0])
	}
	if delays[1] < 50*time.Millisecond || delays[1] > 250*time.Millisecond {
		t.Errorf("post-toggle delay %v outside healthy [50ms,250ms]", delays[1])
	}
}
