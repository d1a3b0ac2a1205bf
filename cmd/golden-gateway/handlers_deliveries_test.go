package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDeliveriesRecorded(t *testing.T) {
	_, _, router := newTestRouter(t, policyPlatform)

	sendSMS(t, router, "+15551234567", "first", "acme", "android")
	sendSMS(t, router, "+447700900123", "second", "acme", "ios")

	rr := getStatus(t, router, "/deliveries")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var records []DeliveryRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatal("failed to parse deliveries:", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Status != outcomeDelivered || records[0].Country != "US" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Status != outcomeFailed || records[1].Platform != "ios" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestDeliveryHistoryRingBuffer(t *testing.T) {
	h := newDeliveryHistory(3)
	for i := 0; i < 5; i++ {
		h.add(DeliveryRecord{ID: fmt.Sprintf("msg-%d", i)})
	}
	records := h.list()
	if len(records) != 3 {
		t.Fatalf("expected 3 retained records, got %d", len(records))
	}
	if records[0].ID != "msg-2" || records[2].ID != "msg-4" {
		t.Errorf("expected oldest records evicted, got %v", records)
	}
	if _, ok := h.find("msg-0"); ok {
		t.Error("evicted record should not be findable")
	}
	if _, ok := h.find("msg-4"); !ok {
		t.Error("latest record should be findable")
	}
}

func TestReplayResubmitsThroughPipeline(t *testing.T) {
	g, clock, router := newTestRouter(t, policyPlatform)

	_, resp := sendSMS(t, router, "+15551234567", "hello", "acme", "ios")
	id, _ := resp["messageId"].(string)
	if id == "" {
		t.Fatal("missing messageId from original send")
	}

	rr, replayResp := postJSON(t, router, "/deliveries/replay", map[string]string{"id": id}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from replay, got %d: %s", rr.Code, rr.Body.String())
	}
	if replayResp["status"] != "accepted" {
		t.Errorf("expected accepted, got %v", replayResp["status"])
	}
	// The replay went through the full pipeline: second delay, second silent
	// failure, second queue-depth bump.
	if calls := clock.afterCalls(); len(calls) != 2 {
		t.Errorf("expected 2 simulated delays, got %d", len(calls))
	}
	if depth := g.chaos.QueueDepth(); depth != 2 {
		t.Errorf("expected queueDepth 2 after replayed silent failure, got %d", depth)
	}
	if got := testutil.ToFloat64(g.metrics.messagesSent.WithLabelValues("US", outcomeFailed, "ios")); got != 2 {
		t.Errorf("expected messages_sent{US,failed,ios}=2, got %v", got)
	}
}

func TestReplayUnknownID(t *testing.T) {
	_, _, router := newTestRouter(t, policyPlatform)

	rr, _ := postJSON(t, router, "/deliveries/replay", map[string]string{"id": "msg-missing"}, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
