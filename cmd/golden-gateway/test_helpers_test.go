package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

// instantClock satisfies gatewayClock without sleeping: After fires
// immediately and records the requested delay so tests can assert on it.
type instantClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *instantClock) Now() time.Time { return time.Now() }

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (c *instantClock) afterCalls() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.delays))
	copy(out, c.delays)
	return out
}

// newTestGateway builds an isolated gateway with a fresh registry, a seeded
// random source and an instant clock.
func newTestGateway(t *testing.T, policy string) (*gateway, *instantClock) {
	t.Helper()
	cfg := Config{
		Port:        "3001",
		EnableCORS:  true,
		LogRequests: false,
		MaxBodySize: 1048576,
		HistorySize: 100,
		Policy:      policy,
		RandomSeed:  1,
	}
	g, err := newGateway(cfg)
	if err != nil {
		t.Fatalf("newGateway failed: %v", err)
	}
	clock := &instantClock{}
	g.clock = clock
	return g, clock
}

func newTestRouter(t *testing.T, policy string) (*gateway, *instantClock, *mux.Router) {
	t.Helper()
	g, clock := newTestGateway(t, policy)
	return g, clock, g.setupRoutes()
}

// postJSON performs a request against the router and decodes the JSON reply.
func postJSON(t *testing.T, router *mux.Router, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp map[string]interface{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, resp
}

func sendSMS(t *testing.T, router *mux.Router, to, text, from, platform string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	headers := map[string]string{}
	if platform != "" {
		headers["X-Platform"] = platform
	}
	return postJSON(t, router, "/sms/send", map[string]string{"to": to, "text": text, "from": from}, headers)
}

func getStatus(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
