package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// acceptedSchema is the contract an accepted send response must satisfy when
// --validate is on.
const acceptedSchema = `{
  "type": "object",
  "required": ["messageId", "status", "to"],
  "properties": {
    "messageId": {"type": "string", "minLength": 1},
    "status": {"const": "accepted"},
    "to": {"type": "string"},
    "estimatedDelivery": {"type": "string"}
  }
}`

// sentinelSender must match the gateway's configured rate-limit sentinel.
const sentinelSender = "rate-limit-test"

// Options configure one load run.
type Options struct {
	Target        string
	Route         string
	Requests      int
	Concurrency   int
	Rate          float64
	Platforms     []string
	Destinations  []string
	SentinelRatio float64
	InvalidRatio  float64
	Validate      bool
	Seed          int64
}

func defaultOptions() Options {
	return Options{
		Target:       "http://localhost:3001",
		Route:        "/sms/send",
		Requests:     200,
		Concurrency:  10,
		Rate:         0,
		Platforms:    []string{"android", "ios", "web"},
		Destinations: []string{"+15551234567", "+447700900123", "+4915112345678", "+8613800000000"},
	}
}

// Result aggregates one run: per-status counts, latency distribution and any
// contract violations seen by --validate.
type Result struct {
	StatusCounts   map[int]int
	Errors         int
	SchemaFailures int
	AcceptedIDs    int
	Latencies      *hdrhistogram.Histogram
	Elapsed        time.Duration
}

type runner struct {
	opts   Options
	client *http.Client
	schema *jsonschema.Schema
	pacer  *rate.Limiter

	mu     sync.Mutex
	rng    *rand.Rand
	result Result
}

func newRunner(opts Options) (*runner, error) {
	if opts.Requests <= 0 || opts.Concurrency <= 0 {
		return nil, fmt.Errorf("requests and concurrency must be positive")
	}
	if opts.Route != "/sms/send" && opts.Route != "/whatsapp/send-template" {
		return nil, fmt.Errorf("unsupported route %q", opts.Route)
	}

	r := &runner{
		opts:   opts,
		client: &http.Client{Timeout: 30 * time.Second},
		result: Result{
			StatusCounts: make(map[int]int),
			// 100µs to 60s, 3 significant figures
			Latencies: hdrhistogram.New(100, 60_000_000, 3),
		},
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r.rng = rand.New(rand.NewSource(seed))

	if opts.Rate > 0 {
		r.pacer = rate.NewLimiter(rate.Limit(opts.Rate), opts.Concurrency)
	}
	if opts.Validate {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("accepted.json", strings.NewReader(acceptedSchema)); err != nil {
			return nil, fmt.Errorf("invalid response schema: %w", err)
		}
		schema, err := compiler.Compile("accepted.json")
		if err != nil {
			return nil, fmt.Errorf("compile response schema: %w", err)
		}
		r.schema = schema
	}
	return r, nil
}

// run fires opts.Requests requests across opts.Concurrency workers and
// aggregates the outcome.
func (r *runner) run(ctx context.Context) (Result, error) {
	start := time.Now()
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if r.pacer != nil {
					if err := r.pacer.Wait(ctx); err != nil {
						return
					}
				}
				r.fire(ctx)
			}
		}()
	}

	for i := 0; i < r.opts.Requests; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return r.result, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	r.result.Elapsed = time.Since(start)
	return r.result, nil
}

// fire sends one request from the configured traffic mix and records it.
func (r *runner) fire(ctx context.Context) {
	payload, platform := r.nextPayload()

	req, err := http.NewRequestWithContext(ctx, "POST", r.opts.Target+r.opts.Route, bytes.NewReader(payload))
	if err != nil {
		r.recordError()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if platform != "" {
		req.Header.Set("X-Platform", platform)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		r.recordError()
		return
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	r.record(resp.StatusCode, elapsed, body)
}

// nextPayload draws from the traffic mix: invalid, sentinel, or a healthy
// request with rotated platform and destination.
func (r *runner) nextPayload() ([]byte, string) {
	r.mu.Lock()
	roll := r.rng.Float64()
	platform := r.opts.Platforms[r.rng.Intn(len(r.opts.Platforms))]
	destination := r.opts.Destinations[r.rng.Intn(len(r.opts.Destinations))]
	r.mu.Unlock()

	messageField := "text"
	if r.opts.Route == "/whatsapp/send-template" {
		messageField = "body"
	}

	msg := map[string]string{
		"to":         destination,
		messageField: "load test message",
		"from":       "golden-load",
	}
	switch {
	case roll < r.opts.InvalidRatio:
		delete(msg, messageField) // provoke a 400
	case roll < r.opts.InvalidRatio+r.opts.SentinelRatio:
		msg["from"] = sentinelSender // provoke a 429
	}

	payload, _ := json.Marshal(msg)
	return payload, platform
}

func (r *runner) record(status int, elapsed time.Duration, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result.StatusCounts[status]++
	r.result.Latencies.RecordValue(elapsed.Microseconds())

	if status != http.StatusOK {
		return
	}
	if gjson.GetBytes(body, "messageId").String() != "" {
		r.result.AcceptedIDs++
	}
	if r.schema != nil {
		var decoded interface{}
		if err := json.Unmarshal(body, &decoded); err != nil || r.schema.Validate(decoded) != nil {
			r.result.SchemaFailures++
		}
	}
}

func (r *runner) recordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Errors++
}
