package main

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	policyPlatform    = "platform"
	policyDestination = "destination"
)

// Delivery outcome label values for gateway_messages_sent_total.
const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed" // silently undelivered, still "accepted"
	outcomeError     = "error"  // surfaced as a simulated 500
)

// DeliveryOutcome is the result of simulating one send. It is transient: the
// only durable trace it leaves is the metrics and log lines it produces.
type DeliveryOutcome struct {
	Delivered  bool
	Country    string
	Platform   string
	StatusCode int
}

// SimulationPolicy decides delivery latency and outcome for a send request.
// Two interchangeable strategies exist: platform-based deterministic silent
// failure and destination-based probabilistic failure.
type SimulationPolicy interface {
	Name() string
	Latency(state ChaosState) time.Duration
	Outcome(req sendRequest, platform string, state ChaosState) DeliveryOutcome
}

// lockedRand guards a seedable *rand.Rand for concurrent handler use.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// drawLatency picks a uniform latency from the profile's healthy or degraded
// range depending on the chaos flag.
func drawLatency(profile *SimulationProfile, rng *lockedRand, underLoad bool) time.Duration {
	min, max := profile.HealthyLatencyMinMs, profile.HealthyLatencyMaxMs
	if underLoad {
		min, max = profile.LoadedLatencyMinMs, profile.LoadedLatencyMaxMs
	}
	ms := min
	if max > min {
		ms += rng.Intn(max - min + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

// countryForDestination buckets a phone number by dialing prefix.
func countryForDestination(to string) string {
	switch {
	case strings.HasPrefix(to, "+1"):
		return "US"
	case strings.HasPrefix(to, "+44"):
		return "UK"
	case strings.HasPrefix(to, "+49"):
		return "DE"
	default:
		return "OTHER"
	}
}

// platformPolicy fails delivery deterministically for one disfavored platform,
// modeling a silent platform-side failure class. Every other platform always
// delivers.
type platformPolicy struct {
	profile *SimulationProfile
	rng     *lockedRand
}

func (p *platformPolicy) Name() string { return policyPlatform }

func (p *platformPolicy) Latency(state ChaosState) time.Duration {
	return drawLatency(p.profile, p.rng, state.UnderLoad)
}

func (p *platformPolicy) Outcome(req sendRequest, platform string, _ ChaosState) DeliveryOutcome {
	out := DeliveryOutcome{
		Delivered:  true,
		Country:    countryForDestination(req.To),
		Platform:   platform,
		StatusCode: 200,
	}
	if strings.EqualFold(platform, p.profile.DisfavoredPlatform) {
		out.Delivered = false
	}
	return out
}

// destinationPolicy classifies the destination into a country bucket and
// injects random request-level errors: LoadedErrorRate under chaos load,
// HealthyErrorRate otherwise. Errors surface as HTTP 500.
type destinationPolicy struct {
	profile *SimulationProfile
	rng     *lockedRand
}

func (p *destinationPolicy) Name() string { return policyDestination }

func (p *destinationPolicy) Latency(state ChaosState) time.Duration {
	return drawLatency(p.profile, p.rng, state.UnderLoad)
}

func (p *destinationPolicy) Outcome(req sendRequest, platform string, state ChaosState) DeliveryOutcome {
	out := DeliveryOutcome{
		Delivered:  true,
		Country:    countryForDestination(req.To),
		Platform:   platform,
		StatusCode: 200,
	}
	errorRate := p.profile.HealthyErrorRate
	if state.UnderLoad {
		errorRate = p.profile.LoadedErrorRate
	}
	if p.rng.Float64() < errorRate {
		out.Delivered = false
		out.StatusCode = 500
	}
	return out
}

// newSimulationPolicy builds the configured strategy over a shared profile and
// random source.
func newSimulationPolicy(name string, profile *SimulationProfile, rng *lockedRand) (SimulationPolicy, error) {
	switch name {
	case policyPlatform:
		return &platformPolicy{profile: profile, rng: rng}, nil
	case policyDestination:
		return &destinationPolicy{profile: profile, rng: rng}, nil
	default:
		return nil, fmt.Errorf("unknown simulation policy %q", name)
	}
}
