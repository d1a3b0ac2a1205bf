package main

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"golang.org/x/time/rate"
)

// gatewayClock is the slice of clockz.Clock the gateway needs. Tests inject a
// fake so the simulated delivery delay never sleeps for real.
type gatewayClock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// gateway wires the chaos controller, simulation policy, metrics and delivery
// history together. One instance per process; handlers hang off it so tests
// can build isolated gateways instead of resetting globals.
type gateway struct {
	cfg     Config
	profile SimulationProfile

	metrics *gatewayMetrics
	chaos   *ChaosController
	policy  SimulationPolicy
	rng     *lockedRand
	clock   gatewayClock
	limiter *rate.Limiter
	history *deliveryHistory
	events  *eventHub

	startTime    time.Time
	requestCount atomic.Uint64
	inflight     atomic.Int64
}

// newGateway performs all initialization explicitly: env config has already
// been loaded by the caller, the YAML simulation profile is read here.
func newGateway(cfg Config) (*gateway, error) {
	profile, err := loadSimulationProfile(cfg.SimulationFile)
	if err != nil {
		return nil, err
	}
	// GATEWAY_POLICY wins over the profile file.
	if cfg.Policy != "" {
		profile.Policy = cfg.Policy
	}
	if hostname, _ := os.Hostname(); hostname != "" {
		cfg.Hostname = hostname
	}

	g := &gateway{
		cfg:       cfg,
		profile:   profile,
		metrics:   newGatewayMetrics(),
		rng:       newLockedRand(cfg.RandomSeed),
		clock:     clockz.RealClock,
		history:   newDeliveryHistory(cfg.HistorySize),
		events:    newEventHub(),
		startTime: time.Now(),
	}

	g.chaos = newChaosController(g.metrics)
	g.policy, err = newSimulationPolicy(profile.Policy, &g.profile, g.rng)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	g.metrics.registerSaturationFuncs(
		func() float64 { return float64(g.inflight.Load()) },
		g.syntheticLoadAverage,
	)

	return g, nil
}

// syntheticLoadAverage fabricates a load-average style signal from live
// gateway state. Sampled at scrape time via a GaugeFunc.
func (g *gateway) syntheticLoadAverage() float64 {
	load := 0.25*float64(g.inflight.Load()) + 0.1*float64(g.chaos.QueueDepth())
	if g.chaos.UnderLoad() {
		load += 2.5
	} else {
		load += 0.2
	}
	return load
}
