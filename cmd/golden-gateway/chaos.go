package main

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// ChaosState is a point-in-time snapshot of the shared chaos flags, handed to
// the simulation policies so they never touch the live controller.
type ChaosState struct {
	UnderLoad  bool
	QueueDepth int64
}

// ChaosController holds the process-wide chaos toggles. It is the only shared
// mutable state besides the metric series; both fields are atomics so handlers
// never take a lock on the hot path. The queue depth and load flag are
// mirrored into gauges on every mutation.
type ChaosController struct {
	underLoad  atomic.Bool
	queueDepth atomic.Int64

	queueGauge prometheus.Gauge
	loadGauge  prometheus.Gauge
}

func newChaosController(m *gatewayMetrics) *ChaosController {
	c := &ChaosController{
		queueGauge: m.queueDepth,
		loadGauge:  m.loadSimulation,
	}
	c.queueGauge.Set(0)
	c.loadGauge.Set(0)
	return c
}

// SetUnderLoad flips the load-simulation flag. Idempotent.
func (c *ChaosController) SetUnderLoad(enabled bool) {
	c.underLoad.Store(enabled)
	if enabled {
		c.loadGauge.Set(1)
	} else {
		c.loadGauge.Set(0)
	}
}

// UnderLoad reports whether load simulation is active.
func (c *ChaosController) UnderLoad() bool {
	return c.underLoad.Load()
}

// AdjustQueueDepth adds delta to the simulated retry queue depth, clamping the
// result at zero, and returns the new depth.
func (c *ChaosController) AdjustQueueDepth(delta int64) int64 {
	for {
		cur := c.queueDepth.Load()
		next := cur + delta
		if next < 0 {
			next = 0
		}
		if c.queueDepth.CompareAndSwap(cur, next) {
			c.queueGauge.Set(float64(next))
			return next
		}
	}
}

// QueueDepth returns the current simulated queue depth.
func (c *ChaosController) QueueDepth() int64 {
	return c.queueDepth.Load()
}

// State returns a read-only snapshot for the simulator.
func (c *ChaosController) State() ChaosState {
	return ChaosState{
		UnderLoad:  c.underLoad.Load(),
		QueueDepth: c.queueDepth.Load(),
	}
}
