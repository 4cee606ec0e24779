package telemetry

import (
	"math"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/particles"
)

// GridSample is the grid state read at window end.
type GridSample struct {
	ActiveCells   int
	Mass          float64
	PhaseMass     float64
	PhaseMomentum [2]float64
}

// SampleGrid reads the active node count and mass totals. A nil grid gives
// a zero sample.
func SampleGrid(g *grid.Grid) GridSample {
	if g == nil {
		return GridSample{}
	}
	pm, px, py := g.PhaseTotals()
	return GridSample{
		ActiveCells:   g.ActiveCount(),
		Mass:          g.TotalMass(),
		PhaseMass:     pm,
		PhaseMomentum: [2]float64{px, py},
	}
}

func (gs GridSample) fill(ws *WindowStats) {
	ws.ActiveCells = gs.ActiveCells
	if gs.Mass > 0 {
		ws.PhaseFraction = gs.PhaseMass / gs.Mass
	}
	if gs.PhaseMass > 0 {
		ws.PhaseDrift = math.Hypot(gs.PhaseMomentum[0], gs.PhaseMomentum[1]) / gs.PhaseMass
	}
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	removed int
	steps   int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec/float64(dt) + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordStep records one completed step and the remap table it produced.
func (c *Collector) RecordStep(remap []int) {
	c.steps++
	for _, idx := range remap {
		if idx == particles.Removed {
			c.removed++
		}
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the window-end particle array and grid
// sample and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, ps []particles.Particle, gs GridSample) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		Removed:         c.removed,
	}
	SampleParticles(ps).fill(&stats)
	gs.fill(&stats)

	// Reset for next window
	c.windowStartTick = currentTick
	c.removed = 0
	c.steps = 0

	return stats
}

// Reset restarts the window at tick.
func (c *Collector) Reset(tick int32) {
	c.windowStartTick = tick
	c.removed = 0
	c.steps = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// Steps returns the number of steps recorded in the current window.
func (c *Collector) Steps() int {
	return c.steps
}
