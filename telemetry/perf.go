package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/mpm2d/mpm"
)

// PhaseTelemetry is the host-side phase recorded after the solver phases.
const PhaseTelemetry = "telemetry"

// reportedPhases is the solver phase order followed by host phases.
var reportedPhases = append(append([]string(nil), mpm.Phases...), PhaseTelemetry)

// tickSample is one recorded tick. Phase durations are indexed like
// PerfCollector.names.
type tickSample struct {
	total  time.Duration
	phases []time.Duration
}

// PerfCollector keeps per-phase step timings for the last windowSize ticks.
// Phase slots are fixed up front for the solver phases, so recording a tick
// does not allocate once the ring is warm. Unknown phase names get a slot on
// first use.
type PerfCollector struct {
	names   []string
	slots   map[string]int
	started []bool // phase seen at least once

	ring  []tickSample
	next  int
	count int

	cur        []time.Duration
	tickStart  time.Time
	phaseStart time.Time
	phase      int // slot of the running phase, -1 between phases

	lastFrame time.Time
	frameDur  time.Duration
}

var _ mpm.PhaseTimer = (*PerfCollector)(nil)

// NewPerfCollector keeps the last windowSize ticks; values below 1 use 60.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		slots: make(map[string]int, len(reportedPhases)),
		ring:  make([]tickSample, windowSize),
		phase: -1,
	}
	for _, name := range reportedPhases {
		p.slot(name)
	}
	return p
}

func (p *PerfCollector) slot(name string) int {
	if i, ok := p.slots[name]; ok {
		return i
	}
	i := len(p.names)
	p.names = append(p.names, name)
	p.slots[name] = i
	p.started = append(p.started, false)
	p.cur = append(p.cur, 0)
	return i
}

func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	clear(p.cur)
	p.phase = -1
}

// StartPhase closes the running phase, if any, and opens the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phase = p.slot(name)
	p.started[p.phase] = true
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.cur[p.phase] += now.Sub(p.phaseStart)
		p.phase = -1
	}
}

// EndTick closes the running phase and stores the tick in the ring,
// overwriting the oldest sample once the window is full.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	s := &p.ring[p.next]
	s.total = now.Sub(p.tickStart)
	s.phases = append(s.phases[:0], p.cur...)

	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// RecordFrame measures the time since the previous call. Only the viewer
// calls it.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDur = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the ticks in a PerfCollector window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	// Keyed by phase name. Percentages are of the average tick.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Viewer only.
	FrameDuration time.Duration
	FPS           float64
}

// Stats averages the ticks currently in the window. Phase maps hold every
// phase that has been started at least once.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, len(p.names)),
		PhasePct:      make(map[string]float64, len(p.names)),
		FrameDuration: p.frameDur,
	}
	if p.frameDur > 0 {
		st.FPS = float64(time.Second) / float64(p.frameDur)
	}
	if p.count == 0 {
		return st
	}

	sums := make([]time.Duration, len(p.names))
	var total time.Duration
	st.MinTickDuration = p.ring[0].total
	for _, s := range p.ring[:p.count] {
		total += s.total
		st.MinTickDuration = min(st.MinTickDuration, s.total)
		st.MaxTickDuration = max(st.MaxTickDuration, s.total)
		for i, d := range s.phases {
			sums[i] += d
		}
	}

	n := time.Duration(p.count)
	st.AvgTickDuration = total / n
	if st.AvgTickDuration > 0 {
		st.TicksPerSecond = float64(time.Second) / float64(st.AvgTickDuration)
	}
	for i, name := range p.names {
		if !p.started[i] {
			continue
		}
		avg := sums[i] / n
		st.PhaseAvg[name] = avg
		if st.AvgTickDuration > 0 {
			st.PhasePct[name] = 100 * float64(avg) / float64(st.AvgTickDuration)
		}
	}
	return st
}

// LogStats logs one "perf" line. Phases under 0.1% of the tick are left out.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range reportedPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue reports every phase percentage as <phase>_pct.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range reportedPhases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row: tick timing plus a column per phase.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	RebuildPct     float64 `csv:"rebuild_pct"`
	ZeroGridPct    float64 `csv:"zero_grid_pct"`
	P2GPct         float64 `csv:"p2g_pct"`
	GridUpdatePct  float64 `csv:"grid_update_pct"`
	CompactPct     float64 `csv:"compact_pct"`
	G2PPct         float64 `csv:"g2p_pct"`
	ConstraintsPct float64 `csv:"constraints_pct"`
	HealthPct      float64 `csv:"health_pct"`
	RemovalPct     float64 `csv:"removal_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into the perf.csv row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		FPS:            s.FPS,
		RebuildPct:     s.PhasePct[mpm.PhaseRebuild],
		ZeroGridPct:    s.PhasePct[mpm.PhaseZeroGrid],
		P2GPct:         s.PhasePct[mpm.PhaseP2G],
		GridUpdatePct:  s.PhasePct[mpm.PhaseGridUpdate],
		CompactPct:     s.PhasePct[mpm.PhaseCompact],
		G2PPct:         s.PhasePct[mpm.PhaseG2P],
		ConstraintsPct: s.PhasePct[mpm.PhaseConstraints],
		HealthPct:      s.PhasePct[mpm.PhaseHealth],
		RemovalPct:     s.PhasePct[mpm.PhaseRemoval],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
