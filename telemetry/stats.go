package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/mpm2d/particles"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Particles   int `csv:"particles"`
	Removed     int `csv:"removed"` // dropped during the window
	ActiveCells int `csv:"active_cells"`

	// Conserved and derived quantities (sampled at window end)
	TotalMass     float64 `csv:"total_mass"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MeanSpeed     float64 `csv:"mean_speed"`
	MaxSpeed      float64 `csv:"max_speed"`

	// Gathered density distribution
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	// Largest finite condition number among live particles
	MaxCondNum float64 `csv:"max_cond_num"`

	// Phase field on the grid after the last step
	PhaseFraction float64 `csv:"phase_fraction"` // phase mass over grid mass
	PhaseDrift    float64 `csv:"phase_drift"`    // speed of the phase-weighted momentum
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, population std and percentiles.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	std = math.Sqrt(stat.PopVariance(values, nil))

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// Sample holds the per-particle quantities of one window-end snapshot.
type Sample struct {
	Mass      []float64
	SpeedSq   []float64
	Density   []float64
	CondNum   []float64 // finite values only
	Particles int
}

// SampleParticles extracts the window-end quantities from ps.
// Failed particles are skipped.
func SampleParticles(ps []particles.Particle) Sample {
	s := Sample{
		Mass:    make([]float64, 0, len(ps)),
		SpeedSq: make([]float64, 0, len(ps)),
		Density: make([]float64, 0, len(ps)),
		CondNum: make([]float64, 0, len(ps)),
	}
	for i := range ps {
		p := &ps[i]
		if p.Failed {
			continue
		}
		s.Particles++
		s.Mass = append(s.Mass, float64(p.Mass))
		s.SpeedSq = append(s.SpeedSq, float64(p.Velocity.LengthSq()))
		s.Density = append(s.Density, float64(p.Density))
		if c := float64(p.CondNum); !math.IsInf(c, 0) && !math.IsNaN(c) {
			s.CondNum = append(s.CondNum, c)
		}
	}
	return s
}

// fill sets the sample-derived fields of ws.
func (s Sample) fill(ws *WindowStats) {
	ws.Particles = s.Particles
	if s.Particles == 0 {
		return
	}
	ws.TotalMass = floats.Sum(s.Mass)
	ws.KineticEnergy = 0.5 * floats.Dot(s.Mass, s.SpeedSq)

	speeds := make([]float64, len(s.SpeedSq))
	for i, v := range s.SpeedSq {
		speeds[i] = math.Sqrt(v)
	}
	ws.MeanSpeed = stat.Mean(speeds, nil)
	ws.MaxSpeed = floats.Max(speeds)

	ws.DensityMean, ws.DensityStd, ws.DensityP10, ws.DensityP50, ws.DensityP90 = ComputeDistribution(s.Density)

	if len(s.CondNum) > 0 {
		ws.MaxCondNum = floats.Max(s.CondNum)
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("removed", s.Removed),
		slog.Int("active_cells", s.ActiveCells),
		slog.Float64("total_mass", s.TotalMass),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p10", s.DensityP10),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("max_cond_num", s.MaxCondNum),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"removed", s.Removed,
		"active_cells", s.ActiveCells,
		"total_mass", s.TotalMass,
		"kinetic_energy", s.KineticEnergy,
		"mean_speed", s.MeanSpeed,
		"max_speed", s.MaxSpeed,
		"density_mean", s.DensityMean,
		"density_std", s.DensityStd,
		"density_p50", s.DensityP50,
		"max_cond_num", s.MaxCondNum,
	)
}
