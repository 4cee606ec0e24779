package tune

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/mpm2d/config"
	"github.com/pthm-cable/mpm2d/mpm"
	"github.com/pthm-cable/mpm2d/scene"
	"github.com/pthm-cable/mpm2d/telemetry"
)

// penalty is the fitness of a run that cannot be scored.
const penalty = 1e6

// Evaluator runs headless simulations and computes fitness.
type Evaluator struct {
	params   *ParamVector
	base     *config.Config
	maxTicks int
	seeds    []int64

	mu        sync.Mutex
	lastStats telemetry.WindowStats
}

// NewEvaluator creates a new evaluator. Every evaluation runs one simulation
// per seed for maxTicks steps of the base configuration's scene.
func NewEvaluator(params *ParamVector, base *config.Config, maxTicks int, seeds []int64) *Evaluator {
	return &Evaluator{
		params:   params,
		base:     base,
		maxTicks: max(1, maxTicks),
		seeds:    seeds,
	}
}

// LastStats returns the window stats of the most recent run.
func (e *Evaluator) LastStats() telemetry.WindowStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStats
}

// Evaluate computes fitness for raw parameter values (lower = better):
// the mean over seeds of Score for each run.
func (e *Evaluator) Evaluate(raw []float64) float64 {
	cfg := e.base.Clone()
	if err := e.params.ApplyToConfig(cfg, raw); err != nil {
		return penalty
	}

	var sum float64
	for _, seed := range e.seeds {
		stats, initial := e.run(cfg, seed)
		sum += Score(stats, initial, cfg.Derived.Material.RestDensity)
	}
	if len(e.seeds) == 0 {
		return penalty
	}
	return sum / float64(len(e.seeds))
}

// run simulates one seed and returns the stats over the whole run and the
// initial particle count.
func (e *Evaluator) run(cfg *config.Config, seed int64) (telemetry.WindowStats, int) {
	s := mpm.New(cfg.Simulation())
	defer s.Close()

	s.AddParticles(scene.Block(cfg, rand.New(rand.NewSource(seed))))
	initial := s.ParticleCount()

	dt := cfg.Derived.DT32
	collector := telemetry.NewCollector(float64(e.maxTicks)*float64(dt), dt)
	for tick := 0; tick < e.maxTicks; tick++ {
		s.Advance(dt)
		collector.RecordStep(s.Remap())
		s.ClearRemap()
	}
	stats := collector.Flush(int32(e.maxTicks), s.Particles(), telemetry.SampleGrid(s.Grid()))

	e.mu.Lock()
	e.lastStats = stats
	e.mu.Unlock()
	return stats, initial
}

// Score rates a run: relative deviation of the mean gathered density from
// rest, plus the relative spread, plus a heavy charge per removed particle.
func Score(stats telemetry.WindowStats, initial int, restDensity float32) float64 {
	if initial == 0 || stats.Particles == 0 || restDensity <= 0 {
		return penalty
	}
	rest := float64(restDensity)
	f := math.Abs(stats.DensityMean/rest-1) +
		stats.DensityStd/rest +
		10*float64(stats.Removed)/float64(initial)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return penalty
	}
	return f
}
