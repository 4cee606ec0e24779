package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/mpm"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/vmath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot of another format.
var ErrSnapshotVersion = errors.New("telemetry: unsupported snapshot version")

// Snapshot holds the particle state of a simulation for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Tick    int32 `json:"tick"`

	CellWidth float32  `json:"cell_width"`
	MinCell   [2]int32 `json:"min_cell"`
	MaxCell   [2]int32 `json:"max_cell"`
	Boundary  string   `json:"boundary"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle's persistent state. Derived fields
// (cell, gathered density, condition number) are recomputed on the next step.
type ParticleState struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	VelX float32 `json:"vel_x"`
	VelY float32 `json:"vel_y"`

	Mass    float32 `json:"mass"`
	Volume0 float32 `json:"volume0"`
	Radius0 float32 `json:"radius0"`

	Affine      [4]float32 `json:"affine"`
	Deformation [4]float32 `json:"deformation"`

	Kind   material.Kind `json:"kind"`
	Phase  float32       `json:"phase"`
	Static bool          `json:"static,omitempty"`

	LiquidDensity float32    `json:"liquid_density"`
	WarmStart     [4]float32 `json:"warm_start"`
}

func matToArray(m vmath.Mat2) [4]float32 {
	return [4]float32{m.XX, m.XY, m.YX, m.YY}
}

func arrayToMat(a [4]float32) vmath.Mat2 {
	return vmath.Mat2{XX: a[0], XY: a[1], YX: a[2], YY: a[3]}
}

// CaptureState converts a particle into its snapshot form.
func CaptureState(p *particles.Particle) ParticleState {
	return ParticleState{
		X:             p.Position.X,
		Y:             p.Position.Y,
		VelX:          p.Velocity.X,
		VelY:          p.Velocity.Y,
		Mass:          p.Mass,
		Volume0:       p.Volume0,
		Radius0:       p.Radius0,
		Affine:        matToArray(p.Affine),
		Deformation:   matToArray(p.Deformation),
		Kind:          p.Kind,
		Phase:         p.Phase,
		Static:        p.Static,
		LiquidDensity: p.LiquidDensity,
		WarmStart:     matToArray(p.WarmStart),
	}
}

// Particle rebuilds a particle from its snapshot form.
func (ps ParticleState) Particle() particles.Particle {
	p := particles.New(vmath.V2(ps.X, ps.Y), ps.Kind).
		WithVelocity(vmath.V2(ps.VelX, ps.VelY)).
		WithMass(ps.Mass)
	p.Volume0 = ps.Volume0
	p.Radius0 = ps.Radius0
	p.Affine = arrayToMat(ps.Affine)
	p.VelGradient = p.Affine
	p.Deformation = arrayToMat(ps.Deformation)
	p.Phase = ps.Phase
	p.Static = ps.Static
	p.LiquidDensity = ps.LiquidDensity
	p.WarmStart = arrayToMat(ps.WarmStart)
	return p
}

// NewSnapshot captures the live particles of s.
func NewSnapshot(s *mpm.State, tick int32, seed int64) *Snapshot {
	cfg := s.Config()
	snap := &Snapshot{
		Version:   SnapshotVersion,
		RNGSeed:   seed,
		Tick:      tick,
		CellWidth: cfg.CellWidth,
		MinCell:   [2]int32{cfg.Bounds.Min.X, cfg.Bounds.Min.Y},
		MaxCell:   [2]int32{cfg.Bounds.Max.X, cfg.Bounds.Max.Y},
		Boundary:  s.BoundaryMode().String(),
	}
	ps := s.Particles()
	snap.Particles = make([]ParticleState, 0, len(ps))
	for i := range ps {
		if ps[i].Failed {
			continue
		}
		snap.Particles = append(snap.Particles, CaptureState(&ps[i]))
	}
	return snap
}

// Restore replaces the particles of s with the snapshot's particles.
func (snap *Snapshot) Restore(s *mpm.State) {
	s.Clear()
	ps := make([]particles.Particle, len(snap.Particles))
	for i, st := range snap.Particles {
		ps[i] = st.Particle()
	}
	s.AddParticles(ps)
	s.RebuildIndex()
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}

	return &snapshot, nil
}
