package telemetry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/mpm"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/vmath"
)

func TestSnapshotSaveLoad(t *testing.T) {
	cfg := mpm.DefaultConfig()
	cfg.Bounds = grid.NewBounds(32)
	s := mpm.New(cfg)
	defer s.Close()

	p := particles.New(vmath.V2(10.25, 12.5), material.Fluid).
		WithVelocity(vmath.V2(1, -2)).
		WithMass(0.5)
	p.Affine = vmath.Mat2{XX: 0.1, XY: 0.2, YX: 0.3, YY: 0.4}
	p.WarmStart = vmath.Mat2{XX: 0.01, YY: 0.02}
	p.Static = true
	s.AddParticle(p)
	dead := particles.New(vmath.V2(5, 5), material.Fluid)
	dead.Failed = true
	s.AddParticle(dead)

	snap := NewSnapshot(s, 600, 42)
	require.Len(t, snap.Particles, 1)
	assert.Equal(t, "slip", snap.Boundary)
	assert.Equal(t, [2]int32{32, 32}, snap.MaxCell)

	path, err := SaveSnapshot(snap, filepath.Join(t.TempDir(), "snaps"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot_600.json", filepath.Base(path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	other := mpm.New(cfg)
	defer other.Close()
	other.AddParticle(particles.New(vmath.V2(20, 20), material.Fluid))
	loaded.Restore(other)

	require.Equal(t, 1, other.ParticleCount())
	got := other.Particles()[0]
	assert.Equal(t, p.Position, got.Position)
	assert.Equal(t, p.Velocity, got.Velocity)
	assert.Equal(t, p.Affine, got.Affine)
	assert.Equal(t, p.WarmStart, got.WarmStart)
	assert.True(t, got.Static)
	assert.True(t, other.Set().Valid())
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	data, err := json.Marshal(Snapshot{Version: SnapshotVersion + 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = LoadSnapshot(path)
	assert.True(t, errors.Is(err, ErrSnapshotVersion))
}
