// Package scene builds initial particle layouts.
package scene

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/mpm2d/config"
	"github.com/pthm-cable/mpm2d/material"
	"github.com/pthm-cable/mpm2d/particles"
	"github.com/pthm-cable/mpm2d/vmath"
)

// Spacing returns the configured particle spacing, defaulting to half a cell.
func Spacing(cfg *config.Config) float32 {
	if cfg.Scene.Spacing > 0 {
		return float32(cfg.Scene.Spacing)
	}
	return cfg.Derived.CellWidth32 / 2
}

// Fluid creates a particle whose mass fills a spacing-sized square at the
// given rest density.
func Fluid(pos vmath.Vec2, spacing, restDensity float32) particles.Particle {
	vol := spacing * spacing
	p := particles.New(pos, material.Fluid).WithMass(vol * restDensity)
	p.Volume0 = vol
	p.Radius0 = spacing / 2
	return p
}

// Block lays particles on a lattice covering the configured scene rectangle,
// each offset by up to Jitter*spacing drawn from rng.
func Block(cfg *config.Config, rng *rand.Rand) []particles.Particle {
	sc := cfg.Scene
	spacing := Spacing(cfg)
	rest := cfg.Derived.Material.RestDensity

	origin := vmath.V2(float32(sc.Origin[0]), float32(sc.Origin[1]))
	nx := int(float32(sc.Size[0]) / spacing)
	ny := int(float32(sc.Size[1]) / spacing)
	jitter := float32(sc.Jitter) * spacing

	ps := make([]particles.Particle, 0, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			pos := origin.Add(vmath.V2((float32(i)+0.5)*spacing, (float32(j)+0.5)*spacing))
			if jitter > 0 {
				pos = pos.Add(vmath.V2(
					(rng.Float32()*2-1)*jitter,
					(rng.Float32()*2-1)*jitter,
				))
			}
			ps = append(ps, Fluid(pos, spacing, rest))
		}
	}
	return ps
}

// Obstacle is a Disc of static particles.
func Obstacle(center vmath.Vec2, radius, spacing, restDensity float32) []particles.Particle {
	ps := Disc(center, radius, spacing, restDensity)
	for i := range ps {
		ps[i] = ps[i].WithStatic()
	}
	return ps
}

// Disc fills a disc of the given radius around center on the scene lattice.
func Disc(center vmath.Vec2, radius, spacing, restDensity float32) []particles.Particle {
	n := int(math.Ceil(float64(radius / spacing)))

	var ps []particles.Particle
	for i := -n; i <= n; i++ {
		for j := -n; j <= n; j++ {
			off := vmath.V2(float32(i)*spacing, float32(j)*spacing)
			if off.LengthSq() > radius*radius {
				continue
			}
			ps = append(ps, Fluid(center.Add(off), spacing, restDensity))
		}
	}
	return ps
}
