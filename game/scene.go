package game

import (
	"github.com/pthm-cable/mpm2d/scene"
	"github.com/pthm-cable/mpm2d/vmath"
)

// SpawnScene adds the configured dam-break block.
func (g *Game) SpawnScene() {
	g.state.AddParticles(scene.Block(g.cfg, g.rng))
}

// SpawnDisc adds fluid particles filling a disc at center at the current
// rest density. Returns the number added.
func (g *Game) SpawnDisc(center vmath.Vec2, radius float32) int {
	ps := scene.Disc(center, radius, scene.Spacing(g.cfg), g.state.Params().RestDensity)
	g.state.AddParticles(ps)
	return len(ps)
}

// SpawnObstacle adds a disc of static particles at center.
func (g *Game) SpawnObstacle(center vmath.Vec2, radius float32) int {
	ps := scene.Obstacle(center, radius, scene.Spacing(g.cfg), g.state.Params().RestDensity)
	g.state.AddParticles(ps)
	return len(ps)
}
