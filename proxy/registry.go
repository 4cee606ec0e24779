// Package proxy mirrors solver particles as ECS entities for rendering and
// inspection. The solver owns particle state; the registry only copies it.
package proxy

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/mpm2d/particles"
)

// ParticleRef links a proxy entity to its particle index.
type ParticleRef struct {
	Index int
}

// Position is the world-space particle position.
type Position struct {
	X, Y float32
}

// Velocity is the particle velocity.
type Velocity struct {
	X, Y float32
}

// Shade carries the per-particle values used for colouring.
type Shade struct {
	Density float32
	Static  bool
}

// Registry keeps one entity per live particle, indexed by particle index.
type Registry struct {
	world    *ecs.World
	mapper   *ecs.Map4[ParticleRef, Position, Velocity, Shade]
	filter   *ecs.Filter4[ParticleRef, Position, Velocity, Shade]
	entities []ecs.Entity
}

// NewRegistry creates an empty registry with its own ECS world.
func NewRegistry() *Registry {
	world := ecs.NewWorld()
	return &Registry{
		world:  world,
		mapper: ecs.NewMap4[ParticleRef, Position, Velocity, Shade](world),
		filter: ecs.NewFilter4[ParticleRef, Position, Velocity, Shade](world),
	}
}

// Len returns the number of proxies.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Entity returns the proxy of particle i.
func (r *Registry) Entity(i int) (ecs.Entity, bool) {
	if i < 0 || i >= len(r.entities) {
		return ecs.Entity{}, false
	}
	return r.entities[i], true
}

// Alive reports whether e is still a registered proxy.
func (r *Registry) Alive(e ecs.Entity) bool {
	return r.world.Alive(e)
}

// Get returns the components of a live proxy.
func (r *Registry) Get(e ecs.Entity) (*ParticleRef, *Position, *Velocity, *Shade) {
	return r.mapper.Get(e)
}

// Sync copies particle state into the proxies, spawning entities for new
// indices and removing proxies beyond len(ps).
func (r *Registry) Sync(ps []particles.Particle) {
	for len(r.entities) > len(ps) {
		last := len(r.entities) - 1
		r.world.RemoveEntity(r.entities[last])
		r.entities = r.entities[:last]
	}

	for i := range ps {
		p := &ps[i]
		if i < len(r.entities) {
			_, pos, vel, shade := r.mapper.Get(r.entities[i])
			pos.X, pos.Y = p.Position.X, p.Position.Y
			vel.X, vel.Y = p.Velocity.X, p.Velocity.Y
			shade.Density, shade.Static = p.Density, p.Static
			continue
		}
		ref := ParticleRef{Index: i}
		pos := Position{X: p.Position.X, Y: p.Position.Y}
		vel := Velocity{X: p.Velocity.X, Y: p.Velocity.Y}
		shade := Shade{Density: p.Density, Static: p.Static}
		r.entities = append(r.entities, r.mapper.NewEntity(&ref, &pos, &vel, &shade))
	}
}

// ApplyRemap re-links proxies after a removal. remap maps old particle
// indices to new ones, with particles.Removed for dropped particles, whose
// proxies are destroyed. Returns the number of proxies removed.
func (r *Registry) ApplyRemap(remap []int) int {
	if len(remap) == 0 {
		return 0
	}

	size := 0
	for _, idx := range remap {
		if idx+1 > size {
			size = idx + 1
		}
	}

	// First pass: collect survivors and dead proxies
	next := make([]ecs.Entity, size)
	var toRemove []ecs.Entity
	for old, e := range r.entities {
		if old >= len(remap) {
			toRemove = append(toRemove, e)
			continue
		}
		idx := remap[old]
		if idx == particles.Removed {
			toRemove = append(toRemove, e)
			continue
		}
		next[idx] = e
		ref, _, _, _ := r.mapper.Get(e)
		ref.Index = idx
	}

	// Second pass: remove entities
	for _, e := range toRemove {
		r.world.RemoveEntity(e)
	}

	// Survivors without a proxy yet are spawned by the next Sync.
	n := len(next)
	for n > 0 && next[n-1].IsZero() {
		n--
	}
	r.entities = next[:n]
	return len(toRemove)
}

// Each calls fn for every proxy.
func (r *Registry) Each(fn func(ref *ParticleRef, pos *Position, vel *Velocity, shade *Shade)) {
	query := r.filter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

// Clear removes every proxy.
func (r *Registry) Clear() {
	for _, e := range r.entities {
		r.world.RemoveEntity(e)
	}
	r.entities = r.entities[:0]
}
