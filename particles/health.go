package particles

import (
	"math"

	"github.com/pthm-cable/mpm2d/vmath"
)

// HealthParams tunes the per-particle failure check.
type HealthParams struct {
	// ConditionThreshold is the largest acceptable |tr C|/|det C|.
	ConditionThreshold float32
	// ConditionFloor is the Frobenius norm of C below which the condition
	// check is skipped. A vanishing C is uniform translation, not blow-up.
	ConditionFloor float32
}

// DefaultHealth returns the standard thresholds.
func DefaultHealth() HealthParams {
	return HealthParams{
		ConditionThreshold: 1e6,
		ConditionFloor:     1e-3,
	}
}

// UpdateHealth recomputes p.CondNum and sets p.Failed when the particle's
// state has blown up. A failed particle stays failed.
func UpdateHealth(p *Particle, hp HealthParams) {
	if !p.Affine.IsFinite() {
		p.Failed = true
		p.CondNum = float32(math.Inf(1))
		return
	}

	p.CondNum = p.Affine.ConditionNumber()
	if p.CondNum > hp.ConditionThreshold && p.Affine.Frobenius() >= hp.ConditionFloor {
		p.Failed = true
		return
	}

	if !p.Position.IsFinite() || !p.Velocity.IsFinite() || !p.Deformation.IsFinite() {
		p.Failed = true
		return
	}
	if !vmath.IsFinite(p.Mass) || !vmath.IsFinite(p.Volume0) || p.Mass <= 0 || p.Volume0 <= 0 {
		p.Failed = true
	}
}
