package particlelife

import "github.com/go-gl/mathgl/mgl32"

// Integrate advances every particle of culture c by one tick of
// duration tau, given its force row (F[i] + Fc[i] already summed) per
// §4.5. Damping is applied before the position step, and wall
// reflection is applied before the position step as well: a particle
// sitting on the wall with outgoing velocity is corrected to inward
// velocity and may then leave the wall this same tick. The wall clamp
// is a position snap, not a bounce offset. After the position step,
// a position that ended outside bound is snapped back onto the wall
// it crossed, so every particle lies within bound when Integrate
// returns; its velocity is left for the next tick's reflection.
func Integrate(c *Culture, forces []mgl32.Vec2, bound Rect, damping, tau float32) {
	for k := range c.Particles {
		p := &c.Particles[k]
		p.Vel = p.Vel.Add(forces[k]).Mul(damping)

		if p.Pos.X() <= 0 {
			p.Vel[0] = absf(p.Vel.X())
			p.Pos[0] = 0
		}
		if p.Pos.X() >= bound.W {
			p.Vel[0] = -absf(p.Vel.X())
			p.Pos[0] = bound.W
		}
		if p.Pos.Y() <= 0 {
			p.Vel[1] = absf(p.Vel.Y())
			p.Pos[1] = 0
		}
		if p.Pos.Y() >= bound.H {
			p.Vel[1] = -absf(p.Vel.Y())
			p.Pos[1] = bound.H
		}

		p.Pos = p.Pos.Add(p.Vel.Mul(tau))
		p.Pos[0] = mgl32.Clamp(p.Pos.X(), 0, bound.W)
		p.Pos[1] = mgl32.Clamp(p.Pos.Y(), 0, bound.H)
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
