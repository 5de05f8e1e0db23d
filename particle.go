package particlelife

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Rect is the world boundary B = [0,W] x [0,H] (§3). It never changes
// over a World's lifetime.
type Rect struct {
	W, H float32
}

// Contains reports whether p lies within the closed rectangle.
func (r Rect) Contains(p mgl32.Vec2) bool {
	return p.X() >= 0 && p.X() <= r.W && p.Y() >= 0 && p.Y() <= r.H
}

// Particle is a single simulated point: a position in B and a
// velocity, with no identity beyond its (culture, slot) address (§3).
type Particle struct {
	Pos mgl32.Vec2
	Vel mgl32.Vec2
}

// Culture is an ordered, fixed-size sequence of particles sharing a
// render color and a row/column of the gravity mesh (§3).
type Culture struct {
	Color     [3]uint8
	Particles []Particle
}

// newCultureRNG seeds a fresh generator for a world's lifetime; not
// used for anything requiring reproducibility across runs (§1
// Non-goals explicitly excludes deterministic reproducibility).
func newCultureRNG() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}

// newCulture births a culture of size population with particles
// placed uniformly at random within bound and zero initial velocity
// (§3 Lifecycle).
func newCulture(color [3]uint8, bound Rect, population int, rng *rand.Rand) *Culture {
	particles := make([]Particle, population)
	for i := range particles {
		particles[i] = Particle{
			Pos: mgl32.Vec2{rng.Float32() * bound.W, rng.Float32() * bound.H},
		}
	}
	return &Culture{Color: color, Particles: particles}
}

// randomColor draws a saturated, arbitrary render color the way
// original_source/src/util.rs's random_color does: random hue, fixed
// saturation/value, so cultures stay visually distinct.
func randomColor(rng *rand.Rand) [3]uint8 {
	h := rng.Float64() * 360
	return hsvToRGB(h, 0.65, 0.95)
}

func hsvToRGB(h, s, v float64) [3]uint8 {
	c := v * s
	x := c * (1 - absFloat64(modFloat64(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return [3]uint8{
		uint8((r + m) * 255),
		uint8((g + m) * 255),
		uint8((b + m) * 255),
	}
}

func absFloat64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func modFloat64(a, b float64) float64 {
	for a >= b {
		a -= b
	}
	for a < 0 {
		a += b
	}
	return a
}
