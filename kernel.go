package particlelife

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Kernel is the pure per-pair force contribution (§4.3): given a
// query particle position p, a weighted sample s at distance d from
// p, and the culture-pair coefficient g, it returns
//
//	0                                 if d == 0 or d > aoe
//	normalize(s.Pos - p) * g * s.Mass otherwise
//
// The result is not inverse-square and not symmetric; it is a
// made-up sign rule, not a gravitational law. aoe is the radius, not
// its square, despite the config field name aoe2.
func Kernel(p mgl32.Vec2, s WeightedPoint, aoe float32, g float64) mgl32.Vec2 {
	delta := s.Pos.Sub(p)
	d2 := delta.LenSqr()
	if d2 == 0 || d2 > aoe*aoe {
		return mgl32.Vec2{}
	}
	d := float32(math.Sqrt(float64(d2)))
	return delta.Mul(1 / d).Mul(float32(g) * float32(s.Mass))
}
