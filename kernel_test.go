package particlelife

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestKernel_ZeroDistanceReturnsZero(t *testing.T) {
	p := mgl32.Vec2{5, 5}
	s := WeightedPoint{Pos: p, Mass: 3}
	got := Kernel(p, s, 100, 1)
	if got != (mgl32.Vec2{}) {
		t.Errorf("expected zero force at zero distance, got %v", got)
	}
}

func TestKernel_BeyondCutoffReturnsZero(t *testing.T) {
	p := mgl32.Vec2{0, 0}
	s := WeightedPoint{Pos: mgl32.Vec2{200, 0}, Mass: 1}
	got := Kernel(p, s, 100, 1)
	if got != (mgl32.Vec2{}) {
		t.Errorf("expected zero force beyond the cutoff radius, got %v", got)
	}
}

func TestKernel_DirectionAndMagnitude(t *testing.T) {
	p := mgl32.Vec2{0, 0}
	s := WeightedPoint{Pos: mgl32.Vec2{10, 0}, Mass: 2}
	g := 3.0

	got := Kernel(p, s, 100, g)
	want := mgl32.Vec2{6, 0} // normalize(10,0) * g * mass = (1,0) * 3 * 2

	if diff := got.Sub(want).Len(); diff > 1e-4 {
		t.Errorf("Kernel(%v, %v, aoe=100, g=%v) = %v, want %v", p, s, g, got, want)
	}
}

func TestKernel_NegativeCoefficientReverses(t *testing.T) {
	p := mgl32.Vec2{0, 0}
	s := WeightedPoint{Pos: mgl32.Vec2{0, 10}, Mass: 1}

	attract := Kernel(p, s, 100, 1)
	repel := Kernel(p, s, 100, -1)

	if sum := attract.Add(repel); sum.Len() > 1e-5 {
		t.Errorf("expected g and -g to produce exactly opposite forces, got %v and %v", attract, repel)
	}
}

func TestKernel_AtExactCutoffIsIncluded(t *testing.T) {
	p := mgl32.Vec2{0, 0}
	s := WeightedPoint{Pos: mgl32.Vec2{100, 0}, Mass: 1}
	got := Kernel(p, s, 100, 1)
	if got == (mgl32.Vec2{}) {
		t.Errorf("expected a nonzero force exactly at the cutoff radius (d2 > aoe2 is strict)")
	}
}
