package particlelife

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func twoCultureWorld(g01, g10 float64) ([]*Culture, *GravityMesh) {
	cultures := []*Culture{
		{Color: [3]uint8{1, 0, 0}, Particles: []Particle{{Pos: mgl32.Vec2{0, 0}}}},
		{Color: [3]uint8{0, 1, 0}, Particles: []Particle{{Pos: mgl32.Vec2{50, 0}}}},
	}
	mesh := GravityMeshFromFlat(2, []float64{0, g01, g10, 0})
	return cultures, mesh
}

func TestAggregator_TwoParticleRepel(t *testing.T) {
	cultures, mesh := twoCultureWorld(-1, -1)
	bound := Rect{W: 1000, H: 1000}
	agg := NewAggregator(2, bound, 100, 0)
	out := NewForceTensor(cultures)

	agg.Rebuild(cultures)
	agg.Aggregate(cultures, mesh, out)

	// culture 0's particle sits at (0,0), culture 1's source at (50,0):
	// g=-1 means the force on culture 0 points away from culture 1,
	// i.e. in the -x direction; symmetric for culture 1.
	if out[0][0].X() >= 0 {
		t.Errorf("expected culture 0 to be repelled in -x, got force %v", out[0][0])
	}
	if out[1][0].X() <= 0 {
		t.Errorf("expected culture 1 to be repelled in +x, got force %v", out[1][0])
	}

	// Averaged by C=2, so magnitude is exactly half of the raw kernel
	// output (kernel itself returns unit vector * g * mass=1).
	wantMag := float32(1.0 / 2.0)
	if diff := out[0][0].Len() - wantMag; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("expected |force| == %v (1/C averaging), got %v", wantMag, out[0][0].Len())
	}
}

func TestAggregator_ZeroMeshProducesZeroForce(t *testing.T) {
	cultures, mesh := twoCultureWorld(0, 0)
	bound := Rect{W: 1000, H: 1000}
	agg := NewAggregator(2, bound, 100, 0)
	out := NewForceTensor(cultures)

	agg.Rebuild(cultures)
	agg.Aggregate(cultures, mesh, out)

	for i := range out {
		for _, f := range out[i] {
			if f != (mgl32.Vec2{}) {
				t.Errorf("expected zero force tensor under an all-zero mesh, got %v at culture %d", f, i)
			}
		}
	}
}

func TestApplyCursorForce_LeftButtonRepels(t *testing.T) {
	cultures := []*Culture{
		{Particles: []Particle{{Pos: mgl32.Vec2{10, 0}}}},
	}
	out := NewForceTensor(cultures)
	ApplyCursorForce(cultures, out, CursorLeft, mgl32.Vec2{0, 0}, 100, 5)

	if out[0][0].X() <= 0 {
		t.Errorf("expected the left button to repel the particle away from the cursor, got %v", out[0][0])
	}
	if diff := out[0][0].Len() - 5; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("expected force magnitude to equal cursorForce=5, got %v", out[0][0].Len())
	}
}

func TestApplyCursorForce_RightButtonAttracts(t *testing.T) {
	cultures := []*Culture{
		{Particles: []Particle{{Pos: mgl32.Vec2{10, 0}}}},
	}
	out := NewForceTensor(cultures)
	ApplyCursorForce(cultures, out, CursorRight, mgl32.Vec2{0, 0}, 100, 5)

	if out[0][0].X() >= 0 {
		t.Errorf("expected the right button to attract the particle toward the cursor, got %v", out[0][0])
	}
}

func TestApplyCursorForce_NoneZeroesOutput(t *testing.T) {
	cultures := []*Culture{
		{Particles: []Particle{{Pos: mgl32.Vec2{10, 0}}}},
	}
	out := ForceTensor{{mgl32.Vec2{9, 9}}}
	ApplyCursorForce(cultures, out, CursorNone, mgl32.Vec2{0, 0}, 100, 5)

	if out[0][0] != (mgl32.Vec2{}) {
		t.Errorf("expected CursorNone to zero the output tensor, got %v", out[0][0])
	}
}

func TestApplyCursorForce_BeyondAoEIsZero(t *testing.T) {
	cultures := []*Culture{
		{Particles: []Particle{{Pos: mgl32.Vec2{1000, 0}}}},
	}
	out := NewForceTensor(cultures)
	ApplyCursorForce(cultures, out, CursorLeft, mgl32.Vec2{0, 0}, 10, 5)

	if out[0][0] != (mgl32.Vec2{}) {
		t.Errorf("expected no cursor force beyond cursorAoE, got %v", out[0][0])
	}
}
