package particlelife

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func zeroMeshConfig(numCultures, cultureSize int) Config {
	mesh := make([][]float64, numCultures)
	for i := range mesh {
		mesh[i] = make([]float64, numCultures)
	}
	return Config{
		Bound:       BoundConfig{W: 1000, H: 800},
		NumCultures: numCultures,
		CultureSize: cultureSize,
		AoE2:        10000,
		Theta:       0.9,
		Damping:     1,
		GravityMesh: mesh,
	}
}

func TestWorld_ZeroMeshIsAFixedPoint(t *testing.T) {
	cfg := zeroMeshConfig(5, 50)
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}

	initial := snapshotPositions(w)

	for i := 0; i < 100; i++ {
		w.Step(1, CursorNone, mgl32.Vec2{})
	}

	after := snapshotPositions(w)
	for ci := range initial {
		for pi := range initial[ci] {
			if initial[ci][pi].Sub(after[ci][pi]).Len() > 1e-3 {
				t.Errorf("culture %d particle %d moved under an all-zero mesh: %v -> %v", ci, pi, initial[ci][pi], after[ci][pi])
			}
		}
	}
}

func snapshotPositions(w *World) [][]mgl32.Vec2 {
	out := make([][]mgl32.Vec2, len(w.cultures))
	for i, c := range w.cultures {
		out[i] = make([]mgl32.Vec2, len(c.Particles))
		for k, p := range c.Particles {
			out[i][k] = p.Pos
		}
	}
	return out
}

func TestWorld_PositionsStayWithinBound(t *testing.T) {
	cfg := Config{
		Bound:       BoundConfig{W: 500, H: 300},
		NumCultures: 3,
		CultureSize: 100,
		AoE2:        2500,
		Theta:       0.9,
		Damping:     0.5,
	}
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		w.Step(1.0/60.0, CursorNone, mgl32.Vec2{})
		for ci, c := range w.cultures {
			for pi, p := range c.Particles {
				if !w.bound.Contains(p.Pos) {
					t.Fatalf("tick %d: culture %d particle %d left the bound: %v (bound %v)", i, ci, pi, p.Pos, w.bound)
				}
			}
		}
	}
}

func TestWorld_ConstructionRejectsInvalidConfig(t *testing.T) {
	cfg := Config{NumCultures: 0, CultureSize: 10, AoE2: 100, Damping: 1}
	_, err := NewWorld(cfg)
	if err == nil {
		t.Fatal("expected NewWorld to reject an invalid config, got nil error")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("expected a *ConfigError, got %T", err)
	}
}

func TestWorld_StepAdvancesTickCounter(t *testing.T) {
	cfg := zeroMeshConfig(2, 10)
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	if w.Tick() != 0 {
		t.Fatalf("expected Tick()==0 before any Step, got %d", w.Tick())
	}
	w.Step(1, CursorNone, mgl32.Vec2{})
	w.Step(1, CursorNone, mgl32.Vec2{})
	if w.Tick() != 2 {
		t.Errorf("expected Tick()==2 after two Step calls, got %d", w.Tick())
	}
}

func TestWorld_RenderYieldsOneSamplePerParticle(t *testing.T) {
	cfg := zeroMeshConfig(3, 7)
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	var count int
	w.Render(func(s RenderSample) { count++ })
	if want := 3 * 7; count != want {
		t.Errorf("expected %d render samples, got %d", want, count)
	}
}

func TestWorld_ExportGravityMeshRoundTrips(t *testing.T) {
	cfg := Config{
		NumCultures: 2,
		CultureSize: 5,
		AoE2:        100,
		Damping:     1,
		GravityMesh: [][]float64{{0, 0.25}, {-0.25, 0}},
	}
	w, err := NewWorld(cfg)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	data, err := w.ExportGravityMesh()
	if err != nil {
		t.Fatalf("ExportGravityMesh failed: %v", err)
	}
	mesh, err := GravityMeshFromJSON([]byte(data))
	if err != nil {
		t.Fatalf("re-importing exported mesh failed: %v", err)
	}
	if mesh.At(0, 1) != 0.25 || mesh.At(1, 0) != -0.25 {
		t.Errorf("expected the exported mesh to match the configured mesh, got [0][1]=%v [1][0]=%v", mesh.At(0, 1), mesh.At(1, 0))
	}
}
