package particlelife

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// TestUniformGrid_NeighborsIsSupersetOfAoERadius checks §8 invariant 5's
// first half: every particle within aoe of the query point appears in
// the 3x3-neighborhood result.
func TestUniformGrid_NeighborsIsSupersetOfAoERadius(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bound := Rect{W: 1000, H: 1000}
	aoe := float32(50)

	positions := make([]mgl32.Vec2, 500)
	for i := range positions {
		positions[i] = mgl32.Vec2{rng.Float32() * bound.W, rng.Float32() * bound.H}
	}

	grid := NewUniformGrid(bound, aoe)
	grid.Build(positions)

	q := mgl32.Vec2{500, 500}
	visited := make(map[uint32]bool)
	grid.Neighbors(q, func(idx uint32) { visited[idx] = true })

	for i, p := range positions {
		if p.Sub(q).Len() <= aoe && !visited[uint32(i)] {
			t.Errorf("particle %d at %v is within aoe=%v of %v but was not visited", i, p, aoe, q)
		}
	}
}

// TestUniformGrid_NeighborsIsSubsetOfExpandedRadius checks §8 invariant
// 5's second half: every visited particle lies within 2*aoe*sqrt2 of
// the query point (the 3x3 block can reach at most one cell-width
// beyond the query's own cell in each direction).
func TestUniformGrid_NeighborsIsSubsetOfExpandedRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	bound := Rect{W: 1000, H: 1000}
	aoe := float32(50)

	positions := make([]mgl32.Vec2, 500)
	for i := range positions {
		positions[i] = mgl32.Vec2{rng.Float32() * bound.W, rng.Float32() * bound.H}
	}

	grid := NewUniformGrid(bound, aoe)
	grid.Build(positions)

	q := mgl32.Vec2{500, 500}
	const sqrt2 = 1.4142136
	limit := 2 * grid.CellLength() * sqrt2

	grid.Neighbors(q, func(idx uint32) {
		d := positions[idx].Sub(q).Len()
		if d > limit+1e-2 {
			t.Errorf("particle %d at distance %v exceeds the expanded radius bound %v", idx, d, limit)
		}
	})
}

func TestUniformGrid_BuildCoversEveryParticleExactlyOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bound := Rect{W: 200, H: 200}
	positions := make([]mgl32.Vec2, 123)
	for i := range positions {
		positions[i] = mgl32.Vec2{rng.Float32() * bound.W, rng.Float32() * bound.H}
	}

	grid := NewUniformGrid(bound, 10)
	grid.Build(positions)

	seen := make([]int, len(positions))
	for _, idx := range grid.Bins {
		seen[idx]++
	}
	for i, count := range seen {
		if count != 1 {
			t.Errorf("particle %d appears %d times in Bins, want exactly 1", i, count)
		}
	}
	if got, want := int(grid.Offsets[len(grid.Offsets)-1]), len(positions); got != want {
		t.Errorf("final offset = %d, want %d (total particle count)", got, want)
	}
}

func TestUniformGrid_CellIsAtLeastTwiceAoE(t *testing.T) {
	bound := Rect{W: 997, H: 997}
	aoe := float32(33)
	grid := NewUniformGrid(bound, aoe)
	if grid.CellLength() < 2*aoe {
		t.Errorf("expected cell length >= 2*aoe=%v, got %v", 2*aoe, grid.CellLength())
	}
}
