package particlelife

import "github.com/go-gl/mathgl/mgl32"

// UniformGrid is the CPU-side construction of the §4.2 uniform grid:
// cell size chosen so every cell is >= 2r wide, built by the same
// three-pass prefix-sum scheme the GPU path uses (count, offsets,
// scatter). It serves two purposes: it supplies the grid width and
// cell length that GPUGridWorld.Step uploads to the GPU kernels (the
// GPU path sums its offsets inline in Step rather than through
// Build), and it doubles as a dependency-free oracle for testing
// grid-path semantics without a real device.
//
// Grounded on the teacher's SpatialHashGrid cell-indexing scheme
// (getCellIndex/hashKey), generalized from a 3D hash-map-of-buckets
// to the spec's 2D flat array-of-arrays binning.
type UniformGrid struct {
	bound   Rect
	cellLen float32
	gridW   int

	Counts  []uint32
	Offsets []uint32
	Bins    []uint32 // permutation of [0, N), grouped by cell
}

// NewUniformGrid chooses a cell length of W / floor(W / (2r)) so every
// cell is at least 2r wide (§4.2), and grid_w = floor(W / (2r)): using
// ceil here would shrink the cells below 2r whenever W isn't an exact
// multiple of 2r, so the division must round down, not up.
func NewUniformGrid(bound Rect, aoe float32) *UniformGrid {
	cellTarget := 2 * aoe
	if cellTarget <= 0 {
		cellTarget = 1
	}
	gridW := int(bound.W / cellTarget)
	if gridW < 1 {
		gridW = 1
	}
	cellLen := bound.W / float32(gridW)
	return &UniformGrid{bound: bound, cellLen: cellLen, gridW: gridW}
}

// CellOf returns the flat cell index c = floor(y/bin)*grid_w +
// floor(x/bin) for a position, clamped into the grid so points
// exactly on or outside the upper boundary still land in a valid
// cell.
func (g *UniformGrid) CellOf(p mgl32.Vec2) int {
	cx := clampCell(int(p.X()/g.cellLen), g.gridW)
	cy := clampCell(int(p.Y()/g.cellLen), g.gridW)
	return cy*g.gridW + cx
}

func clampCell(c, gridW int) int {
	if c < 0 {
		return 0
	}
	if c >= gridW {
		return gridW - 1
	}
	return c
}

// Build runs the three passes over positions (§4.2): count particles
// per cell, exclusive-prefix-sum into offsets, then scatter particle
// indices into Bins grouped by cell. G = grid_w^2 cells; Offsets has
// length G+1, with Offsets[G] == len(positions).
func (g *UniformGrid) Build(positions []mgl32.Vec2) {
	n := len(positions)
	cells := g.gridW * g.gridW

	g.Counts = make([]uint32, cells)
	cellOf := make([]int, n)
	for i, p := range positions {
		c := g.CellOf(p)
		cellOf[i] = c
		g.Counts[c]++
	}

	g.Offsets = make([]uint32, cells+1)
	var running uint32
	for c := 0; c < cells; c++ {
		g.Offsets[c] = running
		running += g.Counts[c]
	}
	g.Offsets[cells] = running

	cursor := make([]uint32, cells)
	g.Bins = make([]uint32, n)
	for i, c := range cellOf {
		slot := g.Offsets[c] + cursor[c]
		g.Bins[slot] = uint32(i)
		cursor[c]++
	}
}

// Neighbors calls visit with the index of every particle in the 3x3
// block of cells around p's own cell, clamped at the grid edges
// (§4.2 Query). It is a superset of particles within aoe and a subset
// of those within 2*aoe*sqrt2 (§8 invariant 5); the caller's kernel
// cutoff reconciles the two.
func (g *UniformGrid) Neighbors(p mgl32.Vec2, visit func(idx uint32)) {
	cx := clampCell(int(p.X()/g.cellLen), g.gridW)
	cy := clampCell(int(p.Y()/g.cellLen), g.gridW)
	for dy := -1; dy <= 1; dy++ {
		ny := cy + dy
		if ny < 0 || ny >= g.gridW {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := cx + dx
			if nx < 0 || nx >= g.gridW {
				continue
			}
			c := ny*g.gridW + nx
			start, end := g.Offsets[c], g.Offsets[c+1]
			for _, idx := range g.Bins[start:end] {
				visit(idx)
			}
		}
	}
}

// GridWidth reports grid_w, the number of cells per side.
func (g *UniformGrid) GridWidth() int { return g.gridW }

// CellLength reports the chosen cell size.
func (g *UniformGrid) CellLength() float32 { return g.cellLen }
