package particlelife

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// GravityMesh is the C×C matrix of per-culture-pair interaction
// coefficients g[i][j] (§3). Row i gives the coefficients with which
// every other culture j attracts (positive) or repels (negative)
// culture i's particles. It is backed by gonum's dense matrix type
// rather than a hand-rolled [][]float64 — it is exactly the shape
// that type exists for, and gives the aggregator RawRowView for
// allocation-free row access.
type GravityMesh struct {
	m *mat.Dense
}

// NewGravityMesh wraps an existing C×C gonum matrix. Panics if it is
// not square — callers that build one by hand should use
// GravityMeshFromJSON instead, which validates the shape and returns
// an error, or NewRandomGravityMesh, which always builds a square
// mesh.
func NewGravityMesh(m *mat.Dense) *GravityMesh {
	r, c := m.Dims()
	if r != c {
		panic(fmt.Sprintf("particlelife: gravity mesh must be square, got %dx%d", r, c))
	}
	return &GravityMesh{m: m}
}

// NewRandomGravityMesh generates a C×C mesh with entries drawn
// uniformly from [-1, 1], matching the reference generator in
// original_source/src/sim.rs's World::new.
func NewRandomGravityMesh(c int, rng *rand.Rand) *GravityMesh {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	data := make([]float64, c*c)
	for i := range data {
		data[i] = rng.Float64()*2 - 1
	}
	return &GravityMesh{m: mat.NewDense(c, c, data)}
}

// GravityMeshFromJSON parses the §6 wire format: a JSON array of
// arrays of floats, outer length == inner length == C. C is taken
// from the mesh's own shape, overriding any configured num_cultures
// (§6: "When supplied on import, C is taken from the mesh length").
func GravityMeshFromJSON(data []byte) (*GravityMesh, error) {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, configErrorf("gravity_mesh", "invalid JSON: %v", err)
	}
	c := len(rows)
	if c == 0 {
		return nil, configErrorf("gravity_mesh", "mesh must have at least one row")
	}
	flat := make([]float64, 0, c*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, configErrorf("gravity_mesh", "row %d has length %d, want %d (mesh must be square)", i, len(row), c)
		}
		flat = append(flat, row...)
	}
	return &GravityMesh{m: mat.NewDense(c, c, flat)}, nil
}

// GravityMeshFromFlat wraps a row-major flat slice of length c*c,
// used by the GPU world constructors which already have a flattened
// config-supplied mesh on hand.
func GravityMeshFromFlat(c int, flat []float64) *GravityMesh {
	return &GravityMesh{m: mat.NewDense(c, c, flat)}
}

// C returns the number of cultures the mesh covers.
func (g *GravityMesh) C() int {
	if g == nil || g.m == nil {
		return 0
	}
	r, _ := g.m.Dims()
	return r
}

// At returns g[i][j]: the coefficient with which culture j acts on
// culture i's particles.
func (g *GravityMesh) At(i, j int) float64 {
	return g.m.At(i, j)
}

// Row returns a view over g[i][*], avoiding an allocation per tick in
// the aggregator's inner loop.
func (g *GravityMesh) Row(i int) []float64 {
	return g.m.RawRowView(i)
}

// ExportJSON serializes the mesh verbatim as the §6 wire format:
// array-of-arrays, row-major, element for element.
func (g *GravityMesh) ExportJSON() (string, error) {
	c := g.C()
	rows := make([][]float64, c)
	for i := 0; i < c; i++ {
		row := make([]float64, c)
		copy(row, g.Row(i))
		rows[i] = row
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("particlelife: marshaling gravity mesh: %w", err)
	}
	return string(data), nil
}
