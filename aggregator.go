package particlelife

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ForceTensor is C arrays of S vectors, one per (culture, slot), the
// `F` of §3: zeroed at the start of a tick, accumulated during force
// computation, averaged by 1/C before integration.
type ForceTensor [][]mgl32.Vec2

// NewForceTensor allocates a zeroed tensor matching culture sizes.
func NewForceTensor(cultures []*Culture) ForceTensor {
	t := make(ForceTensor, len(cultures))
	for i, c := range cultures {
		t[i] = make([]mgl32.Vec2, len(c.Particles))
	}
	return t
}

func (t ForceTensor) zero() {
	for i := range t {
		for k := range t[i] {
			t[i][k] = mgl32.Vec2{}
		}
	}
}

// Aggregator computes the per-tick force tensor by walking, for every
// target culture i and source culture j, culture j's spatial index
// for each particle of culture i (§4.4). It owns one quadtree per
// culture, rebuilt wholesale by every call to Rebuild; Aggregate
// reads the trees as the last Rebuild left them.
type Aggregator struct {
	aoe   float32
	theta float32
	bound Rect
	trees []*Quadtree
}

// NewAggregator prepares one quadtree per culture over bound, with
// force cutoff radius aoe and Barnes–Hut opening angle theta.
func NewAggregator(numCultures int, bound Rect, aoe, theta float32) *Aggregator {
	trees := make([]*Quadtree, numCultures)
	for i := range trees {
		trees[i] = NewQuadtree(bound, theta)
	}
	return &Aggregator{aoe: aoe, theta: theta, bound: bound, trees: trees}
}

// Rebuild reconstructs every culture's quadtree from its current
// particle positions. Must run before Aggregate each tick (§4.6: "the
// rebuild is total, not incremental").
func (a *Aggregator) Rebuild(cultures []*Culture) {
	for j, c := range a.trees {
		points := make([]WeightedPoint, len(cultures[j].Particles))
		for k, p := range cultures[j].Particles {
			points[k] = WeightedPoint{Pos: p.Pos, Mass: 1}
		}
		c.Build(points)
	}
}

// Aggregate fills out with the force on every particle, per §4.4's
// pseudocode: for each target culture i, sum over source cultures j
// the kernel accumulated over culture j's index, then scale the whole
// row by 1/C. The order of iteration over (i,j,k) is unconstrained by
// the spec; this implementation walks i, then j, then k.
func (a *Aggregator) Aggregate(cultures []*Culture, mesh *GravityMesh, out ForceTensor) {
	out.zero()
	c := len(cultures)
	if c == 0 {
		return
	}
	invC := float32(1) / float32(c)
	for i, ci := range cultures {
		row := mesh.Row(i)
		for j := range cultures {
			g := row[j]
			if g == 0 {
				continue
			}
			tree := a.trees[j]
			for k, p := range ci.Particles {
				out[i][k] = out[i][k].Add(tree.Accumulate(p.Pos, a.aoe, func(s WeightedPoint) mgl32.Vec2 {
					return Kernel(p.Pos, s, a.aoe, g)
				}))
			}
		}
		for k := range out[i] {
			out[i][k] = out[i][k].Mul(invC)
		}
	}
}

// CursorButton is the mouse state delivered to the aggregator each
// tick (§6 host-to-core inputs).
type CursorButton int

const (
	CursorNone CursorButton = iota
	CursorLeft
	CursorRight
)

// ApplyCursorForce fills cursorOut with the cursor-interaction force
// (§4.4): left button repels within cursorAoE at magnitude
// cursorForce, right button is the mirror-image attraction. It is
// additive into a tensor distinct from the main force tensor and
// only meaningful when button != CursorNone.
func ApplyCursorForce(cultures []*Culture, cursorOut ForceTensor, button CursorButton, cursorPos mgl32.Vec2, cursorAoE, cursorForce float32) {
	cursorOut.zero()
	if button == CursorNone {
		return
	}
	sign := float32(1)
	if button == CursorRight {
		sign = -1
	}
	aoe2 := cursorAoE * cursorAoE
	for i, c := range cultures {
		for k, p := range c.Particles {
			delta := p.Pos.Sub(cursorPos)
			d2 := delta.LenSqr()
			if d2 == 0 || d2 > aoe2 {
				continue
			}
			d := float32(math.Sqrt(float64(d2)))
			dir := delta.Mul(1 / d)
			cursorOut[i][k] = dir.Mul(sign * cursorForce)
		}
	}
}
