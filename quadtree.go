package particlelife

import "github.com/go-gl/mathgl/mgl32"

// WeightedPoint is a spatial-index output sample: a position and the
// number of source particles it approximates (§3).
type WeightedPoint struct {
	Pos  mgl32.Vec2
	Mass int
}

// DefaultQuadtreeDepth caps quadtree subdivision (§4.1). Points that
// still collide past this depth are merged into the existing leaf by
// incrementing its mass rather than subdividing further.
const DefaultQuadtreeDepth = 8

type qtNodeKind uint8

const (
	qtEmpty qtNodeKind = iota
	qtExternal
	qtInternal
)

// quadNode is a tagged union over {empty, external, internal} per the
// design notes: the tag is data (qtNodeKind), not a dispatch table.
// Internal nodes are recursive by the children array, not by
// interface indirection.
type quadNode struct {
	kind     qtNodeKind
	bound    Rect
	origin   mgl32.Vec2 // bottom-left corner of bound, needed once bound no longer starts at the tree root
	children [4]*quadNode
	point    WeightedPoint // external: the single point; internal: center of mass after Quadtree.Build's post-order pass
}

// Quadtree is the Barnes–Hut spatial index over a single culture's
// particle positions (§4.1). It is rebuilt wholesale every tick from
// that tick's positions and holds no references back into culture
// storage — only copies of (position, mass), per the design notes on
// avoiding cyclic references.
type Quadtree struct {
	root     *quadNode
	theta    float32
	maxDepth int
}

// NewQuadtree creates an empty tree over bound with opening-angle
// threshold theta (§4.1; typically 0.9). theta == 0 makes Accumulate
// equivalent to exact pairwise summation.
func NewQuadtree(bound Rect, theta float32) *Quadtree {
	return &Quadtree{
		root:     &quadNode{kind: qtEmpty, bound: bound},
		theta:    theta,
		maxDepth: DefaultQuadtreeDepth,
	}
}

// Build bulk-inserts points, discarding any previous tree contents.
// Points outside the tree's bound are silently dropped (§4.1
// Failure); construction otherwise cannot fail.
func (t *Quadtree) Build(points []WeightedPoint) {
	t.root = &quadNode{kind: qtEmpty, bound: t.root.bound}
	for _, p := range points {
		if !t.root.bound.Contains(p.Pos) {
			continue
		}
		t.root = insert(t.root, p, 0, t.maxDepth)
	}
	computeCenterOfMass(t.root)
}

// quadrant returns the index (0..3) of the child of a node with the
// given origin/bound that contains pos, and that child's own
// origin/bound.
func quadrant(origin mgl32.Vec2, bound Rect, pos mgl32.Vec2) (idx int, childOrigin mgl32.Vec2, childBound Rect) {
	hw, hh := bound.W/2, bound.H/2
	midX, midY := origin.X()+hw, origin.Y()+hh
	right := pos.X() >= midX
	top := pos.Y() >= midY
	childBound = Rect{W: hw, H: hh}
	switch {
	case !right && !top:
		return 0, origin, childBound
	case right && !top:
		return 1, mgl32.Vec2{midX, origin.Y()}, childBound
	case !right && top:
		return 2, mgl32.Vec2{origin.X(), midY}, childBound
	default:
		return 3, mgl32.Vec2{midX, midY}, childBound
	}
}

func insert(n *quadNode, p WeightedPoint, depth, maxDepth int) *quadNode {
	switch n.kind {
	case qtEmpty:
		n.kind = qtExternal
		n.point = p
		return n
	case qtExternal:
		if depth >= maxDepth {
			// Depth cap reached: merge by incrementing mass rather
			// than subdividing further (§4.1).
			n.point = mergePoints(n.point, p)
			return n
		}
		existing := n.point
		n.kind = qtInternal
		n.point = WeightedPoint{}
		n = subdivideAndInsert(n, existing, depth, maxDepth)
		n = subdivideAndInsert(n, p, depth, maxDepth)
		return n
	default: // qtInternal
		idx, childOrigin, childBound := quadrant(n.origin, n.bound, p.Pos)
		child := n.children[idx]
		if child == nil {
			child = &quadNode{kind: qtEmpty, bound: childBound, origin: childOrigin}
		}
		n.children[idx] = insert(child, p, depth+1, maxDepth)
		return n
	}
}

func subdivideAndInsert(n *quadNode, p WeightedPoint, depth, maxDepth int) *quadNode {
	idx, childOrigin, childBound := quadrant(n.origin, n.bound, p.Pos)
	child := n.children[idx]
	if child == nil {
		child = &quadNode{kind: qtEmpty, bound: childBound, origin: childOrigin}
	}
	n.children[idx] = insert(child, p, depth+1, maxDepth)
	return n
}

func mergePoints(a, b WeightedPoint) WeightedPoint {
	totalMass := a.Mass + b.Mass
	pos := a.Pos.Mul(float32(a.Mass)).Add(b.Pos.Mul(float32(b.Mass))).Mul(1 / float32(totalMass))
	return WeightedPoint{Pos: pos, Mass: totalMass}
}

// computeCenterOfMass is the post-order pass (§4.1): every internal
// node's point becomes the position-weighted mean of its descendants,
// with total mass equal to the sum of descendant masses.
func computeCenterOfMass(n *quadNode) WeightedPoint {
	switch n.kind {
	case qtEmpty:
		return WeightedPoint{}
	case qtExternal:
		return n.point
	default: // qtInternal
		var sumPos mgl32.Vec2
		mass := 0
		for _, c := range n.children {
			if c == nil {
				continue
			}
			cm := computeCenterOfMass(c)
			if cm.Mass == 0 {
				continue
			}
			sumPos = sumPos.Add(cm.Pos.Mul(float32(cm.Mass)))
			mass += cm.Mass
		}
		if mass == 0 {
			n.point = WeightedPoint{}
			return n.point
		}
		n.point = WeightedPoint{Pos: sumPos.Mul(1 / float32(mass)), Mass: mass}
		return n.point
	}
}

// Accumulate sums f(w) over the approximated set of weighted points w
// that collectively represent all source points within distance r of
// q (§4.1). A node whose bounding-box-width / distance-to-q ratio is
// below theta is treated as a single point at its center of mass;
// otherwise Accumulate recurses into its children. It visits each
// leaf point at most once and never emits a point whose distance from
// q could exceed aoe (the caller's force kernel double-checks this
// via its own cutoff, since center-of-mass distance is an
// approximation of the true nearest-source distance).
func (t *Quadtree) Accumulate(q mgl32.Vec2, aoe float32, f func(WeightedPoint) mgl32.Vec2) mgl32.Vec2 {
	var sum mgl32.Vec2
	accumulateNode(t.root, q, aoe, t.theta, f, &sum)
	return sum
}

func accumulateNode(n *quadNode, q mgl32.Vec2, aoe, theta float32, f func(WeightedPoint) mgl32.Vec2, sum *mgl32.Vec2) {
	if n == nil || n.kind == qtEmpty {
		return
	}
	if n.kind == qtExternal {
		if n.point.Pos.Sub(q).Len() <= aoe {
			*sum = sum.Add(f(n.point))
		}
		return
	}

	// Internal node: multipole acceptance criterion.
	cm := n.point
	d := cm.Pos.Sub(q).Len()
	if d > aoe {
		// The whole subtree's center of mass lies beyond the AoE.
		// This is an approximation (individual descendants could
		// still be closer), matching the spec's explicit tolerance:
		// theta trades accuracy for speed and theta=0 degenerates to
		// exact summation via full recursion below.
		if theta > 0 {
			return
		}
	}
	width := n.bound.W
	if theta > 0 && d > 0 && width/d < theta {
		*sum = sum.Add(f(cm))
		return
	}
	for _, c := range n.children {
		accumulateNode(c, q, aoe, theta, f, sum)
	}
}
