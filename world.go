package particlelife

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// RenderSample is one element of the core-to-host output stream
// (§6): a culture's render color and a single particle's position,
// suitable for drawing as a 2x2 colored rectangle.
type RenderSample struct {
	Color [3]uint8
	Pos   mgl32.Vec2
}

// World orchestrates a complete simulation: frozen configuration,
// culture storage, gravity mesh, and the CPU aggregator/integrator
// pipeline (§4.6). There is no partial reset; Step may be called any
// number of times and the world is otherwise discarded wholesale.
type World struct {
	id     string
	cfg    Config
	log    Logger
	rng    *rand.Rand
	bound  Rect
	aoe    float32
	theta  float32

	cultures []*Culture
	mesh     *GravityMesh

	agg       *Aggregator
	force     ForceTensor
	cursorOut ForceTensor

	tick uint64
}

// NewWorld validates cfg and constructs a world with randomly placed,
// zero-velocity particles (§3 Lifecycle). Construction fails only on
// the configuration errors enumerated in §7; it never panics on bad
// user input.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}

	rng := rand.New(rand.NewSource(rand.Int63()))
	bound := Rect{W: cfg.Bound.W, H: cfg.Bound.H}
	if bound.W == 0 && bound.H == 0 {
		bound = Rect{W: 1000, H: 800}
	}

	var mesh *GravityMesh
	if cfg.GravityMesh != nil {
		flat := make([]float64, 0, cfg.NumCultures*cfg.NumCultures)
		for _, row := range cfg.GravityMesh {
			flat = append(flat, row...)
		}
		mesh = NewGravityMesh(mat.NewDense(cfg.NumCultures, cfg.NumCultures, flat))
	} else {
		mesh = NewRandomGravityMesh(cfg.NumCultures, rng)
	}

	cultures := make([]*Culture, cfg.NumCultures)
	for i := range cultures {
		cultures[i] = newCulture(randomColor(rng), bound, cfg.CultureSize, rng)
	}

	aoe := float32(math.Sqrt(cfg.AoE2))
	theta := float32(cfg.Theta)

	w := &World{
		id:       uuid.NewString(),
		cfg:      cfg,
		log:      log,
		rng:      rng,
		bound:    bound,
		aoe:      aoe,
		theta:    theta,
		cultures: cultures,
		mesh:     mesh,
		agg:      NewAggregator(cfg.NumCultures, bound, aoe, theta),
	}
	w.force = NewForceTensor(cultures)
	w.cursorOut = NewForceTensor(cultures)

	log.Infof("world %s constructed: %d cultures x %d particles, bound=%gx%g, gpu=%v", w.id, cfg.NumCultures, cfg.CultureSize, bound.W, bound.H, cfg.UseGPU)
	return w, nil
}

// ID returns the world's instance identifier, used to tag log lines
// when several worlds run concurrently (e.g. a parameter-sweep
// harness).
func (w *World) ID() string { return w.id }

// Step advances the simulation by one tick of duration tau (§4.6):
// rebuild the spatial index, aggregate forces, optionally apply the
// cursor force, then integrate. The rebuild is total every tick, not
// incremental; there are no suspension points within Step on the CPU
// path (§5).
func (w *World) Step(tau float32, button CursorButton, cursorPos mgl32.Vec2) {
	w.agg.Rebuild(w.cultures)
	w.agg.Aggregate(w.cultures, w.mesh, w.force)

	if w.cfg.Interactive && button != CursorNone {
		ApplyCursorForce(w.cultures, w.cursorOut, button, cursorPos, float32(math.Sqrt(w.cfg.CursorAoE2)), float32(w.cfg.CursorForce))
	} else {
		w.cursorOut.zero()
	}

	damping := float32(w.cfg.Damping)
	for i, c := range w.cultures {
		combined := make([]mgl32.Vec2, len(c.Particles))
		for k := range combined {
			combined[k] = w.force[i][k].Add(w.cursorOut[i][k])
		}
		Integrate(c, combined, w.bound, damping, tau)
	}

	w.tick++
	w.log.Debugf("world %s tick %d complete", w.id, w.tick)
}

// Render yields one RenderSample per particle, across every culture,
// for the host to draw (§6).
func (w *World) Render(draw func(RenderSample)) {
	for _, c := range w.cultures {
		for _, p := range c.Particles {
			draw(RenderSample{Color: c.Color, Pos: p.Pos})
		}
	}
}

// ExportGravityMesh returns the current gravity mesh as the §6 wire
// format JSON string.
func (w *World) ExportGravityMesh() (string, error) {
	return w.mesh.ExportJSON()
}

// Tick returns the number of Step calls completed so far.
func (w *World) Tick() uint64 { return w.tick }

// Cultures exposes read-only access to culture storage, for telemetry
// and testing; callers must not mutate the returned slices.
func (w *World) Cultures() []*Culture { return w.cultures }

// Forces exposes the mesh-force tensor computed by the most recent
// Step, indexed [culture][particle], for telemetry sampling. It does
// not include the cursor force.
func (w *World) Forces() ForceTensor { return w.force }
