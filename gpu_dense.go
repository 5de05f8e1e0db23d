package particlelife

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/arborfield/particlelife/shaders"
)

// GPUDenseWorld is the dense per-pair GPU fallback (§1 item 3): a
// single compute pass evaluates the force kernel between every
// particle and every other particle, with no spatial index at all.
// It shares GPUGridWorld's construction/readback conventions but
// skips the three-pass binning entirely.
type GPUDenseWorld struct {
	id  string
	cfg Config
	log Logger

	gpu   *GPUDevice
	bound Rect
	aoe   float32

	cultures []*Culture
	mesh     *GravityMesh

	pipeline *wgpu.ComputePipeline

	n           uint32
	numCultures uint32

	tick uint64
}

// NewGPUDenseWorld constructs cultures and the single dense-force
// compute pipeline.
func NewGPUDenseWorld(cfg Config) (*GPUDenseWorld, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.UseGPU {
		return nil, configErrorf("use_gpu", "NewGPUDenseWorld requires use_gpu: true")
	}

	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}

	dev, err := NewGPUDevice()
	if err != nil {
		return nil, err
	}

	mod, err := dev.CreateShaderModule("dense_force", shaders.DenseForceWGSL)
	if err != nil {
		dev.Release()
		return nil, err
	}
	pipeline, err := dev.CreateComputePipeline("dense_force", mod, "main")
	if err != nil {
		dev.Release()
		return nil, err
	}

	bound := Rect{W: cfg.Bound.W, H: cfg.Bound.H}
	if bound.W == 0 && bound.H == 0 {
		bound = Rect{W: 1000, H: 800}
	}

	rng := newCultureRNG()
	var mesh *GravityMesh
	if cfg.GravityMesh != nil {
		flat := make([]float64, 0, cfg.NumCultures*cfg.NumCultures)
		for _, row := range cfg.GravityMesh {
			flat = append(flat, row...)
		}
		mesh = GravityMeshFromFlat(cfg.NumCultures, flat)
	} else {
		mesh = NewRandomGravityMesh(cfg.NumCultures, rng)
	}

	cultures := make([]*Culture, cfg.NumCultures)
	for i := range cultures {
		cultures[i] = newCulture(randomColor(rng), bound, cfg.CultureSize, rng)
	}

	w := &GPUDenseWorld{
		id:          uuid.NewString(),
		cfg:         cfg,
		log:         log,
		gpu:         dev,
		bound:       bound,
		aoe:         float32(math.Sqrt(cfg.AoE2)),
		cultures:    cultures,
		mesh:        mesh,
		pipeline:    pipeline,
		n:           uint32(cfg.NumCultures * cfg.CultureSize),
		numCultures: uint32(cfg.NumCultures),
	}
	log.Infof("gpu dense world %s constructed: %d cultures x %d particles", w.id, cfg.NumCultures, cfg.CultureSize)
	return w, nil
}

func (w *GPUDenseWorld) ID() string   { return w.id }
func (w *GPUDenseWorld) Tick() uint64 { return w.tick }
func (w *GPUDenseWorld) Release()     { w.gpu.Release() }

func (w *GPUDenseWorld) flatten() ([]byte, []byte) {
	positions := make([]byte, w.n*8)
	cultureOf := make([]byte, w.n*4)
	idx := 0
	for i, c := range w.cultures {
		for _, p := range c.Particles {
			binary.LittleEndian.PutUint32(positions[idx*8:], math.Float32bits(p.Pos.X()))
			binary.LittleEndian.PutUint32(positions[idx*8+4:], math.Float32bits(p.Pos.Y()))
			binary.LittleEndian.PutUint32(cultureOf[idx*4:], uint32(i))
			idx++
		}
	}
	return positions, cultureOf
}

// Step dispatches the single dense-force kernel, reads back the
// force buffer, then integrates on the host via the shared Integrate
// function.
func (w *GPUDenseWorld) Step(tau float32) error {
	posBytes, cultureBytes := w.flatten()

	posBuf, err := w.gpu.CreateStorageBufferInit("positions", posBytes)
	if err != nil {
		return err
	}
	cultureBuf, err := w.gpu.CreateStorageBufferInit("cultures", cultureBytes)
	if err != nil {
		return err
	}
	meshBuf, err := w.gpu.CreateStorageBufferInit("mesh", meshToBytes(w.mesh))
	if err != nil {
		return err
	}
	forcesBuf, err := w.gpu.CreateStorageBufferInit("forces", make([]byte, w.n*8))
	if err != nil {
		return err
	}

	paramsBuf, err := w.gpu.CreateUniformBufferInit("dense_params", denseParamsBytes(w.n, w.aoe, w.numCultures))
	if err != nil {
		return err
	}

	bgl := w.pipeline.GetBindGroupLayout(0)
	bg, err := w.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: posBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: cultureBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: meshBuf, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: forcesBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return gpuErrorf("device", err)
	}

	encoder, err := w.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return gpuErrorf("device", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(w.pipeline)
	pass.SetBindGroup(0, bg, nil)
	workgroups := (w.n + 63) / 64
	pass.DispatchWorkgroups(workgroups, 1, 1)
	pass.End()

	readback, err := w.gpu.CreateReadbackBuffer("forces_readback", uint64(w.n*8))
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(forcesBuf, 0, readback, 0, uint64(w.n*8))
	w.gpu.Queue.Submit(encoder.Finish(nil))

	raw, err := w.gpu.ReadBuffer(readback, uint64(w.n*8))
	if err != nil {
		return err
	}
	forces := bytesToVec2Slice(raw)

	damping := float32(w.cfg.Damping)
	offset := 0
	for _, c := range w.cultures {
		Integrate(c, forces[offset:offset+len(c.Particles)], w.bound, damping, tau)
		offset += len(c.Particles)
	}

	w.tick++
	w.log.Debugf("gpu dense world %s tick %d complete", w.id, w.tick)
	return nil
}

// Render yields one RenderSample per particle, across every culture.
func (w *GPUDenseWorld) Render(draw func(RenderSample)) {
	for _, c := range w.cultures {
		for _, p := range c.Particles {
			draw(RenderSample{Color: c.Color, Pos: p.Pos})
		}
	}
}

// ExportGravityMesh returns the current gravity mesh as the §6 wire
// format JSON string.
func (w *GPUDenseWorld) ExportGravityMesh() (string, error) {
	return w.mesh.ExportJSON()
}

func denseParamsBytes(n uint32, aoe float32, numCultures uint32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], n)
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(aoe))
	binary.LittleEndian.PutUint32(buf[8:], numCultures)
	return buf
}
