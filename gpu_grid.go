package particlelife

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/arborfield/particlelife/shaders"
)

// GPUGridWorld is the uniform-grid GPU force path (§4.2): particles
// from every culture are flattened into one buffer, binned by a
// three-pass count/offsets/scatter dispatch chain, then forced by a
// 3x3-neighborhood compute kernel. Integration still runs on the host
// using the shared Integrate function, so CPU and GPU paths share
// identical boundary/damping semantics; only the spatial index and
// force summation differ (§2).
//
// Cursor interaction is never applied here: §9's open question is
// resolved by construction-time validation in Config.Validate, which
// rejects UseGPU && Interactive.
type GPUGridWorld struct {
	id  string
	cfg Config
	log Logger

	gpu   *GPUDevice
	bound Rect
	aoe   float32

	cultures []*Culture
	mesh     *GravityMesh

	countPipeline   *wgpu.ComputePipeline
	scatterPipeline *wgpu.ComputePipeline
	forcePipeline   *wgpu.ComputePipeline

	n           uint32
	numCultures uint32

	tick uint64
}

// NewGPUGridWorld constructs cultures and the GPU compute pipelines
// for the grid path. Any GPU construction failure is returned as a
// *GPUError; per §7 this is fatal and not retried.
func NewGPUGridWorld(cfg Config) (*GPUGridWorld, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.UseGPU {
		return nil, configErrorf("use_gpu", "NewGPUGridWorld requires use_gpu: true")
	}

	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}

	dev, err := NewGPUDevice()
	if err != nil {
		return nil, err
	}

	countMod, err := dev.CreateShaderModule("bin_count", shaders.BinCountWGSL)
	if err != nil {
		dev.Release()
		return nil, err
	}
	scatterMod, err := dev.CreateShaderModule("bin_scatter", shaders.BinScatterWGSL)
	if err != nil {
		dev.Release()
		return nil, err
	}
	forceMod, err := dev.CreateShaderModule("grid_force", shaders.GridForceWGSL)
	if err != nil {
		dev.Release()
		return nil, err
	}

	countPipeline, err := dev.CreateComputePipeline("bin_count", countMod, "main")
	if err != nil {
		dev.Release()
		return nil, err
	}
	scatterPipeline, err := dev.CreateComputePipeline("bin_scatter", scatterMod, "main")
	if err != nil {
		dev.Release()
		return nil, err
	}
	forcePipeline, err := dev.CreateComputePipeline("grid_force", forceMod, "main")
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

	w := &GPUGridWorld{
		id:              uuid.NewString(),
		cfg:             cfg,
		log:             log,
		gpu:             dev,
		bound:           bound,
		aoe:             float32(math.Sqrt(cfg.AoE2)),
		cultures:        cultures,
		mesh:            mesh,
		countPipeline:   countPipeline,
		scatterPipeline: scatterPipeline,
		forcePipeline:   forcePipeline,
		n:               uint32(cfg.NumCultures * cfg.CultureSize),
		numCultures:     uint32(cfg.NumCultures),
	}
	log.Infof("gpu grid world %s constructed: %d cultures x %d particles", w.id, cfg.NumCultures, cfg.CultureSize)
	return w, nil
}

// ID returns the world's instance identifier.
func (w *GPUGridWorld) ID() string { return w.id }

// Tick returns the number of Step calls completed so far.
func (w *GPUGridWorld) Tick() uint64 { return w.tick }

// Release frees the underlying GPU device handle.
func (w *GPUGridWorld) Release() { w.gpu.Release() }

func (w *GPUGridWorld) flatten() ([]mgl32.Vec2, []uint32) {
	positions := make([]mgl32.Vec2, 0, w.n)
	cultureOf := make([]uint32, 0, w.n)
	for i, c := range w.cultures {
		for _, p := range c.Particles {
			positions = append(positions, p.Pos)
			cultureOf = append(cultureOf, uint32(i))
		}
	}
	return positions, cultureOf
}

// Step runs the four-stage chain (count -> offsets -> scatter ->
// force) across three command encoders: the count pass, a copy of the
// counts back to the host for the offsets prefix sum, then the
// scatter and force passes together. It blocks until the force buffer
// is readable, then integrates on the host using the same Integrate
// function the CPU path uses.
func (w *GPUGridWorld) Step(tau float32) error {
	positions, cultureOf := w.flatten()

	grid := NewUniformGrid(w.bound, w.aoe)
	cellCount := uint32(grid.GridWidth() * grid.GridWidth())

	posBytes := vec2SliceToBytes(positions)
	cultureBytes := u32SliceToBytes(cultureOf)

	posBuf, err := w.gpu.CreateStorageBufferInit("positions", posBytes)
	if err != nil {
		return err
	}
	cultureBuf, err := w.gpu.CreateStorageBufferInit("cultures", cultureBytes)
	if err != nil {
		return err
	}
	zeroCounts := make([]byte, cellCount*4)
	countsBuf, err := w.gpu.CreateStorageBufferInit("counts", zeroCounts)
	if err != nil {
		return err
	}
	cellOfBuf, err := w.gpu.CreateStorageBufferInit("cell_of", make([]byte, w.n*4))
	if err != nil {
		return err
	}

	gridParams := gridParamsBytes(w.n, uint32(grid.GridWidth()), grid.CellLength(), w.aoe, w.numCultures)
	gridParamsBuf, err := w.gpu.CreateUniformBufferInit("grid_params", gridParams)
	if err != nil {
		return err
	}

	countBGL := w.countPipeline.GetBindGroupLayout(0)
	countBG, err := w.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: countBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gridParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: posBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: countsBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: cellOfBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return gpuErrorf("device", err)
	}

	encoder, err := w.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return gpuErrorf("device", err)
	}

	workgroups := (w.n + 63) / 64

	countPass := encoder.BeginComputePass(nil)
	countPass.SetPipeline(w.countPipeline)
	countPass.SetBindGroup(0, countBG, nil)
	countPass.DispatchWorkgroups(workgroups, 1, 1)
	countPass.End()

	w.gpu.Queue.Submit(encoder.Finish(nil))

	// Offsets: a serial exclusive prefix sum over G cells, computed
	// host-side (§4.2 pass 2) since G is small relative to N and a
	// second compute dispatch would not pay for itself.
	countsReadback, err := w.gpu.CreateReadbackBuffer("counts_readback", uint64(cellCount*4))
	if err != nil {
		return err
	}
	copyEncoder, err := w.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return gpuErrorf("device", err)
	}
	copyEncoder.CopyBufferToBuffer(countsBuf, 0, countsReadback, 0, uint64(cellCount*4))
	w.gpu.Queue.Submit(copyEncoder.Finish(nil))

	countsRaw, err := w.gpu.ReadBuffer(countsReadback, uint64(cellCount*4))
	if err != nil {
		return err
	}
	counts := bytesToU32Slice(countsRaw)
	offsets := make([]uint32, cellCount+1)
	var running uint32
	for c := uint32(0); c < cellCount; c++ {
		offsets[c] = running
		running += counts[c]
	}
	offsets[cellCount] = running

	offsetsBuf, err := w.gpu.CreateStorageBufferInit("offsets", u32SliceToBytes(offsets))
	if err != nil {
		return err
	}
	cursorBuf, err := w.gpu.CreateStorageBufferInit("cursor", make([]byte, cellCount*4))
	if err != nil {
		return err
	}
	binsBuf, err := w.gpu.CreateStorageBufferInit("bins", make([]byte, w.n*4))
	if err != nil {
		return err
	}

	scatterBGL := w.scatterPipeline.GetBindGroupLayout(0)
	scatterBG, err := w.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: scatterBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gridParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: cellOfBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: offsetsBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: cursorBuf, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: binsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return gpuErrorf("device", err)
	}

	meshBuf, err := w.gpu.CreateStorageBufferInit("mesh", meshToBytes(w.mesh))
	if err != nil {
		return err
	}
	forcesBuf, err := w.gpu.CreateStorageBufferInit("forces", make([]byte, w.n*8))
	if err != nil {
		return err
	}

	forceBGL := w.forcePipeline.GetBindGroupLayout(0)
	forceBG, err := w.gpu.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: forceBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gridParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: posBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: cultureBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: offsetsBuf, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: binsBuf, Size: wgpu.WholeSize},
			{Binding: 5, Buffer: meshBuf, Size: wgpu.WholeSize},
			{Binding: 6, Buffer: forcesBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return gpuErrorf("device", err)
	}

	encoder2, err := w.gpu.Device.CreateCommandEncoder(nil)
	if err != nil {
		return gpuErrorf("device", err)
	}
	scatterPass := encoder2.BeginComputePass(nil)
	scatterPass.SetPipeline(w.scatterPipeline)
	scatterPass.SetBindGroup(0, scatterBG, nil)
	scatterPass.DispatchWorkgroups(workgroups, 1, 1)
	scatterPass.End()

	forcePass := encoder2.BeginComputePass(nil)
	forcePass.SetPipeline(w.forcePipeline)
	forcePass.SetBindGroup(0, forceBG, nil)
	forcePass.DispatchWorkgroups(workgroups, 1, 1)
	forcePass.End()

	forcesReadback, err := w.gpu.CreateReadbackBuffer("forces_readback", uint64(w.n*8))
	if err != nil {
		return err
	}
	encoder2.CopyBufferToBuffer(forcesBuf, 0, forcesReadback, 0, uint64(w.n*8))
	w.gpu.Queue.Submit(encoder2.Finish(nil))

	forcesRaw, err := w.gpu.ReadBuffer(forcesReadback, uint64(w.n*8))
	if err != nil {
		return err
	}
	forces := bytesToVec2Slice(forcesRaw)

	damping := float32(w.cfg.Damping)
	offset := 0
	for _, c := range w.cultures {
		Integrate(c, forces[offset:offset+len(c.Particles)], w.bound, damping, tau)
		offset += len(c.Particles)
	}

	w.tick++
	w.log.Debugf("gpu grid world %s tick %d complete", w.id, w.tick)
	return nil
}

// Render yields one RenderSample per particle, across every culture.
func (w *GPUGridWorld) Render(draw func(RenderSample)) {
	for _, c := range w.cultures {
		for _, p := range c.Particles {
			draw(RenderSample{Color: c.Color, Pos: p.Pos})
		}
	}
}

// ExportGravityMesh returns the current gravity mesh as the §6 wire
// format JSON string.
func (w *GPUGridWorld) ExportGravityMesh() (string, error) {
	return w.mesh.ExportJSON()
}

func vec2SliceToBytes(v []mgl32.Vec2) []byte {
	buf := make([]byte, len(v)*8)
	for i, p := range v {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(p.X()))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(p.Y()))
	}
	return buf
}

func bytesToVec2Slice(b []byte) []mgl32.Vec2 {
	n := len(b) / 8
	out := make([]mgl32.Vec2, n)
	for i := 0; i < n; i++ {
		x := math.Float32frombits(binary.LittleEndian.Uint32(b[i*8:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(b[i*8+4:]))
		out[i] = mgl32.Vec2{x, y}
	}
	return out
}

func u32SliceToBytes(v []uint32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], x)
	}
	return buf
}

func bytesToU32Slice(b []byte) []uint32 {
	n := len(b) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func gridParamsBytes(n, gridW uint32, cellLen, aoe float32, numCultures uint32) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:], n)
	binary.LittleEndian.PutUint32(buf[4:], gridW)
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(cellLen))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(aoe))
	binary.LittleEndian.PutUint32(buf[16:], numCultures)
	return buf
}

func meshToBytes(m *GravityMesh) []byte {
	c := m.C()
	buf := make([]byte, c*c*4)
	idx := 0
	for i := 0; i < c; i++ {
		row := m.Row(i)
		for j := 0; j < c; j++ {
			binary.LittleEndian.PutUint32(buf[idx:], math.Float32bits(float32(row[j])))
			idx += 4
		}
	}
	return buf
}
