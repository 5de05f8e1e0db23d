// Command particlelife runs the simulation core headlessly: window,
// event loop, and rendering are out of scope collaborators (§1), so
// this harness drives World.Step in a plain loop and reports through
// logging, CSV telemetry, and an optional debug HTTP server instead
// of a screen.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/joho/godotenv"

	"github.com/arborfield/particlelife"
	"github.com/arborfield/particlelife/httpdebug"
	"github.com/arborfield/particlelife/metrics"
	"github.com/arborfield/particlelife/telemetry"
)

// simpArg mirrors the §6 CLI surface's JSON `-simp` argument.
type simpArg struct {
	NumCultures int         `json:"num_cultures"`
	CultureSize int         `json:"culture_size"`
	AoE         float64     `json:"aoe"`
	Damping     float64     `json:"damping"`
	Mesh        [][]float64 `json:"mesh"`
}

func main() {
	_ = godotenv.Load()

	numCultures := flag.Int("c", 0, "number of cultures (overrides config/-simp)")
	cultureSize := flag.Int("p", 0, "particles per culture (overrides config/-simp)")
	aoe := flag.Float64("a", 0, "area-of-effect radius (overrides config/-simp)")
	damping := flag.Float64("d", 0, "damping factor (overrides config/-simp)")
	meshFlag := flag.String("mesh", "", "path to a gravity mesh JSON file")
	useGPU := flag.Bool("gpu", false, "use the GPU force path instead of CPU Barnes-Hut")
	denseGPU := flag.Bool("dense", false, "with -gpu, use the dense O(n^2) fallback instead of the uniform-grid path")
	interactive := flag.Bool("interactive", true, "enable cursor interaction (CPU path only)")
	configPath := flag.String("config", "", "path to a YAML config file, merged over embedded defaults")
	ticks := flag.Int("ticks", 0, "number of ticks to run (0 = run until SIGINT/Q)")
	debugAddr := flag.String("debug-addr", "", "address for the debug HTTP server (empty disables it)")
	simp := flag.String("simp", "", "JSON {num_cultures,culture_size,aoe,damping,mesh}")
	asciiOut := flag.Bool("ascii", false, "print an ASCII density histogram every tick")
	outputDir := flag.String("output", "", "directory for CSV telemetry (empty disables it)")
	flag.Parse()

	cfg, err := particlelife.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "particlelife:", err)
		os.Exit(1)
	}

	if *simp != "" {
		var s simpArg
		if err := json.Unmarshal([]byte(*simp), &s); err != nil {
			fmt.Fprintln(os.Stderr, "particlelife: invalid -simp JSON:", err)
			os.Exit(1)
		}
		if s.NumCultures > 0 {
			cfg.NumCultures = s.NumCultures
		}
		if s.CultureSize > 0 {
			cfg.CultureSize = s.CultureSize
		}
		if s.AoE > 0 {
			cfg.AoE2 = s.AoE * s.AoE
		}
		if s.Damping > 0 {
			cfg.Damping = s.Damping
		}
		if s.Mesh != nil {
			cfg.GravityMesh = s.Mesh
		}
	}

	if *numCultures > 0 {
		cfg.NumCultures = *numCultures
	}
	if *cultureSize > 0 {
		cfg.CultureSize = *cultureSize
	}
	if *aoe > 0 {
		cfg.AoE2 = *aoe * *aoe
	}
	if *damping > 0 {
		cfg.Damping = *damping
	}
	if *meshFlag != "" {
		data, err := os.ReadFile(*meshFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "particlelife: reading mesh file:", err)
			os.Exit(1)
		}
		var rows [][]float64
		if err := json.Unmarshal(data, &rows); err != nil {
			fmt.Fprintln(os.Stderr, "particlelife: invalid mesh JSON:", err)
			os.Exit(1)
		}
		cfg.GravityMesh = rows
		cfg.NumCultures = len(rows)
	}
	cfg.UseGPU = *useGPU
	cfg.Interactive = *interactive && !*useGPU

	logger := particlelife.NewDefaultLogger("particlelife", os.Getenv("PARTICLELIFE_DEBUG") != "")
	cfg.Logger = logger

	collector, err := telemetry.NewCollector(*outputDir)
	if err != nil {
		logger.Errorf("telemetry init failed: %v", err)
		os.Exit(1)
	}
	defer collector.Close()

	// The three world kinds share the render/mesh-export/tick contract
	// but differ in Step's signature (the CPU path takes cursor state
	// and never fails; the GPU paths take neither and can fail), so
	// main dispatches through closures rather than a single interface.
	var (
		cpuWorld     *particlelife.World
		meshExporter httpdebug.MeshExporter
		stepFn       func() error
		tickFn       func() uint64
		renderFn     func(func(particlelife.RenderSample))
		releaseFn    = func() {}
	)

	switch {
	case cfg.UseGPU && *denseGPU:
		gw, err := particlelife.NewGPUDenseWorld(*cfg)
		if err != nil {
			logger.Errorf("gpu dense world construction failed: %v", err)
			os.Exit(1)
		}
		meshExporter = gw
		stepFn = func() error { return gw.Step(tauStep) }
		tickFn = gw.Tick
		renderFn = gw.Render
		releaseFn = gw.Release
	case cfg.UseGPU:
		gw, err := particlelife.NewGPUGridWorld(*cfg)
		if err != nil {
			logger.Errorf("gpu grid world construction failed: %v", err)
			os.Exit(1)
		}
		meshExporter = gw
		stepFn = func() error { return gw.Step(tauStep) }
		tickFn = gw.Tick
		renderFn = gw.Render
		releaseFn = gw.Release
	default:
		world, err := particlelife.NewWorld(*cfg)
		if err != nil {
			logger.Errorf("world construction failed: %v", err)
			os.Exit(1)
		}
		cpuWorld = world
		meshExporter = world
		stepFn = func() error { world.Step(tauStep, particlelife.CursorNone, mgl32.Vec2{}); return nil }
		tickFn = world.Tick
		renderFn = world.Render
	}
	defer releaseFn()

	for i := 0; i < cfg.NumCultures; i++ {
		metrics.ParticleCount.WithLabelValues(fmt.Sprintf("%d", i)).Set(float64(cfg.CultureSize))
	}

	if *debugAddr != "" {
		srv := httpdebug.NewServer(meshExporter)
		srv.Addr = *debugAddr
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warnf("debug server stopped: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var tick int
	for {
		select {
		case <-ctx.Done():
			logger.Infof("shutting down on signal (Q/SIGINT)")
			os.Exit(0)
		default:
		}

		stepStart := time.Now()
		if err := stepFn(); err != nil {
			logger.Errorf("step failed: %v", err)
			metrics.GPUErrorsTotal.WithLabelValues("step").Inc()
			os.Exit(1)
		}
		metrics.TickDuration.Observe(time.Since(stepStart).Seconds())
		metrics.TicksTotal.Inc()
		tick++

		if *asciiOut {
			printASCII(renderFn)
		}

		// Per-particle force/speed sampling reads host-side particle
		// slices that only the CPU world exposes; the GPU paths keep
		// particle state device-side between ticks.
		if cpuWorld != nil {
			speeds, forceNorms := sampleStats(cpuWorld)
			if len(speeds) > 0 {
				metrics.MeanSpeed.Set(mean(speeds))
			}
			if collector != nil {
				if err := collector.Summarize(tickFn(), speeds, forceNorms); err != nil {
					logger.Warnf("telemetry write failed: %v", err)
				}
			}
		}

		if *ticks > 0 && tick >= *ticks {
			break
		}
	}

	os.Exit(0)
}

const tauStep = float32(1.0 / 60.0)

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStats draws a bounded random sample of particles per tick so
// telemetry overhead does not scale with S*C at large particle
// counts.
func sampleStats(w *particlelife.World) (speeds, forceNorms []float64) {
	const sampleSize = 256
	forces := w.Forces()
	for ci, c := range w.Cultures() {
		n := len(c.Particles)
		if n == 0 {
			continue
		}
		take := sampleSize
		if take > n {
			take = n
		}
		for k := 0; k < take; k++ {
			idx := rand.Intn(n)
			speeds = append(speeds, float64(c.Particles[idx].Vel.Len()))
			forceNorms = append(forceNorms, float64(forces[ci][idx].Len()))
		}
	}
	return speeds, forceNorms
}

// printASCII renders a coarse density histogram of the world to
// stdout, a headless substitute for the out-of-scope colored-rectangle
// renderer (§1).
func printASCII(render func(func(particlelife.RenderSample))) {
	const cols, rows = 80, 24
	grid := make([][]int, rows)
	for i := range grid {
		grid[i] = make([]int, cols)
	}

	var maxW, maxH float32
	render(func(s particlelife.RenderSample) {
		if s.Pos.X() > maxW {
			maxW = s.Pos.X()
		}
		if s.Pos.Y() > maxH {
			maxH = s.Pos.Y()
		}
	})
	if maxW == 0 {
		maxW = 1
	}
	if maxH == 0 {
		maxH = 1
	}

	render(func(s particlelife.RenderSample) {
		x := int(s.Pos.X() / maxW * float32(cols-1))
		y := int(s.Pos.Y() / maxH * float32(rows-1))
		if x >= 0 && x < cols && y >= 0 && y < rows {
			grid[y][x]++
		}
	})

	ramp := " .:-=+*#%@"
	var b strings.Builder
	for _, row := range grid {
		for _, count := range row {
			idx := count
			if idx >= len(ramp) {
				idx = len(ramp) - 1
			}
			b.WriteByte(ramp[idx])
		}
		b.WriteByte('\n')
	}
	fmt.Println(b.String())
}
