// Package telemetry is a pure observer of World state: it never feeds
// back into the simulation, only summarizes it per tick and exports
// CSV, the way pthm-soup's telemetry package observes its own
// simulation loop.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// TickStats is one CSV row of per-tick diagnostics (§12):
// ParticleCount is the number of speed samples the row summarizes
// (len(speeds) passed to Summarize), which is the world's particle
// count only when the caller samples every particle.
type TickStats struct {
	Tick          uint64  `csv:"tick"`
	ParticleCount int     `csv:"particle_count"`
	MeanSpeed     float64 `csv:"mean_speed"`
	StdDevSpeed   float64 `csv:"stddev_speed"`
	MeanForceNorm float64 `csv:"mean_force_norm"`
}

// Collector accumulates per-tick samples and can flush them to a CSV
// file. It holds no reference to a World; callers compute the
// samples (speeds, force norms) and hand them to Summarize, keeping the
// package a pure, decoupled observer.
type Collector struct {
	dir  string
	file *os.File

	headerWritten bool
}

// NewCollector creates the telemetry output directory and opens
// tick_stats.csv. dir == "" disables telemetry entirely; all methods
// become no-ops, matching OutputManager's nil-receiver pattern.
func NewCollector(dir string) (*Collector, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("particlelife/telemetry: creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "tick_stats.csv"))
	if err != nil {
		return nil, fmt.Errorf("particlelife/telemetry: creating tick_stats.csv: %w", err)
	}
	return &Collector{dir: dir, file: f}, nil
}

// Summarize computes mean/stddev speed via gonum/stat and writes one
// TickStats row.
func (c *Collector) Summarize(tick uint64, speeds, forceNorms []float64) error {
	if c == nil {
		return nil
	}
	mean, stddev := stat.MeanStdDev(speeds, nil)
	meanForce := stat.Mean(forceNorms, nil)

	row := TickStats{
		Tick:          tick,
		ParticleCount: len(speeds),
		MeanSpeed:     mean,
		StdDevSpeed:   stddev,
		MeanForceNorm: meanForce,
	}
	records := []TickStats{row}

	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.file); err != nil {
			return fmt.Errorf("particlelife/telemetry: writing tick_stats.csv: %w", err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.file); err != nil {
		return fmt.Errorf("particlelife/telemetry: writing tick_stats.csv: %w", err)
	}
	return nil
}

// Dir returns the telemetry output directory, or "" when disabled.
func (c *Collector) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Close flushes and closes the underlying CSV file.
func (c *Collector) Close() error {
	if c == nil || c.file == nil {
		return nil
	}
	return c.file.Close()
}
