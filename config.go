package particlelife

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the frozen simulation configuration of §6: every field is
// read once at World construction and never changes for the world's
// lifetime. Changing num_cultures requires building a new World.
type Config struct {
	Bound        BoundConfig `yaml:"bound"`
	NumCultures  int         `yaml:"num_cultures"`
	CultureSize  int         `yaml:"culture_size"`
	AoE2         float64     `yaml:"aoe2"`
	Theta        float64     `yaml:"theta"`
	Damping      float64     `yaml:"damping"`
	CursorAoE2   float64     `yaml:"cursor_aoe2"`
	CursorForce  float64     `yaml:"cursor_force"`
	GravityMesh  [][]float64 `yaml:"gravity_mesh"`
	UseGPU       bool        `yaml:"use_gpu"`
	Interactive  bool        `yaml:"interactive"`

	// Logger is wired in by the caller, not loaded from YAML; it is
	// nil-safe (NewWorld installs a NopLogger when unset).
	Logger Logger `yaml:"-"`
}

// BoundConfig is the world rectangle, in world units (§6).
type BoundConfig struct {
	W float32 `yaml:"w"`
	H float32 `yaml:"h"`
}

// LoadConfig loads configuration from a YAML file, merged over the
// embedded defaults.yaml (pattern: unmarshal defaults first, then
// unmarshal the override file into the same struct so it only
// touches fields it mentions). path == "" uses only the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("particlelife: parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("particlelife: reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("particlelife: parsing config file: %w", err)
		}
	}
	return cfg, nil
}

// Validate rejects the configuration errors enumerated in §7:
// C == 0, S == 0, non-positive aoe2, and (if a mesh was supplied) a
// shape mismatch against num_cultures. Mesh coefficient magnitude is
// intentionally unchecked, matching the reference's silent
// acceptance of any magnitude (§9 Open Questions).
func (c *Config) Validate() error {
	if c.NumCultures <= 0 {
		return configErrorf("num_cultures", "must be >= 1, got %d", c.NumCultures)
	}
	if c.CultureSize <= 0 {
		return configErrorf("culture_size", "must be >= 1, got %d", c.CultureSize)
	}
	if c.AoE2 <= 0 {
		return configErrorf("aoe2", "must be > 0, got %g", c.AoE2)
	}
	if c.CursorAoE2 < 0 {
		return configErrorf("cursor_aoe2", "must be >= 0, got %g", c.CursorAoE2)
	}
	if c.CursorForce < 0 {
		return configErrorf("cursor_force", "must be >= 0, got %g", c.CursorForce)
	}
	if c.Damping <= 0 || c.Damping > 1 {
		return configErrorf("damping", "must be in (0, 1], got %g", c.Damping)
	}
	if c.GravityMesh != nil {
		n := len(c.GravityMesh)
		if n != c.NumCultures {
			return configErrorf("gravity_mesh", "mesh has %d rows, want %d (num_cultures)", n, c.NumCultures)
		}
		for i, row := range c.GravityMesh {
			if len(row) != n {
				return configErrorf("gravity_mesh", "row %d has length %d, want %d", i, len(row), n)
			}
		}
	}
	if c.UseGPU && c.Interactive {
		// Open question per design notes: the reference GPU path
		// omits cursor interaction. Rather than guess, we require the
		// caller to disable Interactive explicitly when UseGPU is set.
		return configErrorf("interactive", "cursor interaction is not supported on the GPU path; set interactive: false when use_gpu: true")
	}
	return nil
}
