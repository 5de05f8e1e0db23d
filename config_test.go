package particlelife

import "testing"

func validConfig() Config {
	return Config{
		Bound:       BoundConfig{W: 1000, H: 800},
		NumCultures: 3,
		CultureSize: 10,
		AoE2:        100,
		Theta:       0.9,
		Damping:     0.5,
		CursorAoE2:  100,
		CursorForce: 10,
	}
}

func TestConfig_ValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected a valid config to pass, got %v", err)
	}
}

func TestConfig_ValidateRejectsZeroCultures(t *testing.T) {
	cfg := validConfig()
	cfg.NumCultures = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for num_cultures=0, got nil")
	}
}

func TestConfig_ValidateRejectsZeroCultureSize(t *testing.T) {
	cfg := validConfig()
	cfg.CultureSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for culture_size=0, got nil")
	}
}

func TestConfig_ValidateRejectsNonPositiveAoE(t *testing.T) {
	cfg := validConfig()
	cfg.AoE2 = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for aoe2=0, got nil")
	}
	cfg.AoE2 = -5
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for negative aoe2, got nil")
	}
}

func TestConfig_ValidateRejectsDampingOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Damping = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for damping=0, got nil")
	}
	cfg.Damping = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for damping>1, got nil")
	}
}

func TestConfig_ValidateRejectsMeshShapeMismatch(t *testing.T) {
	cfg := validConfig()
	cfg.GravityMesh = [][]float64{{0, 1}, {1, 0}} // 2x2, but NumCultures=3
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a mesh shape mismatch, got nil")
	}
}

func TestConfig_ValidateRejectsNonSquareMesh(t *testing.T) {
	cfg := validConfig()
	cfg.NumCultures = 2
	cfg.GravityMesh = [][]float64{{0, 1}, {1}} // ragged row
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a ragged mesh, got nil")
	}
}

func TestConfig_ValidateRejectsGPUWithInteractive(t *testing.T) {
	cfg := validConfig()
	cfg.UseGPU = true
	cfg.Interactive = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error when both use_gpu and interactive are set, got nil")
	}
}

func TestConfig_ValidateAllowsGPUWithoutInteractive(t *testing.T) {
	cfg := validConfig()
	cfg.UseGPU = true
	cfg.Interactive = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected use_gpu without interactive to be valid, got %v", err)
	}
}

func TestConfig_ValidateAcceptsMeshMagnitudeAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.GravityMesh = [][]float64{{0, 5, -5}, {5, 0, 5}, {-5, 5, 0}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected mesh coefficient magnitude to be unchecked, got %v", err)
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected embedded defaults to be a valid config, got %v", err)
	}
}
