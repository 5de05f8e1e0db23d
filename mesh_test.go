package particlelife

import (
	"testing"
)

func TestGravityMesh_ExportImportRoundTrip(t *testing.T) {
	original := GravityMeshFromFlat(3, []float64{
		0, 0.5, -0.5,
		-0.5, 0, 0.5,
		0.5, -0.5, 0,
	})

	data, err := original.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	reimported, err := GravityMeshFromJSON([]byte(data))
	if err != nil {
		t.Fatalf("GravityMeshFromJSON failed: %v", err)
	}

	if reimported.C() != original.C() {
		t.Fatalf("expected C()=%d after round trip, got %d", original.C(), reimported.C())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if reimported.At(i, j) != original.At(i, j) {
				t.Errorf("mesh[%d][%d]: expected %v after round trip, got %v", i, j, original.At(i, j), reimported.At(i, j))
			}
		}
	}
}

func TestGravityMeshFromJSON_RejectsNonSquareRows(t *testing.T) {
	_, err := GravityMeshFromJSON([]byte(`[[0, 1], [1]]`))
	if err == nil {
		t.Fatal("expected an error for a non-square mesh, got nil")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("expected a *ConfigError, got %T", err)
	}
}

func TestGravityMeshFromJSON_RejectsEmptyMesh(t *testing.T) {
	_, err := GravityMeshFromJSON([]byte(`[]`))
	if err == nil {
		t.Fatal("expected an error for an empty mesh, got nil")
	}
}

func TestGravityMeshFromJSON_RejectsInvalidJSON(t *testing.T) {
	_, err := GravityMeshFromJSON([]byte(`not json`))
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
}

func TestNewRandomGravityMesh_EntriesWithinRange(t *testing.T) {
	mesh := NewRandomGravityMesh(4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			v := mesh.At(i, j)
			if v < -1 || v > 1 {
				t.Errorf("expected mesh[%d][%d] in [-1,1], got %v", i, j, v)
			}
		}
	}
}
