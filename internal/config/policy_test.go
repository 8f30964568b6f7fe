package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePolicy(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestLoadIntakePolicyTOML(t *testing.T) {
	path := writePolicy(t, "policy.toml", `
species = ["Tulsi", "Giloy"]
allow_test_coordinate = false

[geo_fence]
min_lat = 26.5
max_lat = 27.0
min_lon = 80.5
max_lon = 81.5
`)

	policy, err := LoadIntakePolicy(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(policy.Species) != 2 || policy.Species[1] != "Giloy" {
		t.Fatalf("unexpected species %v", policy.Species)
	}
	if policy.Fence.MinLat != 26.5 || policy.Fence.MaxLon != 81.5 {
		t.Fatalf("unexpected fence %+v", policy.Fence)
	}
	if policy.AllowTestCoordinate == nil || *policy.AllowTestCoordinate {
		t.Fatal("expected test coordinate to be disabled")
	}
}

func TestLoadIntakePolicyPartialYAML(t *testing.T) {
	path := writePolicy(t, "policy.yaml", "species:\n  - Brahmi\n")

	policy, err := LoadIntakePolicy(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !policy.Fence.IsZero() || policy.AllowTestCoordinate != nil {
		t.Fatalf("absent sections must stay empty: %+v", policy)
	}
}

func TestLoadIntakePolicyErrors(t *testing.T) {
	cases := map[string]string{
		"inverted.toml": "[geo_fence]\nmin_lat = 27.0\nmax_lat = 26.0\nmin_lon = 80.0\nmax_lon = 81.0\n",
		"range.toml":    "[geo_fence]\nmin_lat = -95.0\nmax_lat = 26.0\nmin_lon = 80.0\nmax_lon = 81.0\n",
		"blank.toml":    "species = [\"Tulsi\", \" \"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadIntakePolicy(writePolicy(t, name, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := LoadIntakePolicy(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
