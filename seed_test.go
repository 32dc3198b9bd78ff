package brot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLoadSeedsRoundTrip(t *testing.T) {
	seeds := []Seed{
		{X: -1.7685828383, Y: 0.0017381338, OrbitLength: 1_200_345},
		{X: 0.2501002003, Y: -0.4999172, OrbitLength: 4_999_999},
	}

	path := filepath.Join(t.TempDir(), "seeds.json")
	if err := SaveSeeds(path, seeds); err != nil {
		t.Fatalf("SaveSeeds() = %v", err)
	}

	got, err := LoadSeeds(path)
	if err != nil {
		t.Fatalf("LoadSeeds() = %v", err)
	}
	if len(got) != len(seeds) {
		t.Fatalf("loaded %d seeds, want %d", len(got), len(seeds))
	}
	for i := range seeds {
		if got[i] != seeds[i] {
			t.Errorf("seed %d = %v, want %v", i, got[i], seeds[i])
		}
	}
}

func TestSeedFileSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.json")
	if err := SaveSeeds(path, []Seed{{X: 1, Y: 2, OrbitLength: 3}}); err != nil {
		t.Fatalf("SaveSeeds() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, key := range []string{"pointList", "pointX", "pointY", "orbitLength"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("seed file missing %q key: %s", key, data)
		}
	}
}

func TestLoadSeedFilesConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	if err := SaveSeeds(first, []Seed{{X: 1, OrbitLength: 10}}); err != nil {
		t.Fatal(err)
	}
	if err := SaveSeeds(second, []Seed{{X: 2, OrbitLength: 20}, {X: 3, OrbitLength: 30}}); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSeedFiles(first, second)
	if err != nil {
		t.Fatalf("LoadSeedFiles() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d seeds, want 3", len(got))
	}
	if got[0].X != 1 || got[1].X != 2 || got[2].X != 3 {
		t.Errorf("seeds out of argument order: %v", got)
	}
}

func TestLoadSeedFilesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := SaveSeeds(path, nil); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSeedFiles(path)
	if !errors.Is(err, ErrNoSeeds) {
		t.Errorf("LoadSeedFiles(empty) = %v, want ErrNoSeeds", err)
	}

	_, err = LoadSeedFiles()
	if !errors.Is(err, ErrNoSeeds) {
		t.Errorf("LoadSeedFiles() = %v, want ErrNoSeeds", err)
	}
}

func TestLoadSeedsErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSeeds(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadSeeds(path); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestUnitString(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{999, "999"},
		{1_000, "1K"},
		{2_500_000, "2500K"},
		{1_000_000, "1M"},
		{10_000_000, "10M"},
		{5_000_000, "5M"},
		{1_000_000_000, "1G"},
		{123_456, "123456"},
	}
	for _, tt := range tests {
		if got := unitString(tt.n); got != tt.want {
			t.Errorf("unitString(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestSeedFileName(t *testing.T) {
	got := SeedFileName(10_000_000, 1_000_000, 5_000_000, 1700000000)
	want := "seeds-10M-1M_5M-1700000000.json"
	if got != want {
		t.Errorf("SeedFileName() = %q, want %q", got, want)
	}
}

func TestRenderFileName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"canonical", "seeds-10M-1M_5M-1700000000.json", "bbrot-10M-1M_5M.png"},
		{"with directory", "/data/runs/seeds-1K-2K_3K-99.json", "bbrot-1K-2K_3K.png"},
		{"foreign name keeps stem", "custom.json", "bbrot-custom.png"},
		{"too few parts keeps stem", "seeds-broken.json", "bbrot-seeds-broken.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderFileName(tt.path); got != tt.want {
				t.Errorf("RenderFileName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
