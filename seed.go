package brot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSeeds is returned when a seed file (or set of files) contains no
// usable seeds.
var ErrNoSeeds = errors.New("brot: no seeds")

// Seed is one retained boundary sample: a plane point whose first evaluation
// escaped after OrbitLength iterations. Field names match the pointList JSON
// schema, so seed files interchange with earlier tooling.
type Seed struct {
	X           float64 `json:"pointX"`
	Y           float64 `json:"pointY"`
	OrbitLength int32   `json:"orbitLength"`
}

// seedFile is the on-disk wrapper around a seed list.
type seedFile struct {
	PointList []Seed `json:"pointList"`
}

// SaveSeeds writes seeds to path as pointList JSON.
func SaveSeeds(path string, seeds []Seed) error {
	data, err := json.Marshal(seedFile{PointList: seeds})
	if err != nil {
		return fmt.Errorf("marshal seeds: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadSeeds reads one pointList JSON file.
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sf.PointList, nil
}

// LoadSeedFiles reads and concatenates several seed files, in argument
// order. Returns ErrNoSeeds if the combined list is empty.
func LoadSeedFiles(paths ...string) ([]Seed, error) {
	var seeds []Seed
	for _, p := range paths {
		s, err := LoadSeeds(p)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, s...)
	}
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	return seeds, nil
}

// unitString formats n with a G/M/K suffix when it divides evenly, so file
// names stay short for the round numbers the pipeline actually uses.
func unitString(n int64) string {
	units := []struct {
		div  int64
		unit string
	}{
		{1_000_000_000, "G"},
		{1_000_000, "M"},
		{1_000, "K"},
	}
	for _, u := range units {
		if n%u.div == 0 && n/u.div > 0 {
			return fmt.Sprintf("%d%s", n/u.div, u.unit)
		}
	}
	return fmt.Sprintf("%d", n)
}

// SeedFileName builds the canonical seed file name, encoding the sampling
// parameters and a timestamp: seeds-10M-1M_5M-1700000000.json for ten
// million samples filtered to orbit lengths in (1M, 5M).
func SeedFileName(samples int, minIters, maxIters int32, unix int64) string {
	return fmt.Sprintf("seeds-%s-%s_%s-%d.json",
		unitString(int64(samples)), unitString(int64(minIters)), unitString(int64(maxIters)), unix)
}

// RenderFileName derives the output image name from a seed file name,
// dropping the timestamp: seeds-10M-1M_5M-1700000000.json becomes
// bbrot-10M-1M_5M.png. Unrecognized names keep their stem.
func RenderFileName(seedPath string) string {
	base := filepath.Base(seedPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "-")
	if len(parts) >= 3 && parts[0] == "seeds" {
		return "bbrot-" + strings.Join(parts[1:len(parts)-1], "-") + ".png"
	}
	return "bbrot-" + stem + ".png"
}
