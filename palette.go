package brot

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is a color ramp for rasterization. Built palettes hold
// PaletteLength ramp entries plus one sentinel entry at index
// PaletteLength: HistIndex can legitimately return an index one past the
// ramp (when count == maxCount exactly), and the sentinel makes that access
// safe instead of silently remapping it. Pass the ramp length, len(p)-1,
// as paletteLen to the mapping functions.
type Palette []color.RGBA

// RampLen returns the number of ramp entries, excluding the sentinel.
func (p Palette) RampLen() int { return len(p) - 1 }

// withSentinel appends the sentinel entry: a copy of the last ramp color,
// so a saturated bin renders like a full one.
func withSentinel(p Palette) Palette {
	return append(p, p[len(p)-1])
}

// MandelPalette returns the classic magenta ramp: entry n is (n, 0, n).
// Entry 0 is black, the in-set color under escape-time mapping.
func MandelPalette() Palette {
	p := make(Palette, 0, PaletteLength+1)
	for n := 0; n < PaletteLength; n++ {
		c := uint8(n)
		p = append(p, color.RGBA{R: c, G: 0, B: c, A: 255})
	}
	return withSentinel(p)
}

// FlamePalette returns the black-red-yellow-white ramp used for orbit
// histograms: each channel saturates in turn as 3n crosses 255 and 510.
func FlamePalette() Palette {
	p := make(Palette, 0, PaletteLength+1)
	for n := 0; n < PaletteLength; n++ {
		r := min(255, 3*n)
		g := min(255, max(0, 3*n-r))
		b := min(255, max(0, 3*n-r-g))
		p = append(p, color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255})
	}
	return withSentinel(p)
}

// GradientPalette builds a ramp by blending between the given stops in Hcl
// space, which keeps perceived lightness monotonic where the stops are.
// Panics if fewer than two stops are given.
func GradientPalette(stops ...colorful.Color) Palette {
	if len(stops) < 2 {
		panic("brot: gradient palette needs at least two stops")
	}
	p := make(Palette, 0, PaletteLength+1)
	segs := len(stops) - 1
	for n := 0; n < PaletteLength; n++ {
		t := float64(n) / float64(PaletteLength-1) * float64(segs)
		s := int(t)
		if s >= segs {
			s = segs - 1
		}
		c := stops[s].BlendHcl(stops[s+1], t-float64(s)).Clamped()
		r, g, b := c.RGB255()
		p = append(p, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return withSentinel(p)
}

// IcePalette returns a dark-blue-to-white gradient ramp, a colder
// alternative to FlamePalette for histogram rendering.
func IcePalette() Palette {
	return GradientPalette(
		colorful.Color{R: 0.00, G: 0.01, B: 0.05},
		colorful.Color{R: 0.10, G: 0.25, B: 0.65},
		colorful.Color{R: 0.45, G: 0.80, B: 0.95},
		colorful.Color{R: 1.00, G: 1.00, B: 1.00},
	)
}

// EscapeIndex maps an iteration count to a palette ramp index: in-set
// points (iters == maxIters) map to entry 0, escaped points cycle through
// the ramp modulo paletteLen.
func EscapeIndex(iters, maxIters int32, paletteLen int) int {
	if iters == maxIters {
		return 0
	}
	return int(iters) % paletteLen
}

// HistIndex maps a histogram count to a palette index through a square-root
// tone curve: idx = min(paletteLen, floor(sqrt(count/maxCount)*paletteLen)).
// The tone curve lifts the heavy tail of orbit histograms into visible range.
//
// When count == maxCount the index is exactly paletteLen — one past the
// ramp. That boundary is part of the contract (built palettes carry a
// sentinel entry for it); it is not folded back into the ramp here.
// A maxCount <= 0 is treated as 1, so an all-zero histogram maps to entry 0.
func HistIndex(count, maxCount int32, paletteLen int) int {
	if maxCount <= 0 {
		maxCount = 1
	}
	ratio := float64(count) / float64(maxCount)
	idx := int(math.Sqrt(ratio) * float64(paletteLen))
	if idx > paletteLen {
		idx = paletteLen
	}
	return idx
}
