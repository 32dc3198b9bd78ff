package brot

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// EscapeImage rasterizes a classification grid through a palette using the
// escape-time mapping: in-set points take ramp entry 0, escaped points cycle
// through the ramp by iteration count. iters must be grid row-major
// (yi*steps + xi); the result is already in display orientation.
func EscapeImage(iters []int32, steps int, maxIters int32, pal Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, steps, steps))
	rampLen := pal.RampLen()
	for yi := 0; yi < steps; yi++ {
		for xi := 0; xi < steps; xi++ {
			img.SetRGBA(xi, yi, pal[EscapeIndex(iters[yi*steps+xi], maxIters, rampLen)])
		}
	}
	return img
}

// HistImage rasterizes a merged orbit histogram through a palette using the
// square-root tone curve of HistIndex. The histogram is x-major
// (xi*steps + yi), so the raster is built with xi as the row axis and then
// rotated 270 degrees into display orientation. The densest bin maps to the
// palette's sentinel entry.
func HistImage(counts []int32, steps int, pal Palette) image.Image {
	var maxCount int32
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, steps, steps))
	rampLen := pal.RampLen()
	for xi := 0; xi < steps; xi++ {
		for yi := 0; yi < steps; yi++ {
			img.SetRGBA(yi, xi, pal[HistIndex(counts[xi*steps+yi], maxCount, rampLen)])
		}
	}
	return imaging.Rotate270(img)
}

// FrameImage rasterizes one animation frame from the running histogram and
// the previous checkpoint's histogram. Each bin takes the brighter of its
// cumulative density and its per-checkpoint delta density, which keeps both
// the settled structure and the currently active orbit regions visible.
// Both slices must be x-major with steps*steps bins; prev may be nil for the
// first frame. The result is rotated into display orientation.
func FrameImage(counts, prev []int32, steps int, pal Palette) image.Image {
	var maxCount, maxDelta int32 = 1, 1
	for k, c := range counts {
		if c > maxCount {
			maxCount = c
		}
		d := c
		if prev != nil {
			d -= prev[k]
		}
		if d > maxDelta {
			maxDelta = d
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, steps, steps))
	rampLen := pal.RampLen()
	for xi := 0; xi < steps; xi++ {
		for yi := 0; yi < steps; yi++ {
			k := xi*steps + yi
			d := counts[k]
			if prev != nil {
				d -= prev[k]
			}
			v := math.Max(float64(counts[k])/float64(maxCount), float64(d)/float64(maxDelta))
			idx := int(math.Sqrt(v) * float64(rampLen))
			if idx > rampLen {
				idx = rampLen
			}
			img.SetRGBA(yi, xi, pal[idx])
		}
	}
	return imaging.Rotate270(img)
}

// RenderOptions are display post-processing knobs applied after palette
// mapping. The zero value applies nothing.
type RenderOptions struct {
	// Gamma applies a gamma adjustment; values <= 0 or == 1 are no-ops.
	Gamma float64

	// Scale multiplies the output side length; values <= 1 keep native size.
	// Upscaling uses Catmull-Rom resampling.
	Scale int
}

// PostProcess applies RenderOptions to a rasterized image.
func PostProcess(img image.Image, opts RenderOptions) image.Image {
	if opts.Gamma > 0 && opts.Gamma != 1 {
		img = adjust.Gamma(img, opts.Gamma)
	}
	if opts.Scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*opts.Scale, b.Dy()*opts.Scale))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}
	return img
}

// SavePNG writes an image to path in PNG format.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
