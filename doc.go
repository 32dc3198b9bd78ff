// Package brot computes escape-time fractal data and Buddhabrot orbit
// histograms, and rasterizes them through small palettes into images.
//
// # Overview
//
// brot is a data-parallel Mandelbrot/Buddhabrot engine for the GoGPU
// ecosystem. The compute core is shaped like a GPU compute dispatch even on
// CPU: flat structure-of-arrays buffers, rank-indexed kernels with a bounded
// per-call loop budget, private per-rank accumulation buffers, and an
// explicit commutative reduction. Ranks run on a work-stealing worker pool;
// optionally the same kernels run as WGSL compute shaders on a WebGPU device
// with transparent CPU fallback.
//
// # Quick Start
//
//	import "github.com/gogpu/brot"
//
//	v := brot.DefaultViewport()
//	eng := brot.NewEngine()
//	defer eng.Close()
//
//	// Iterate the full grid and rasterize the escape-time image.
//	grid := brot.NewGridBuffer(v)
//	if _, err := eng.Iterate(ctx, grid, brot.MaxItersCells); err != nil {
//		log.Fatal(err)
//	}
//	img := brot.EscapeImage(grid.Iters, v.Steps, brot.MaxItersCells, brot.MandelPalette())
//	brot.SavePNG("mandel.png", img)
//
// # Pipeline
//
// The full Buddhabrot pipeline builds on four kernels:
//
//   - escape evaluation: advance every grid point through the quadratic
//     recurrence until it escapes or exhausts its iteration budget
//   - frontier extraction: find grid cells straddling the set boundary
//   - orbit tracing: re-run seed orbits, binning every visited point into
//     per-rank histograms, then merge
//   - palette mapping: map iteration counts or histogram densities to RGB
//
// The cmd/bbrot CLI wires these into compute / render / animate / mandel
// subcommands.
//
// # Concurrency Model
//
// Buffers are partitioned across ranks; a rank owns a disjoint slice of
// points and, while tracing, a private histogram. Kernels never lock and
// never write another rank's data. Reductions happen only after a dispatch
// completes, by summing the private buffers, so the merged result is
// independent of rank scheduling order.
//
// # GPU Acceleration
//
// Import the gpu package to register the WebGPU accelerator:
//
//	import _ "github.com/gogpu/brot/gpu"
//
// If no usable device exists, registration logs a warning and everything
// runs on the CPU pool. The GPU path computes in f32 (WGSL has no f64) and
// is therefore approximate near deep zooms; the CPU core is float64.
//
// # Coordinate System
//
// The viewport spans [XMin, XMin+XRange) x [YMin, YMin+YRange) sampled on a
// Steps x Steps grid. Grid buffers are row-major in y; orbit histograms are
// x-major and rotated to display orientation during rendering.
package brot

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
