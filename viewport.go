package brot

// Compute-core defaults. These mirror the classic framing of the set:
// x in [-2.1, 0.9), y in [-1.5, 1.5), sampled on a 1024x1024 grid.
const (
	// Steps is the default grid resolution per axis.
	Steps = 1024

	// Default viewport placement.
	XMin   = -2.1
	XRange = 3.0
	YMin   = -1.5
	YRange = 3.0

	// MaxLoops bounds the work a kernel performs on one point in a single
	// dispatch. Long-running evaluations are split into passes of at most
	// MaxLoops steps each, keeping individual dispatches short and
	// interruptible.
	MaxLoops = 10_000

	// MaxItersCells is the iteration cap for the grid pass that feeds the
	// frontier-cell scan.
	MaxItersCells = 256

	// Samples is the default total number of jittered samples distributed
	// over the frontier cells.
	Samples = 10_000_000

	// MinItersSamples and MaxItersSamples bound (strictly) the orbit length
	// of samples retained as trace seeds. Orbits shorter than the minimum
	// carry little detail; orbits at the maximum never escaped at all.
	MinItersSamples = 1_000_000
	MaxItersSamples = 5_000_000

	// PaletteLength is the number of ramp entries in a palette. Built
	// palettes carry one extra sentinel entry; see Palette.
	PaletteLength = 256

	// maxRenderBufMem caps the total memory spent on private trace
	// histograms (int32 per bin).
	maxRenderBufMem = 2 * 1024 * 1024 * 1024

	// MaxRenderBufs is the largest number of private histograms a trace
	// arena will allocate.
	MaxRenderBufs = maxRenderBufMem / (4 * Steps * Steps)

	// Animation defaults.
	AnimateFPS     = 25
	AnimateSeconds = 10
)

// Viewport is the rectangle of the complex plane under computation and its
// grid resolution. The zero value is not useful; start from DefaultViewport.
type Viewport struct {
	XMin   float64
	XRange float64
	YMin   float64
	YRange float64
	Steps  int
}

// DefaultViewport returns the standard full-set framing.
func DefaultViewport() Viewport {
	return Viewport{XMin: XMin, XRange: XRange, YMin: YMin, YRange: YRange, Steps: Steps}
}

// DX returns the grid cell width.
func (v Viewport) DX() float64 { return v.XRange / float64(v.Steps) }

// DY returns the grid cell height.
func (v Viewport) DY() float64 { return v.YRange / float64(v.Steps) }

// GridX returns the x coordinate of grid column xi.
func (v Viewport) GridX(xi int) float64 { return v.XMin + float64(xi)*v.DX() }

// GridY returns the y coordinate of grid row yi.
func (v Viewport) GridY(yi int) float64 { return v.YMin + float64(yi)*v.DY() }

// Cells returns the number of 2x2-corner cells per axis, Steps-1.
func (v Viewport) Cells() int { return v.Steps - 1 }

// Bin maps a plane point to histogram bin indices. ok is false when the
// point falls outside the viewport on either axis; such points are dropped
// rather than clamped, so bins never aggregate out-of-frame orbit segments.
func (v Viewport) Bin(x, y float64) (xi, yi int, ok bool) {
	fx := (x - v.XMin) / v.XRange * float64(v.Steps)
	fy := (y - v.YMin) / v.YRange * float64(v.Steps)
	if fx < 0 || fx >= float64(v.Steps) || fy < 0 || fy >= float64(v.Steps) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}
