package brot

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the GPU accelerator cannot handle this
// operation. The caller should transparently fall back to the CPU pool.
var ErrFallbackToCPU = errors.New("brot: falling back to CPU compute")

// AcceleratedOp describes operation types for GPU capability checking.
type AcceleratedOp uint32

const (
	// AccelIterate represents escape-time evaluation passes.
	AccelIterate AcceleratedOp = 1 << iota

	// AccelTrace represents orbit-trace passes.
	AccelTrace
)

// GPUAccelerator is an optional GPU compute provider.
//
// When registered via RegisterAccelerator, the Engine offers each dispatch
// pass to the accelerator first. If the accelerator returns ErrFallbackToCPU
// or any error, the pass transparently runs on the CPU pool instead.
//
// Implementations are provided by GPU backend packages; users opt in via
// blank import:
//
//	import _ "github.com/gogpu/brot/gpu" // enables GPU compute
type GPUAccelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-compute").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// CanAccelerate reports whether the accelerator supports the given
	// operation. A fast check used to skip the GPU entirely.
	CanAccelerate(op AcceleratedOp) bool

	// Iterate runs one escape-evaluation pass over the whole buffer: every
	// unfinished point advances by at most budget steps toward maxIters.
	// Buffer state is read back after the pass, so the CPU-resident
	// PointBuffer stays authoritative. Returns whether all points settled.
	// Returns ErrFallbackToCPU if the pass cannot run on the device.
	Iterate(b *PointBuffer, maxIters int32, budget int) (converged bool, err error)

	// Trace runs one orbit-trace pass, accumulating into the arena's
	// private histograms. Returns ErrFallbackToCPU if tracing cannot run
	// on the device.
	Trace(b *PointBuffer, arena *HistArena, v Viewport, maxIters int32, budget int) (converged bool, err error)
}

// DeviceProviderAware is an optional interface for accelerators that can
// share GPU resources with an external provider (e.g., a gogpu window).
// When SetDeviceProvider is called, the accelerator reuses the provided GPU
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   GPUAccelerator
)

// RegisterAccelerator registers a GPU accelerator for optional GPU compute.
//
// Only one accelerator can be registered; subsequent calls replace the
// previous one. The accelerator's Init() method is called during
// registration. If Init() fails, the accelerator is not registered and the
// error is returned.
//
// Typical usage via blank import in GPU backend packages:
//
//	func init() {
//	    brot.RegisterAccelerator(gpu.New())
//	}
func RegisterAccelerator(a GPUAccelerator) error {
	if a == nil {
		return errors.New("brot: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Accelerator returns the currently registered GPU accelerator, or nil.
func Accelerator() GPUAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is registered
// or it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
