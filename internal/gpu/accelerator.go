//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/brot"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// maxDeviceIters is the highest iteration cap offered to the device kernel.
// The kernel computes in f32; orbits capped in the hundreds of thousands and
// beyond sit deep enough in the precision-sensitive zone that binning and
// escape decisions drift from the f64 CPU kernels. Passes with a higher cap
// fall back to the CPU, which stays authoritative for seed filtering.
const maxDeviceIters = 1 << 16

// Accelerator runs escape-time passes on a wgpu HAL device. It implements
// brot.GPUAccelerator and brot.DeviceProviderAware.
//
// Only escape-time iteration is accelerated. Orbit tracing keeps exact f64
// positions and private int32 histograms on the CPU ranks; a device port
// would need f64 arithmetic (unavailable in WGSL) and device-wide atomics,
// and the bound kernels of a trace run are rarely iteration-limited anyway.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	dispatcher *Dispatcher

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// Interface compliance checks.
var _ brot.GPUAccelerator = (*Accelerator)(nil)
var _ brot.DeviceProviderAware = (*Accelerator)(nil)

// Name returns the accelerator identifier.
func (a *Accelerator) Name() string { return "wgpu-escape" }

// Init registers the accelerator. GPU device initialization is deferred
// until the first pass or until SetDeviceProvider is called, so registering
// the accelerator costs nothing on machines without a usable device.
func (a *Accelerator) Init() error {
	return nil
}

// Close releases all GPU resources held by the accelerator.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}

	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
			a.device = nil
		}
		if a.instance != nil {
			a.instance.Destroy()
			a.instance = nil
		}
	} else {
		// Don't destroy shared resources -- we don't own them.
		a.device = nil
		a.instance = nil
	}
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetLogger sets the logger for the accelerator and its internal packages.
// Called by brot.SetLogger to propagate logging configuration.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// CanAccelerate reports whether this accelerator supports the given
// operation. Escape-time iteration runs on the device; orbit tracing does
// not (see the type comment).
func (a *Accelerator) CanAccelerate(op brot.AcceleratedOp) bool {
	return op&brot.AccelIterate != 0
}

// SetDeviceProvider switches the accelerator to use a shared GPU device
// from an external provider. The provider must implement HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu-escape: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu-escape: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu-escape: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Destroy own resources if we created them.
	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	// Use provided resources.
	a.device = device
	a.queue = queue
	a.externalDevice = true

	dispatcher := NewDispatcher(device, queue)
	if err := dispatcher.Init(); err != nil {
		slogger().Warn("wgpu-escape: pipeline init failed, compute unavailable", "error", err)
		// Device is valid, just compute isn't available.
		a.gpuReady = true
		return nil
	}
	a.dispatcher = dispatcher

	a.gpuReady = true
	slogger().Debug("wgpu-escape: switched to shared GPU device")
	return nil
}

// Iterate runs one escape-evaluation pass on the device: upload point state,
// dispatch the kernel with the given budget, read the state back. Returns
// whether every point settled.
//
// Falls back to the CPU (brot.ErrFallbackToCPU) when no device is available,
// when maxIters exceeds the f32 precision threshold, or when any device
// operation fails; in every fallback case the CPU-resident buffer is left
// unmodified.
func (a *Accelerator) Iterate(b *brot.PointBuffer, maxIters int32, budget int) (bool, error) {
	if maxIters > maxDeviceIters {
		return false, fmt.Errorf("%w: maxIters %d beyond f32 range", brot.ErrFallbackToCPU, maxIters)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureGPU(); err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}

	n := b.Len()
	if n == 0 {
		return true, nil
	}

	bufs, err := a.dispatcher.AllocateBuffers(n)
	if err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}
	defer a.dispatcher.DestroyBuffers(bufs)

	a.dispatcher.UploadPoints(bufs, b.X0, b.Y0, b.X, b.Y, b.Iters, b.Done)

	params := kernelParams{
		N:        uint32(n),
		MaxIters: maxIters,
		Budget:   uint32(budget),
	}
	if err := a.dispatcher.Dispatch(bufs, params); err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}

	// Read all four state buffers before committing any of them, so a
	// failed readback leaves the CPU buffer intact for the fallback pass.
	words := uint64(n) * 4
	xBytes, err := a.dispatcher.ReadBack(bufs.X, words)
	if err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}
	yBytes, err := a.dispatcher.ReadBack(bufs.Y, words)
	if err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}
	itersBytes, err := a.dispatcher.ReadBack(bufs.Iters, words)
	if err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}
	doneBytes, err := a.dispatcher.ReadBack(bufs.Done, words)
	if err != nil {
		return false, fmt.Errorf("%w: %v", brot.ErrFallbackToCPU, err)
	}

	copy(b.X, bytesToF32s(xBytes))
	copy(b.Y, bytesToF32s(yBytes))
	copy(b.Iters, bytesToInt32s(itersBytes))
	copy(b.Done, bytesToInt32s(doneBytes))

	converged := true
	for _, dn := range b.Done {
		if dn == 0 {
			converged = false
			break
		}
	}
	return converged, nil
}

// Trace reports fallback: orbit tracing stays on the CPU ranks (see the
// type comment).
func (a *Accelerator) Trace(_ *brot.PointBuffer, _ *brot.HistArena, _ brot.Viewport, _ int32, _ int) (bool, error) {
	return false, brot.ErrFallbackToCPU
}

// ensureGPU lazily brings up the device and pipeline. Callers hold a.mu.
func (a *Accelerator) ensureGPU() error {
	if a.gpuReady {
		if a.dispatcher == nil || !a.dispatcher.Initialized() {
			return fmt.Errorf("compute pipeline unavailable")
		}
		return nil
	}
	return a.initGPU()
}

// initGPU creates a standalone Vulkan device for compute-only use.
// This is the fallback path when no external device is provided via
// SetDeviceProvider.
func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue

	dispatcher := NewDispatcher(a.device, a.queue)
	if err := dispatcher.Init(); err != nil {
		a.gpuReady = true
		return fmt.Errorf("pipeline init: %w", err)
	}
	a.dispatcher = dispatcher

	a.gpuReady = true
	slogger().Info("wgpu-escape: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}
