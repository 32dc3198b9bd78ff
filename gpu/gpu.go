//go:build !nogpu

// Package gpu registers the GPU accelerator for hardware-accelerated
// escape-time compute.
//
// Import this package to run escape passes on a wgpu device. The device is
// brought up lazily on first use; if no Vulkan device is available, passes
// transparently fall back to the CPU worker pool.
//
// Usage:
//
//	import _ "github.com/gogpu/brot/gpu" // enable GPU compute
//
// Build with -tags nogpu to drop the GPU backend and its dependencies
// entirely.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/brot"
	gpuimpl "github.com/gogpu/brot/internal/gpu"
)

func init() {
	accel := &gpuimpl.Accelerator{}
	if err := brot.RegisterAccelerator(accel); err != nil {
		brot.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from a host application (e.g., a gogpu window context). This avoids
// creating a separate GPU instance and enables device sharing with whatever
// else the host is rendering.
//
// Beyond the gpucontext.DeviceProvider methods, the provider must expose
// HalDevice() any and HalQueue() any returning wgpu/hal types; providers that
// don't are reported as unsupported and the accelerator keeps its own device.
//
// Call this after importing the package, before compute passes run.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return brot.SetAcceleratorDeviceProvider(provider)
}
