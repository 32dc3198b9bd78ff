//go:build !nogpu

// Package gpu provides a Pure Go GPU compute backend for escape-time
// evaluation.
//
// This is an internal package used by the brot library for GPU compute.
// It leverages WebGPU via the gogpu/wgpu Pure Go HAL (zero CGO), targeting
// Vulkan for standalone use; a shared device from an external provider is
// supported through SetDeviceProvider.
//
// # Architecture Overview
//
// The backend mirrors the CPU dispatch protocol of the root package:
//
//	PointBuffer -> upload (f64 -> f32) -> escape kernel dispatch -> readback -> PointBuffer
//
// Key components:
//
//   - Accelerator: implements brot.GPUAccelerator; owns the device lifecycle
//   - Dispatcher: shader compilation, buffer sets, dispatch and readback
//   - shaders/escape.wgsl: the escape-time kernel, compiled to SPIR-V via naga
//
// # Precision
//
// The kernel computes in f32 (WGSL has no f64). Display-oriented passes with
// small iteration caps match the CPU kernels closely; passes with caps beyond
// maxDeviceIters are refused so the f64 CPU kernels stay authoritative where
// precision matters. Orbit tracing is never dispatched to the device.
//
// # Usage
//
// Users do not import this package directly. Importing the public wrapper
// registers the accelerator:
//
//	import _ "github.com/gogpu/brot/gpu"
package gpu
