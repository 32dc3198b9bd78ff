//go:build !nogpu

package main

// Importing the gpu package registers the wgpu accelerator. Device setup is
// lazy, so machines without a usable Vulkan driver fall back to the CPU on
// the first dispatch. Build with -tags nogpu to drop the backend entirely.
import _ "github.com/gogpu/brot/gpu"
