//go:build !nogpu

// dispatcher.go defines the GPU dispatch orchestration for the escape-time
// kernel. It manages shader compilation, buffer allocation, upload and
// readback of point state, and the single-stage dispatch sequence that
// mirrors the CPU kernel in the root package.

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/escape.wgsl
var escapeShaderWGSL string

const (
	// wgSize is the workgroup size of the escape kernel. It matches the
	// @workgroup_size attribute in escape.wgsl.
	wgSize = 256

	// fenceTimeout is the maximum time to wait for GPU work to complete.
	fenceTimeout = 5 * time.Second

	// minBufSize keeps zero-element buffers allocatable.
	minBufSize = 4
)

// kernelParams is the uniform block of the escape kernel.
//
// This struct must match the Params struct in escape.wgsl: four consecutive
// 32-bit words. It is uploaded as a uniform buffer at binding(0) of group(0).
type kernelParams struct {
	// N is the number of points in the dispatch.
	N uint32

	// MaxIters is the iteration cap; negative disables the cap.
	MaxIters int32

	// Budget is the per-call recurrence step budget.
	Budget uint32
}

// sizeInBytes returns the byte size of kernelParams, including the padding
// word that rounds the uniform block to 16 bytes.
func (p kernelParams) sizeInBytes() uint64 {
	return 4 * 4
}

// toBytes serializes kernelParams in little-endian format.
func (p kernelParams) toBytes() []byte {
	buf := make([]byte, p.sizeInBytes())
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], p.N)
	le.PutUint32(buf[4:8], uint32(p.MaxIters))
	le.PutUint32(buf[8:12], p.Budget)
	le.PutUint32(buf[12:16], 0)
	return buf
}

// Buffers holds the GPU buffer set for one dispatch: the uniform params,
// the immutable plane coordinates, and the resumable orbit state. Allocated
// per call and destroyed afterward; point state stays CPU-resident between
// calls.
type Buffers struct {
	// Params is the uniform buffer containing kernelParams.
	// Bound at group(0) binding(0).
	Params hal.Buffer

	// X0, Y0 are the plane coordinates, storage(read) at bindings 1-2.
	X0, Y0 hal.Buffer

	// X, Y, Iters, Done are the orbit state, storage(read_write) at
	// bindings 3-6. Read back after the dispatch.
	X, Y, Iters, Done hal.Buffer

	// n is the point count the buffers were sized for.
	n int
}

// Dispatcher compiles the escape kernel and runs dispatches on a HAL device.
// It owns the pipeline objects but not the device; create one per device via
// NewDispatcher and release it with Close.
type Dispatcher struct {
	mu sync.RWMutex

	// device is the HAL device providing GPU resource creation.
	device hal.Device

	// queue is the HAL queue for command submission and buffer writes.
	queue hal.Queue

	pipeline       hal.ComputePipeline
	pipelineLayout hal.PipelineLayout
	bgLayout       hal.BindGroupLayout
	shaderModule   hal.ShaderModule

	// initialized indicates whether the shader has been compiled.
	initialized bool
}

// NewDispatcher creates a dispatcher attached to the given HAL device and
// queue. Call Init before Dispatch.
func NewDispatcher(device hal.Device, queue hal.Queue) *Dispatcher {
	return &Dispatcher{
		device: device,
		queue:  queue,
	}
}

// bindGroupLayoutEntries returns the bind group layout of the escape kernel.
// The entries match the @group(0) @binding(N) annotations in escape.wgsl.
func bindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	uniform := gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
	storageRO := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		}
	}
	storageRW := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
		}
	}

	// @binding(0) uniform params
	// @binding(1) storage(read) x0
	// @binding(2) storage(read) y0
	// @binding(3) storage(read_write) x
	// @binding(4) storage(read_write) y
	// @binding(5) storage(read_write) iters
	// @binding(6) storage(read_write) done
	return []gputypes.BindGroupLayoutEntry{
		uniform,
		storageRO(1), storageRO(2),
		storageRW(3), storageRW(4), storageRW(5), storageRW(6),
	}
}

// Init compiles the WGSL kernel to SPIR-V and creates the compute pipeline.
// Safe to call multiple times; subsequent calls are no-ops once initialized.
func (d *Dispatcher) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}
	if escapeShaderWGSL == "" {
		return fmt.Errorf("escape compute: missing shader source")
	}

	spirv, err := compileToSPIRV(escapeShaderWGSL)
	if err != nil {
		return fmt.Errorf("escape compute: compile shader: %w", err)
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "escape_kernel",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("escape compute: create shader module: %w", err)
	}
	d.shaderModule = module

	bgLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "escape_kernel_bgl",
		Entries: bindGroupLayoutEntries(),
	})
	if err != nil {
		d.destroyPartialInit()
		return fmt.Errorf("escape compute: create bind group layout: %w", err)
	}
	d.bgLayout = bgLayout

	pipelineLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "escape_kernel_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		d.destroyPartialInit()
		return fmt.Errorf("escape compute: create pipeline layout: %w", err)
	}
	d.pipelineLayout = pipelineLayout

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "escape_kernel",
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		d.destroyPartialInit()
		return fmt.Errorf("escape compute: create compute pipeline: %w", err)
	}
	d.pipeline = pipeline

	d.initialized = true
	slogger().Debug("escape compute: pipeline initialized",
		"shader_bytes", len(escapeShaderWGSL),
		"spirv_words", len(spirv))
	return nil
}

// compileToSPIRV compiles WGSL source to SPIR-V words.
// SPIR-V is little-endian 32-bit words.
func compileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// destroyPartialInit cleans up pipeline objects after a failed Init so no
// resources leak on partial initialization.
func (d *Dispatcher) destroyPartialInit() {
	if d.pipeline != nil {
		d.device.DestroyComputePipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipelineLayout != nil {
		d.device.DestroyPipelineLayout(d.pipelineLayout)
		d.pipelineLayout = nil
	}
	if d.bgLayout != nil {
		d.device.DestroyBindGroupLayout(d.bgLayout)
		d.bgLayout = nil
	}
	if d.shaderModule != nil {
		d.device.DestroyShaderModule(d.shaderModule)
		d.shaderModule = nil
	}
}

// Close releases all GPU resources held by the dispatcher. After Close, the
// dispatcher must be re-initialized with Init before use.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyPartialInit()
	d.initialized = false
}

// Initialized reports whether Init has completed successfully.
func (d *Dispatcher) Initialized() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.initialized
}

// workgroupCount returns the number of workgroups for n elements, by ceiling
// division against the kernel's workgroup size.
func workgroupCount(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (n + wgSize - 1) / wgSize
}

// AllocateBuffers creates the GPU buffer set for n points. The caller must
// call DestroyBuffers when the dispatch is finished.
func (d *Dispatcher) AllocateBuffers(n int) (*Buffers, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.initialized {
		return nil, fmt.Errorf("escape compute: dispatcher not initialized, call Init() first")
	}

	words := uint64(n) * 4

	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	storageIn := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	storageInOut := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc

	bufs := &Buffers{n: n}

	// bufSpec maps a label and size to a target pointer and usage flags.
	type bufSpec struct {
		target *hal.Buffer
		label  string
		size   uint64
		usage  gputypes.BufferUsage
	}
	specs := []bufSpec{
		{&bufs.Params, "escape_params", kernelParams{}.sizeInBytes(), uniformCPU},
		{&bufs.X0, "escape_x0", words, storageIn},
		{&bufs.Y0, "escape_y0", words, storageIn},
		{&bufs.X, "escape_x", words, storageInOut},
		{&bufs.Y, "escape_y", words, storageInOut},
		{&bufs.Iters, "escape_iters", words, storageInOut},
		{&bufs.Done, "escape_done", words, storageInOut},
	}

	for _, s := range specs {
		size := s.size
		if size < minBufSize {
			size = minBufSize
		}
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: s.label,
			Size:  size,
			Usage: s.usage,
		})
		if err != nil {
			d.DestroyBuffers(bufs)
			return nil, fmt.Errorf("escape compute: create %s buffer: %w", s.label, err)
		}
		*s.target = buf
	}

	return bufs, nil
}

// DestroyBuffers releases the buffer set. After this call, the buffers must
// not be used.
func (d *Dispatcher) DestroyBuffers(bufs *Buffers) {
	if bufs == nil {
		return
	}
	destroy := func(b hal.Buffer) {
		if b != nil {
			d.device.DestroyBuffer(b)
		}
	}
	destroy(bufs.Params)
	destroy(bufs.X0)
	destroy(bufs.Y0)
	destroy(bufs.X)
	destroy(bufs.Y)
	destroy(bufs.Iters)
	destroy(bufs.Done)
	*bufs = Buffers{}
}

// UploadPoints writes point state into the buffer set. Plane coordinates and
// orbit positions are narrowed to f32, the device precision of the kernel.
func (d *Dispatcher) UploadPoints(bufs *Buffers, x0, y0, x, y []float64, iters, done []int32) {
	d.queue.WriteBuffer(bufs.X0, 0, float64sToF32Bytes(x0))
	d.queue.WriteBuffer(bufs.Y0, 0, float64sToF32Bytes(y0))
	d.queue.WriteBuffer(bufs.X, 0, float64sToF32Bytes(x))
	d.queue.WriteBuffer(bufs.Y, 0, float64sToF32Bytes(y))
	d.queue.WriteBuffer(bufs.Iters, 0, int32sToBytes(iters))
	d.queue.WriteBuffer(bufs.Done, 0, int32sToBytes(done))
}

// Dispatch uploads params, encodes one compute pass over the buffer set,
// submits it, and blocks until the fence signals.
func (d *Dispatcher) Dispatch(bufs *Buffers, params kernelParams) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.initialized {
		return fmt.Errorf("escape compute: dispatcher not initialized, call Init() first")
	}
	if bufs == nil {
		return fmt.Errorf("escape compute: buffers must not be nil")
	}

	wgCount := workgroupCount(params.N)
	if wgCount == 0 {
		return nil
	}

	d.queue.WriteBuffer(bufs.Params, 0, params.toBytes())

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "escape_kernel_bg",
		Layout: d.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			bufferEntry(0, bufs.Params),
			bufferEntry(1, bufs.X0),
			bufferEntry(2, bufs.Y0),
			bufferEntry(3, bufs.X),
			bufferEntry(4, bufs.Y),
			bufferEntry(5, bufs.Iters),
			bufferEntry(6, bufs.Done),
		},
	})
	if err != nil {
		return fmt.Errorf("escape compute: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "escape_compute",
	})
	if err != nil {
		return fmt.Errorf("escape compute: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("escape_compute"); err != nil {
		return fmt.Errorf("escape compute: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{
		Label: "escape_pass",
	})
	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(wgCount, 1, 1)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("escape compute: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return err
	}

	slogger().Debug("escape compute: dispatched",
		"points", params.N,
		"workgroups", wgCount,
		"budget", params.Budget)
	return nil
}

// submitAndWait submits the command buffer and waits for GPU completion.
func (d *Dispatcher) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("escape compute: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("escape compute: submit: %w", err)
	}

	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("escape compute: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("escape compute: GPU timeout after %v", fenceTimeout)
	}
	return nil
}

// ReadBack copies size bytes from a storage buffer through a staging buffer
// and returns them. It submits its own copy command and blocks on a fence.
func (d *Dispatcher) ReadBack(src hal.Buffer, size uint64) ([]byte, error) {
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("escape compute: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "escape_readback",
	})
	if err != nil {
		return nil, fmt.Errorf("escape compute: create readback encoder: %w", err)
	}
	if err := encoder.BeginEncoding("escape_readback"); err != nil {
		return nil, fmt.Errorf("escape compute: begin readback encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(src, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("escape compute: end readback encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	data := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("escape compute: readback: %w", err)
	}
	return data, nil
}

// bufferEntry builds a whole-buffer bind group entry.
func bufferEntry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   0, // 0 = entire buffer
		},
	}
}

// float64sToF32Bytes narrows values to f32 and serializes them little-endian.
func float64sToF32Bytes(vals []float64) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

// int32sToBytes serializes values little-endian.
func int32sToBytes(vals []int32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

// bytesToF32s deserializes little-endian f32 words as float64 values.
func bytesToF32s(data []byte) []float64 {
	vals := make([]float64, len(data)/4)
	for i := range vals {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		vals[i] = float64(math.Float32frombits(bits))
	}
	return vals
}

// bytesToInt32s deserializes little-endian 32-bit words.
func bytesToInt32s(data []byte) []int32 {
	vals := make([]int32, len(data)/4)
	for i := range vals {
		vals[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vals
}
