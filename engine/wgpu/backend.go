//go:build !nogpu

// Package wgpu is the GPU execution backend, running pointwise kernels
// as compute shaders through gogpu/wgpu's hardware abstraction layer.
// Kernels that need neighborhoods or resampling (geometry, local blends,
// luminance-weighted tonal lifts) delegate to the CPU reference backend,
// which also defines the arithmetic the shaders must match.
package wgpu

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Vulkan backend registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/engine"
	"github.com/gogpu/lux/mask"
	"github.com/gogpu/lux/pipeline"
)

func init() {
	engine.Register(engine.BackendWGPU, func() engine.Backend { return NewBackend() })
}

const fenceTimeout = 5 * time.Second

// kernelShaders maps the GPU-executed kernels to their WGSL sources.
var kernelShaders = map[pipeline.Kernel]string{
	pipeline.KernelExposure:     exposureShaderSource,
	pipeline.KernelContrast:     contrastShaderSource,
	pipeline.KernelWhites:       whitesShaderSource,
	pipeline.KernelBlacks:       blacksShaderSource,
	pipeline.KernelWhiteBalance: whiteBalanceShaderSource,
	pipeline.KernelCalibration:  calibrationShaderSource,
	pipeline.KernelCurve:        curveShaderSource,
}

// kernelPipeline holds the compiled pipeline objects for one kernel.
type kernelPipeline struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	hasLUT     bool
}

// Backend runs render passes on the GPU. Not safe for concurrent Run
// calls; the engine serializes.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipelines map[pipeline.Kernel]*kernelPipeline

	fallback *engine.Software
	ready    bool
}

// NewBackend creates an uninitialized GPU backend.
func NewBackend() *Backend {
	return &Backend{fallback: engine.NewSoftware()}
}

// Name implements engine.Backend.
func (b *Backend) Name() string { return engine.BackendWGPU }

// Init implements engine.Backend. Initialization failure is not fatal:
// the backend stays usable with every kernel on the CPU fallback.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		return nil
	}
	if err := b.initGPU(); err != nil {
		lux.Logger().Warn("gpu init failed, all kernels on cpu fallback", slog.Any("error", err))
	}
	return nil
}

// Reinit implements engine.Reiniter: tears the device down and brings it
// back up after a device loss.
func (b *Backend) Reinit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
	return b.initGPU()
}

// Close implements engine.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
	return nil
}

func (b *Backend) closeLocked() {
	for _, kp := range b.pipelines {
		b.destroyKernelPipeline(kp)
	}
	b.pipelines = nil
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.queue = nil
	b.ready = false
}

func (b *Backend) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		b.instance.Destroy()
		b.instance = nil
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
		b.instance.Destroy()
		b.instance = nil
		return fmt.Errorf("open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue

	if err := b.createPipelines(); err != nil {
		b.closeLocked()
		return fmt.Errorf("create pipelines: %w", err)
	}
	b.ready = true
	lux.Logger().Info("gpu backend initialized", slog.String("adapter", selected.Info.Name))
	return nil
}

func (b *Backend) createPipelines() error {
	b.pipelines = make(map[pipeline.Kernel]*kernelPipeline, len(kernelShaders))
	for kernel, source := range kernelShaders {
		kp, err := b.buildKernelPipeline(string(kernel), source, kernel == pipeline.KernelCurve)
		if err != nil {
			return fmt.Errorf("kernel %s: %w", kernel, err)
		}
		b.pipelines[kernel] = kp
	}
	return nil
}

func (b *Backend) buildKernelPipeline(label, source string, hasLUT bool) (*kernelPipeline, error) {
	kp := &kernelPipeline{hasLUT: hasLUT}

	spirv, err := compileSPIRV(source)
	if err != nil {
		return nil, err
	}
	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	kp.shader = shader

	entries := []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
		{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
	}
	if hasLUT {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding: 3, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		})
	}
	bindLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		b.destroyKernelPipeline(kp)
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	kp.bindLayout = bindLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		b.destroyKernelPipeline(kp)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	kp.pipeLayout = pipeLayout

	cp, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: label + "_pipeline", Layout: pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		b.destroyKernelPipeline(kp)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	kp.pipeline = cp
	return kp, nil
}

func (b *Backend) destroyKernelPipeline(kp *kernelPipeline) {
	if kp == nil || b.device == nil {
		return
	}
	if kp.pipeline != nil {
		b.device.DestroyComputePipeline(kp.pipeline)
	}
	if kp.pipeLayout != nil {
		b.device.DestroyPipelineLayout(kp.pipeLayout)
	}
	if kp.bindLayout != nil {
		b.device.DestroyBindGroupLayout(kp.bindLayout)
	}
	if kp.shader != nil {
		b.device.DestroyShaderModule(kp.shader)
	}
}

// Run implements engine.Backend.
func (b *Backend) Run(ctx context.Context, pass *pipeline.Pass, in *lux.Frame, cov *mask.Coverage) (*lux.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	kp := b.pipelines[pass.Kernel]
	ready := b.ready
	b.mu.Unlock()

	if !ready || kp == nil {
		return b.fallback.Run(ctx, pass, in, cov)
	}

	out, err := b.dispatch(kp, pass, in)
	if err != nil {
		return nil, classifyDeviceErr(err)
	}
	return out, nil
}

// dispatch uploads the frame, runs one compute pass and reads the result
// back through a staging buffer.
func (b *Backend) dispatch(kp *kernelPipeline, pass *pipeline.Pass, in *lux.Frame) (*lux.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pix := in.Pix()
	bufSize := uint64(len(pix)) * 4

	srcBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "lux_src", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create src buffer: %w", err)
	}
	defer b.device.DestroyBuffer(srcBuf)

	dstBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "lux_dst", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create dst buffer: %w", err)
	}
	defer b.device.DestroyBuffer(dstBuf)

	stagingBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "lux_staging", Size: bufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(stagingBuf)

	paramBytes := packParams(pass)
	paramBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "lux_params", Size: uint64(len(paramBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	defer b.device.DestroyBuffer(paramBuf)

	b.queue.WriteBuffer(srcBuf, 0, floatsToBytes(pix))
	b.queue.WriteBuffer(paramBuf, 0, paramBytes)

	bindEntries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramBuf.NativeHandle(), Offset: 0, Size: uint64(len(paramBytes))}},
		{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: bufSize}},
		{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: bufSize}},
	}

	var lutBuf hal.Buffer
	if kp.hasLUT {
		lutBytes := floatsToBytes(pass.LUT)
		lutBuf, err = b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "lux_lut", Size: uint64(len(lutBytes)),
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("create lut buffer: %w", err)
		}
		defer b.device.DestroyBuffer(lutBuf)
		b.queue.WriteBuffer(lutBuf, 0, lutBytes)
		bindEntries = append(bindEntries, gputypes.BindGroupEntry{
			Binding: 3, Resource: gputypes.BufferBinding{Buffer: lutBuf.NativeHandle(), Offset: 0, Size: uint64(len(lutBytes))},
		})
	}

	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "lux_bind", Layout: kp.bindLayout, Entries: bindEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer b.device.DestroyBindGroup(bg)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "lux_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("lux_pass"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pixels := uint32(len(pix) / 4)
	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: string(pass.Kernel)})
	computePass.SetPipeline(kp.pipeline)
	computePass.SetBindGroup(0, bg, nil)
	computePass.Dispatch((pixels+63)/64, 1, 1)
	computePass.End()

	encoder.CopyBufferToBuffer(dstBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: bufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, bufSize)
	if err := b.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	out := lux.NewFrame(in.Width(), in.Height())
	bytesToFloats(readback, out.Pix())
	return out, nil
}

// packParams resolves pass uniforms into the 16-float parameter block the
// shaders consume.
func packParams(pass *pipeline.Pass) []byte {
	var v [16]float32
	u := pass.Uniforms
	switch pass.Kernel {
	case pipeline.KernelExposure:
		v[0] = float32(math.Exp2(u[0]))
	case pipeline.KernelContrast:
		v[0] = float32(1 + u[0]/100)
	case pipeline.KernelWhites:
		v[0] = float32(1 + u[0]/400)
	case pipeline.KernelBlacks:
		v[0] = float32(u[0] / 400)
	case pipeline.KernelWhiteBalance:
		v[0] = float32(1 + u[0]/100*0.3)
		v[1] = float32(1 - u[1]/100*0.3)
		v[2] = float32(1 - u[0]/100*0.3)
	case pipeline.KernelCalibration:
		for i := 0; i < 3; i++ {
			v[i*4] = float32(u[i*3])
			v[i*4+1] = float32(u[i*3+1])
			v[i*4+2] = float32(u[i*3+2])
		}
	}
	return floatsToBytes(v[:])
}

func floatsToBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4) //nolint:gosec // tightly packed f32 upload
}

func bytesToFloats(b []byte, dst []float32) {
	src := unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4) //nolint:gosec // tightly packed f32 readback
	copy(dst, src)
}

// classifyDeviceErr maps hal failures onto the engine's recovery errors
// so the engine can evict or reinitialize instead of aborting.
func classifyDeviceErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory") || strings.Contains(msg, "out_of_memory"):
		return fmt.Errorf("%w: %v", engine.ErrOutOfDeviceMemory, err)
	case strings.Contains(msg, "device lost") || strings.Contains(msg, "device_lost"):
		return fmt.Errorf("%w: %v", engine.ErrDeviceLost, err)
	}
	return err
}
