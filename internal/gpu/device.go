//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// device is an opened (or borrowed) GPU device with the two compute
// pipelines built on it.
type device struct {
	instance hal.Instance // nil for a shared device
	dev      hal.Device
	queue    hal.Queue
	name     string
	limits   gputypes.Limits
	software bool
	external bool // shared device: do not destroy on close

	shaderMove hal.ShaderModule
	shaderAcc  hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	movePipe   hal.ComputePipeline
	accPipe    hal.ComputePipeline
}

// openDevice creates a Vulkan instance and opens the first discrete or
// integrated adapter, or the first adapter of any kind.
func openDevice() (*device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsVulkan})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrNoGPU)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := selected.Capabilities.Limits
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}
	d := &device{
		instance: instance,
		dev:      openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
		limits:   limits,
		software: selected.Info.DeviceType == gputypes.DeviceTypeCPU,
	}
	if err := d.createPipelines(); err != nil {
		d.destroy()
		return nil, err
	}
	slogger().Info("gpu: adapter selected",
		"name", d.name, "type", selected.Info.DeviceType.String(), "software", d.software)
	return d, nil
}

// deviceFromProvider borrows the device and queue of an external provider.
// Providers either hand out hal handles directly or wrap them behind
// HalDevice/HalQueue accessors.
func deviceFromProvider(p gpucontext.DeviceProvider) (*device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var devAny, queueAny any = p.Device(), p.Queue()
	if hp, ok := p.(halProvider); ok {
		devAny, queueAny = hp.HalDevice(), hp.HalQueue()
	}
	dev, ok := devAny.(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: device is %T", ErrDeviceProvider, devAny)
	}
	queue, ok := queueAny.(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: queue is %T", ErrDeviceProvider, queueAny)
	}

	info := p.AdapterInfo()
	d := &device{
		dev:      dev,
		queue:    queue,
		name:     info.Name,
		limits:   gputypes.DefaultLimits(),
		software: info.Type == gpucontext.AdapterTypeSoftware,
		external: true,
	}
	if err := d.createPipelines(); err != nil {
		d.destroy()
		return nil, err
	}
	slogger().Info("gpu: using shared device", "name", d.name, "type", info.Type.String())
	return d, nil
}

func (d *device) createPipelines() error {
	shaders, err := compiledShaders()
	if err != nil {
		return err
	}

	if d.shaderMove, err = d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "attractor_move_agents",
		Source: hal.ShaderSource{SPIRV: shaders.move},
	}); err != nil {
		return fmt.Errorf("create move_agents shader: %w", err)
	}
	if d.shaderAcc, err = d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "attractor_accumulate",
		Source: hal.ShaderSource{SPIRV: shaders.accumulate},
	}); err != nil {
		return fmt.Errorf("create accumulate shader: %w", err)
	}

	storage := func(binding uint32, t gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: t},
		}
	}
	if d.bindLayout, err = d.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "attractor_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(0, gputypes.BufferBindingTypeUniform),
			storage(1, gputypes.BufferBindingTypeStorage),         // agents
			storage(2, gputypes.BufferBindingTypeReadOnlyStorage), // vertices
			storage(3, gputypes.BufferBindingTypeReadOnlyStorage), // projections
			storage(4, gputypes.BufferBindingTypeStorage),         // buckets
		},
	}); err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	if d.pipeLayout, err = d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "attractor_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	}); err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	if d.movePipe, err = d.dev.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "attractor_move_agents", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: d.shaderMove, EntryPoint: "main"},
	}); err != nil {
		return fmt.Errorf("create move_agents pipeline: %w", err)
	}
	if d.accPipe, err = d.dev.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "attractor_accumulate", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: d.shaderAcc, EntryPoint: "main"},
	}); err != nil {
		return fmt.Errorf("create accumulate pipeline: %w", err)
	}
	return nil
}

// submit runs one command buffer to completion.
func (d *device) submit(cmd hal.CommandBuffer) error {
	defer d.dev.FreeCommandBuffer(cmd)
	idx, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := d.dev.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	if done := d.queue.PollCompleted(); done < idx {
		return fmt.Errorf("submission %d not completed (last %d)", idx, done)
	}
	return nil
}

func (d *device) destroy() {
	if d.dev == nil {
		return
	}
	_ = d.dev.WaitIdle()
	if d.accPipe != nil {
		d.dev.DestroyComputePipeline(d.accPipe)
	}
	if d.movePipe != nil {
		d.dev.DestroyComputePipeline(d.movePipe)
	}
	if d.pipeLayout != nil {
		d.dev.DestroyPipelineLayout(d.pipeLayout)
	}
	if d.bindLayout != nil {
		d.dev.DestroyBindGroupLayout(d.bindLayout)
	}
	if d.shaderAcc != nil {
		d.dev.DestroyShaderModule(d.shaderAcc)
	}
	if d.shaderMove != nil {
		d.dev.DestroyShaderModule(d.shaderMove)
	}
	if !d.external {
		d.dev.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.dev = nil
	d.queue = nil
	d.instance = nil
}
