package particlelife

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

func wgpuMapStatusError(status wgpu.BufferMapAsyncStatus) error {
	return fmt.Errorf("buffer map failed with status %d", status)
}

// GPUDevice is the headless compute-only device handle the GPU force
// paths dispatch against: no surface, no swapchain, no window — the
// core's GPU usage is entirely CreateComputePipeline/DispatchWorkgroups,
// rendering is a collaborator out of scope (§1).
//
// Grounded on the teacher's createGpuState (gpu_operations.go), with
// the surface/window setup stripped since this core never presents a
// frame.
type GPUDevice struct {
	instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// NewGPUDevice requests a high-performance adapter and device with no
// compatible surface. Any failure is a fatal GPUError per §7: GPU
// unavailability is a construction-time decision, never retried.
func NewGPUDevice() (*GPUDevice, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, gpuErrorf("adapter", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "particlelife compute device",
	})
	if err != nil {
		instance.Release()
		return nil, gpuErrorf("device", err)
	}

	return &GPUDevice{
		instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
	}, nil
}

// Release frees the instance handle. Adapter/Device/Queue follow the
// wgpu binding's own reference-counted release semantics and are
// released by their respective owners.
func (d *GPUDevice) Release() {
	if d.instance != nil {
		d.instance.Release()
	}
}

// CreateShaderModule compiles a WGSL source string. A compile failure
// is a fatal GPUError (§7).
func (d *GPUDevice) CreateShaderModule(label, wgsl string) (*wgpu.ShaderModule, error) {
	mod, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if err != nil {
		return nil, gpuErrorf("shader", err)
	}
	return mod, nil
}

// CreateComputePipeline builds a single-entry-point compute pipeline,
// matching the shape the teacher's Hi-Z pass uses
// (ComputePipelineDescriptor{Compute: ProgrammableStageDescriptor}).
func (d *GPUDevice) CreateComputePipeline(label string, module *wgpu.ShaderModule, entryPoint string) (*wgpu.ComputePipeline, error) {
	pipeline, err := d.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: label,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: entryPoint,
		},
	})
	if err != nil {
		return nil, gpuErrorf("shader", err)
	}
	return pipeline, nil
}

// CreateStorageBufferInit uploads data as a read/write storage
// buffer, usable both as a compute binding and as a copy source for
// readback.
func (d *GPUDevice) CreateStorageBufferInit(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := d.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: data,
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, gpuErrorf("device", err)
	}
	return buf, nil
}

// CreateUniformBufferInit uploads data as a uniform buffer, for the
// small fixed-shape parameter structs (GridParams, DenseParams) the
// shaders declare with var<uniform>; a storage buffer would fail bind
// group validation against that declaration.
func (d *GPUDevice) CreateUniformBufferInit(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := d.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: data,
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, gpuErrorf("device", err)
	}
	return buf, nil
}

// CreateReadbackBuffer allocates a host-mappable buffer sized in
// bytes, used as the CopyBufferToBuffer destination for results that
// must cross back to the host (force output, bin offsets).
func (d *GPUDevice) CreateReadbackBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := d.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, gpuErrorf("device", err)
	}
	return buf, nil
}

// ReadBuffer blocks the host thread until buf's contents are mapped
// and returns a copy of them (§5: "the host thread blocks on queue
// completion before reading results"). Grounded on the teacher's
// ReadbackHiZ MapAsync+Device.Poll+GetMappedRange+Unmap sequence.
func (d *GPUDevice) ReadBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	var mapErr error
	done := false
	buf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = gpuErrorf("device-lost", wgpuMapStatusError(status))
		}
		done = true
	})

	for !done {
		d.Device.Poll(true, nil)
	}
	if mapErr != nil {
		return nil, mapErr
	}

	mapped := buf.GetMappedRange(0, uint(size))
	out := make([]byte, len(mapped))
	copy(out, mapped)
	buf.Unmap()
	return out, nil
}
