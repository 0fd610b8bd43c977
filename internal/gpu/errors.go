//go:build !nogpu

package gpu

import "errors"

var (
	// ErrNoGPU is returned when no usable hardware adapter was found.
	ErrNoGPU = errors.New("gpu: no usable GPU adapter")

	// ErrDeviceProvider is returned when a device provider does not expose
	// wgpu HAL handles.
	ErrDeviceProvider = errors.New("gpu: device provider does not expose HAL device and queue")

	// ErrDeviceInUse is returned when the device is replaced while engines
	// created on it are still open.
	ErrDeviceInUse = errors.New("gpu: device has open engines")
)
