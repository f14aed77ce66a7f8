package engine

import "errors"

// Engine errors.
var (
	// ErrOutOfDeviceMemory is returned by a backend when an allocation
	// fails. The engine reacts by evicting cached intermediates and
	// retrying the pass once.
	ErrOutOfDeviceMemory = errors.New("engine: out of device memory")

	// ErrDeviceLost is returned by a backend when the device is gone.
	// The engine purges the render cache, reinitializes the backend and
	// retries once; a second loss aborts the render.
	ErrDeviceLost = errors.New("engine: device lost")

	// ErrKernelUnsupported is returned when a backend does not implement
	// a kernel the plan requires.
	ErrKernelUnsupported = errors.New("engine: kernel unsupported")

	// ErrNoBackend is returned when no backend with the requested name is
	// registered.
	ErrNoBackend = errors.New("engine: no such backend")
)
