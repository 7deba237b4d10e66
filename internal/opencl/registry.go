package opencl

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrRegistryUnavailable is returned by lookups on a Runtime whose
	// initialization did not complete.
	ErrRegistryUnavailable = errors.New("kernel registry unavailable: initialization failed")
	// ErrKernelNotFound is returned when no compiled kernel has the requested name.
	ErrKernelNotFound = errors.New("kernel not found")
	// ErrDuplicateKernel is returned when the driver reports the same kernel
	// function name twice.
	ErrDuplicateKernel = errors.New("duplicate kernel name")
)

// Registry maps kernel function names to kernel handles. It is immutable
// once published by Initialize and safe for concurrent reads.
type Registry struct {
	kernels map[string]Handle
}

func newRegistry(n int) *Registry {
	return &Registry{kernels: make(map[string]Handle, n)}
}

func (r *Registry) add(name string, k Handle) error {
	if _, exists := r.kernels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKernel, name)
	}
	r.kernels[name] = k
	return nil
}

// Lookup returns the kernel handle registered under name.
func (r *Registry) Lookup(name string) (Handle, bool) {
	if r == nil {
		return 0, false
	}
	k, ok := r.kernels[name]
	return k, ok
}

// Len returns the number of registered kernels.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.kernels)
}

// Names returns the registered kernel names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
