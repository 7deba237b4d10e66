//go:build !gpu

package opencl

// NewDriver returns ErrNotBuilt when GPU support is not compiled in.
func NewDriver() (Driver, error) {
	return nil, ErrNotBuilt
}
