// Package opencltest provides an in-memory OpenCL driver for tests.
package opencltest

import (
	"regexp"
	"strings"

	"github.com/cwbudde/hzgenerator/internal/opencl"
)

var kernelDecl = regexp.MustCompile(`__kernel\s+void\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// Driver emulates an OpenCL implementation with one platform and one
// device. Its compiler registers every __kernel declaration found in the
// sources and fails the build on any source containing #error, using the
// rest of that line as the build log.
//
// Driver is not safe for concurrent use.
type Driver struct {
	Platforms []opencl.Handle
	Devices   []opencl.Handle

	// Fail forces the named method to return the given status.
	Fail map[string]opencl.Status

	// Calls lists the methods invoked, in order. Info and release calls
	// are not recorded.
	Calls []string
	// Sources and Options capture the last program submitted.
	Sources []string
	Options string
	// BuildLog is returned by ProgramBuildLog.
	BuildLog string
	// Released lists every handle passed to a Release method.
	Released []opencl.Handle

	next    opencl.Handle
	built   bool
	kernels map[opencl.Handle]string
}

// NewDriver returns a Driver with platform handle 1 and device handle 2.
func NewDriver() *Driver {
	return &Driver{
		Platforms: []opencl.Handle{1},
		Devices:   []opencl.Handle{2},
		Fail:      make(map[string]opencl.Status),
		next:      100,
		kernels:   make(map[opencl.Handle]string),
	}
}

// Called reports whether method was invoked.
func (d *Driver) Called(method string) bool {
	for _, c := range d.Calls {
		if c == method {
			return true
		}
	}
	return false
}

func (d *Driver) call(name string) opencl.Status {
	d.Calls = append(d.Calls, name)
	if s, ok := d.Fail[name]; ok {
		return s
	}
	return opencl.Success
}

func (d *Driver) alloc() opencl.Handle {
	d.next++
	return d.next
}

func (d *Driver) PlatformIDs() ([]opencl.Handle, opencl.Status) {
	if s := d.call("PlatformIDs"); !s.OK() {
		return nil, s
	}
	return d.Platforms, opencl.Success
}

func (d *Driver) DeviceIDs(platform opencl.Handle, _ opencl.DeviceType) ([]opencl.Handle, opencl.Status) {
	if s := d.call("DeviceIDs"); !s.OK() {
		return nil, s
	}
	if platform.IsNull() {
		return nil, opencl.InvalidPlatform
	}
	return d.Devices, opencl.Success
}

func (d *Driver) PlatformInfo(opencl.Handle) (opencl.PlatformInfo, error) {
	return opencl.PlatformInfo{Name: "Fake Platform", Vendor: "hzgenerator", Version: "OpenCL 1.2"}, nil
}

func (d *Driver) DeviceInfo(opencl.Handle) (opencl.DeviceInfo, error) {
	return opencl.DeviceInfo{
		Name:            "Fake Device",
		Vendor:          "hzgenerator",
		Version:         "OpenCL 1.2",
		Type:            opencl.DeviceTypeGPU,
		MaxComputeUnits: 4,
	}, nil
}

func (d *Driver) CreateContext(props opencl.ContextProperties, devices []opencl.Handle) (opencl.Handle, opencl.Status) {
	if s := d.call("CreateContext"); !s.OK() {
		return 0, s
	}
	if len(props) != 1 || props[0].Key != opencl.ContextPlatform || len(devices) != 1 {
		return 0, opencl.InvalidValue
	}
	return d.alloc(), opencl.Success
}

func (d *Driver) CreateCommandQueue(context, device opencl.Handle) (opencl.Handle, opencl.Status) {
	if s := d.call("CreateCommandQueue"); !s.OK() {
		return 0, s
	}
	if context.IsNull() {
		return 0, opencl.InvalidContext
	}
	if device.IsNull() {
		return 0, opencl.InvalidDevice
	}
	return d.alloc(), opencl.Success
}

func (d *Driver) CreateProgramWithSource(context opencl.Handle, sources []string) (opencl.Handle, opencl.Status) {
	if s := d.call("CreateProgramWithSource"); !s.OK() {
		return 0, s
	}
	if context.IsNull() {
		return 0, opencl.InvalidContext
	}
	d.Sources = append([]string(nil), sources...)
	d.built = false
	return d.alloc(), opencl.Success
}

func (d *Driver) BuildProgram(program opencl.Handle, _ []opencl.Handle, options string) opencl.Status {
	if s := d.call("BuildProgram"); !s.OK() {
		return s
	}
	if program.IsNull() {
		return opencl.InvalidProgram
	}
	d.Options = options
	for _, src := range d.Sources {
		if i := strings.Index(src, "#error"); i >= 0 {
			line, _, _ := strings.Cut(src[i+len("#error"):], "\n")
			d.BuildLog = "error: " + strings.TrimSpace(line)
			return opencl.BuildProgramFailure
		}
	}
	d.built = true
	return opencl.Success
}

func (d *Driver) ProgramBuildLog(program, _ opencl.Handle) (string, opencl.Status) {
	if s := d.call("ProgramBuildLog"); !s.OK() {
		return "", s
	}
	if program.IsNull() {
		return "", opencl.InvalidProgram
	}
	return d.BuildLog, opencl.Success
}

func (d *Driver) CreateKernelsInProgram(program opencl.Handle) ([]opencl.Handle, opencl.Status) {
	if s := d.call("CreateKernelsInProgram"); !s.OK() {
		return nil, s
	}
	if program.IsNull() {
		return nil, opencl.InvalidProgram
	}
	if !d.built {
		return nil, opencl.InvalidProgramExecutable
	}
	var out []opencl.Handle
	for _, src := range d.Sources {
		for _, m := range kernelDecl.FindAllStringSubmatch(src, -1) {
			k := d.alloc()
			d.kernels[k] = m[1]
			out = append(out, k)
		}
	}
	return out, opencl.Success
}

func (d *Driver) KernelFunctionName(kernel opencl.Handle) (string, opencl.Status) {
	if s := d.call("KernelFunctionName"); !s.OK() {
		return "", s
	}
	name, ok := d.kernels[kernel]
	if !ok {
		return "", opencl.InvalidKernel
	}
	return name, opencl.Success
}

func (d *Driver) ReleaseKernel(k opencl.Handle) opencl.Status { return d.release(k) }
func (d *Driver) ReleaseProgram(p opencl.Handle) opencl.Status { return d.release(p) }
func (d *Driver) ReleaseCommandQueue(q opencl.Handle) opencl.Status { return d.release(q) }
func (d *Driver) ReleaseContext(c opencl.Handle) opencl.Status { return d.release(c) }

func (d *Driver) release(h opencl.Handle) opencl.Status {
	d.Released = append(d.Released, h)
	return opencl.Success
}

var _ opencl.Driver = (*Driver)(nil)
