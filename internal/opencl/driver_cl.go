//go:build gpu

package opencl

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <CL/cl.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// clDriver calls the system OpenCL ICD loader. Native objects are kept in
// a handle table so that no C pointer escapes into package-level types.
type clDriver struct {
	mu      sync.Mutex
	objects []unsafe.Pointer
	index   map[unsafe.Pointer]Handle
}

// NewDriver returns a Driver backed by the system OpenCL library.
func NewDriver() (Driver, error) {
	return &clDriver{index: make(map[unsafe.Pointer]Handle)}, nil
}

func (d *clDriver) put(p unsafe.Pointer) Handle {
	if p == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := d.index[p]; ok {
		return h
	}
	d.objects = append(d.objects, p)
	h := Handle(len(d.objects))
	d.index[p] = h
	return h
}

func (d *clDriver) get(h Handle) unsafe.Pointer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == 0 || int(h) > len(d.objects) {
		return nil
	}
	return d.objects[h-1]
}

func (d *clDriver) forget(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == 0 || int(h) > len(d.objects) {
		return
	}
	delete(d.index, d.objects[h-1])
	d.objects[h-1] = nil
}

func (d *clDriver) deviceList(devices []Handle) []C.cl_device_id {
	ids := make([]C.cl_device_id, len(devices))
	for i, h := range devices {
		ids[i] = C.cl_device_id(d.get(h))
	}
	return ids
}

func (d *clDriver) PlatformIDs() ([]Handle, Status) {
	var count C.cl_uint
	status := C.clGetPlatformIDs(0, nil, &count)
	if Status(status) == PlatformNotFoundKHR {
		return nil, Success
	}
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}
	if count == 0 {
		return nil, Success
	}

	ids := make([]C.cl_platform_id, int(count))
	status = C.clGetPlatformIDs(count, &ids[0], nil)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}

	out := make([]Handle, len(ids))
	for i, id := range ids {
		out[i] = d.put(unsafe.Pointer(id))
	}
	return out, Success
}

func (d *clDriver) DeviceIDs(platform Handle, typ DeviceType) ([]Handle, Status) {
	pid := C.cl_platform_id(d.get(platform))
	clType := toCLDeviceType(typ)

	var count C.cl_uint
	status := C.clGetDeviceIDs(pid, clType, 0, nil, &count)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}
	if count == 0 {
		return nil, Success
	}

	ids := make([]C.cl_device_id, int(count))
	status = C.clGetDeviceIDs(pid, clType, count, &ids[0], nil)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}

	out := make([]Handle, len(ids))
	for i, id := range ids {
		out[i] = d.put(unsafe.Pointer(id))
	}
	return out, Success
}

func (d *clDriver) PlatformInfo(platform Handle) (PlatformInfo, error) {
	pid := C.cl_platform_id(d.get(platform))

	name, err := getPlatformString(pid, C.CL_PLATFORM_NAME)
	if err != nil {
		return PlatformInfo{}, err
	}
	vendor, err := getPlatformString(pid, C.CL_PLATFORM_VENDOR)
	if err != nil {
		return PlatformInfo{}, err
	}
	version, err := getPlatformString(pid, C.CL_PLATFORM_VERSION)
	if err != nil {
		return PlatformInfo{}, err
	}

	return PlatformInfo{
		Name:    name,
		Vendor:  vendor,
		Version: version,
	}, nil
}

func (d *clDriver) DeviceInfo(device Handle) (DeviceInfo, error) {
	id := C.cl_device_id(d.get(device))

	name, err := getDeviceString(id, C.CL_DEVICE_NAME)
	if err != nil {
		return DeviceInfo{}, err
	}
	vendor, err := getDeviceString(id, C.CL_DEVICE_VENDOR)
	if err != nil {
		return DeviceInfo{}, err
	}
	version, err := getDeviceString(id, C.CL_DEVICE_VERSION)
	if err != nil {
		return DeviceInfo{}, err
	}

	var rawType C.cl_device_type
	status := C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil)
	if status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(type)", status)
	}

	var computeUnits C.cl_uint
	status = C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(computeUnits)), unsafe.Pointer(&computeUnits), nil)
	if status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(computeUnits)", status)
	}

	return DeviceInfo{
		Name:            name,
		Vendor:          vendor,
		Version:         version,
		Type:            fromCLDeviceType(rawType),
		MaxComputeUnits: uint32(computeUnits),
	}, nil
}

func (d *clDriver) CreateContext(props ContextProperties, devices []Handle) (Handle, Status) {
	if len(devices) == 0 {
		return 0, InvalidValue
	}

	cprops := make([]C.cl_context_properties, 0, 2*len(props)+1)
	for _, p := range props {
		switch p.Key {
		case ContextPlatform:
			cprops = append(cprops, C.CL_CONTEXT_PLATFORM, C.cl_context_properties(uintptr(d.get(p.Value))))
		}
	}
	cprops = append(cprops, 0)

	ids := d.deviceList(devices)

	var status C.cl_int
	ctx := C.clCreateContext(&cprops[0], C.cl_uint(len(ids)), &ids[0], nil, nil, &status)
	if status != C.CL_SUCCESS {
		return 0, Status(status)
	}
	return d.put(unsafe.Pointer(ctx)), Success
}

// CreateCommandQueue uses the OpenCL 1.2 entry point; properties-based
// creation needs a 2.0 runtime on every target vendor first.
func (d *clDriver) CreateCommandQueue(context, device Handle) (Handle, Status) {
	var status C.cl_int
	queue := C.clCreateCommandQueue(C.cl_context(d.get(context)), C.cl_device_id(d.get(device)), 0, &status)
	if status != C.CL_SUCCESS {
		return 0, Status(status)
	}
	return d.put(unsafe.Pointer(queue)), Success
}

func (d *clDriver) CreateProgramWithSource(context Handle, sources []string) (Handle, Status) {
	if len(sources) == 0 {
		return 0, InvalidValue
	}

	csources := make([]*C.char, len(sources))
	for i, src := range sources {
		csources[i] = C.CString(src)
	}
	defer func() {
		for _, cs := range csources {
			C.free(unsafe.Pointer(cs))
		}
	}()

	var status C.cl_int
	program := C.clCreateProgramWithSource(C.cl_context(d.get(context)), C.cl_uint(len(csources)), &csources[0], nil, &status)
	if status != C.CL_SUCCESS {
		return 0, Status(status)
	}
	return d.put(unsafe.Pointer(program)), Success
}

func (d *clDriver) BuildProgram(program Handle, devices []Handle, options string) Status {
	var cOptions *C.char
	if options != "" {
		cOptions = C.CString(options)
		defer C.free(unsafe.Pointer(cOptions))
	}

	ids := d.deviceList(devices)
	var idsPtr *C.cl_device_id
	if len(ids) > 0 {
		idsPtr = &ids[0]
	}

	return Status(C.clBuildProgram(C.cl_program(d.get(program)), C.cl_uint(len(ids)), idsPtr, cOptions, nil, nil))
}

func (d *clDriver) ProgramBuildLog(program, device Handle) (string, Status) {
	prog := C.cl_program(d.get(program))
	dev := C.cl_device_id(d.get(device))

	var logSize C.size_t
	if status := C.clGetProgramBuildInfo(prog, dev, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize); status != C.CL_SUCCESS {
		return "", Status(status)
	}
	if logSize == 0 {
		return "", Success
	}

	buf := make([]byte, int(logSize))
	if status := C.clGetProgramBuildInfo(prog, dev, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return "", Status(status)
	}
	return trimNull(buf), Success
}

func (d *clDriver) CreateKernelsInProgram(program Handle) ([]Handle, Status) {
	prog := C.cl_program(d.get(program))

	var count C.cl_uint
	status := C.clCreateKernelsInProgram(prog, 0, nil, &count)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}
	if count == 0 {
		return nil, Success
	}

	kernels := make([]C.cl_kernel, int(count))
	status = C.clCreateKernelsInProgram(prog, count, &kernels[0], nil)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}

	out := make([]Handle, len(kernels))
	for i, k := range kernels {
		out[i] = d.put(unsafe.Pointer(k))
	}
	return out, Success
}

func (d *clDriver) KernelFunctionName(kernel Handle) (string, Status) {
	k := C.cl_kernel(d.get(kernel))

	var size C.size_t
	status := C.clGetKernelInfo(k, C.CL_KERNEL_FUNCTION_NAME, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", Status(status)
	}
	if size == 0 {
		return "", Success
	}

	buf := make([]byte, int(size))
	status = C.clGetKernelInfo(k, C.CL_KERNEL_FUNCTION_NAME, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", Status(status)
	}
	return trimNull(buf), Success
}

func (d *clDriver) ReleaseKernel(kernel Handle) Status {
	status := C.clReleaseKernel(C.cl_kernel(d.get(kernel)))
	d.forget(kernel)
	return Status(status)
}

func (d *clDriver) ReleaseProgram(program Handle) Status {
	status := C.clReleaseProgram(C.cl_program(d.get(program)))
	d.forget(program)
	return Status(status)
}

func (d *clDriver) ReleaseCommandQueue(queue Handle) Status {
	status := C.clReleaseCommandQueue(C.cl_command_queue(d.get(queue)))
	d.forget(queue)
	return Status(status)
}

func (d *clDriver) ReleaseContext(context Handle) Status {
	status := C.clReleaseContext(C.cl_context(d.get(context)))
	d.forget(context)
	return Status(status)
}

func getPlatformString(id C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	status := C.clGetPlatformInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(value)", status)
	}

	return trimNull(buf), nil
}

func getDeviceString(id C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	status := C.clGetDeviceInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(value)", status)
	}

	return trimNull(buf), nil
}

func toCLDeviceType(t DeviceType) C.cl_device_type {
	switch t {
	case DeviceTypeGPU:
		return C.CL_DEVICE_TYPE_GPU
	case DeviceTypeCPU:
		return C.CL_DEVICE_TYPE_CPU
	case DeviceTypeAccelerator:
		return C.CL_DEVICE_TYPE_ACCELERATOR
	case DeviceTypeDefault:
		return C.CL_DEVICE_TYPE_DEFAULT
	default:
		return C.CL_DEVICE_TYPE_ALL
	}
}

func fromCLDeviceType(dt C.cl_device_type) DeviceType {
	switch {
	case dt&C.CL_DEVICE_TYPE_GPU != 0:
		return DeviceTypeGPU
	case dt&C.CL_DEVICE_TYPE_CPU != 0:
		return DeviceTypeCPU
	case dt&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return DeviceTypeAccelerator
	case dt&C.CL_DEVICE_TYPE_DEFAULT != 0:
		return DeviceTypeDefault
	default:
		return DeviceTypeUnknown
	}
}

func statusError(prefix string, status C.cl_int) error {
	return fmt.Errorf("%s: %w", prefix, Status(status))
}
