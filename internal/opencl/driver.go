package opencl

import "errors"

var (
	// ErrNoDevices indicates that no usable OpenCL platform or device was found.
	ErrNoDevices = errors.New("no OpenCL devices found")
	// ErrNotBuilt indicates the binary was built without GPU support.
	ErrNotBuilt = errors.New("opencl support requires building with '-tags gpu'")
)

// Driver exposes the native OpenCL entry points used to bring up a Runtime.
//
// Every call mirrors one native operation and reports the raw status code
// instead of an error, so that Initialize can record and accumulate them
// stage by stage. Enumeration calls perform the usual two-step query
// (count, then list) and return the first non-success status.
type Driver interface {
	PlatformIDs() ([]Handle, Status)
	DeviceIDs(platform Handle, typ DeviceType) ([]Handle, Status)
	PlatformInfo(platform Handle) (PlatformInfo, error)
	DeviceInfo(device Handle) (DeviceInfo, error)

	CreateContext(props ContextProperties, devices []Handle) (Handle, Status)
	// CreateCommandQueue creates an in-order queue without properties.
	CreateCommandQueue(context, device Handle) (Handle, Status)
	CreateProgramWithSource(context Handle, sources []string) (Handle, Status)
	// BuildProgram blocks until the compiler returns. A nil device list
	// builds for every device of the program's context.
	BuildProgram(program Handle, devices []Handle, options string) Status
	ProgramBuildLog(program, device Handle) (string, Status)
	CreateKernelsInProgram(program Handle) ([]Handle, Status)
	KernelFunctionName(kernel Handle) (string, Status)

	ReleaseKernel(kernel Handle) Status
	ReleaseProgram(program Handle) Status
	ReleaseCommandQueue(queue Handle) Status
	ReleaseContext(context Handle) Status
}

// EnumeratePlatforms returns discovered platforms with their devices.
func EnumeratePlatforms(drv Driver) ([]PlatformInfo, error) {
	platforms, status := drv.PlatformIDs()
	if !status.OK() {
		return nil, &StageError{Stage: StagePlatforms, Err: status}
	}

	out := make([]PlatformInfo, 0, len(platforms))
	for _, pid := range platforms {
		info, err := drv.PlatformInfo(pid)
		if err != nil {
			return nil, err
		}

		devices, status := drv.DeviceIDs(pid, DeviceTypeAll)
		if status == DeviceNotFound {
			out = append(out, info)
			continue
		}
		if !status.OK() {
			return nil, &StageError{Stage: StageDevices, Err: status}
		}

		info.Devices = make([]DeviceInfo, 0, len(devices))
		for _, did := range devices {
			dev, err := drv.DeviceInfo(did)
			if err != nil {
				return nil, err
			}
			info.Devices = append(info.Devices, dev)
		}
		out = append(out, info)
	}
	return out, nil
}
