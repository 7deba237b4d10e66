package opencl

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/hzgenerator/internal/manifest"
	"github.com/google/uuid"
)

// Runtime owns the OpenCL platform, device, context, command queue, program
// and kernel registry created by Initialize. After Initialize returns the
// Runtime is read-only and may be shared between goroutines; Close must not
// run concurrently with readers.
type Runtime struct {
	// ID identifies the runtime in log output and persisted reports.
	ID string
	// Platform and Device describe the selected platform/device pair.
	Platform PlatformInfo
	Device   DeviceInfo

	drv      Driver
	log      *slog.Logger
	platform Handle
	device   Handle
	context  Handle
	queue    Handle
	program  Handle
	kernels  []Handle
	registry *Registry
	buildLog string
	report   Report
}

// Initialize brings up OpenCL on platform 0, device 0 and compiles the
// kernels named by the settings file at settingsPath.
//
// Every stage is attempted once, in order. Native failures are recorded
// in the Report and do not stop later stages, except when no platform or
// device exists. A settings or source-file failure skips compilation.
// The kernel registry is only published when every stage succeeded.
//
// The returned Runtime is non-nil whenever drv is non-nil, even if err is
// not, so callers can inspect Report and release partial state with Close.
// Calling Initialize twice creates two independent runtimes.
func Initialize(drv Driver, settingsPath string) (*Runtime, error) {
	if drv == nil {
		return nil, errors.New("opencl: nil driver")
	}

	rt := &Runtime{
		ID:  uuid.NewString(),
		drv: drv,
	}
	rt.log = slog.With("runtime", rt.ID)

	rt.bringUp(settingsPath)

	if err := rt.report.Err(); err != nil {
		rt.log.Warn("OpenCL initialisation failed",
			"status", rt.report.Status().Name(),
			"failed_stages", len(rt.report.Failed()),
		)
		return rt, err
	}

	rt.log.Info("OpenCL runtime initialised",
		"platform", rt.Platform.Name,
		"device", rt.Device.Name,
		"vendor", rt.Device.Vendor,
		"compute_units", rt.Device.MaxComputeUnits,
		"kernels", rt.registry.Len(),
	)
	return rt, nil
}

func (rt *Runtime) bringUp(settingsPath string) {
	if !rt.selectPlatform() {
		return
	}
	props := PlatformProperties(rt.platform)
	if !rt.selectDevice() {
		return
	}

	rt.createContext(props)
	rt.createQueue()

	bundle, err := manifest.LoadBundle(settingsPath)
	if err != nil {
		rt.log.Error("Invalid OpenCLSettings.json file", "path", settingsPath, "err", err)
		rt.record(StageSources, Success, err)
		return
	}
	rt.record(StageSources, Success, nil)
	rt.log.Debug("Loaded kernel sources", "files", bundle.Files, "options", bundle.CompileOptions)

	rt.compile(bundle)
	rt.emitBuildLog()
	rt.createKernels()
}

func (rt *Runtime) record(stage Stage, status Status, err error) {
	rt.report.record(stage, status, err)
	rt.log.Debug("OpenCL stage", "stage", stage, "status", status.Name(), "err", err)
}

func (rt *Runtime) selectPlatform() bool {
	platforms, status := rt.drv.PlatformIDs()
	if !status.OK() {
		rt.record(StagePlatforms, status, nil)
		return false
	}
	if len(platforms) == 0 {
		rt.record(StagePlatforms, status, ErrNoDevices)
		return false
	}
	rt.platform = platforms[0]
	rt.record(StagePlatforms, status, nil)

	info, err := rt.drv.PlatformInfo(rt.platform)
	if err != nil {
		rt.log.Warn("Failed to query platform info", "err", err)
	}
	rt.Platform = info
	return true
}

func (rt *Runtime) selectDevice() bool {
	devices, status := rt.drv.DeviceIDs(rt.platform, DeviceTypeAll)
	if status == DeviceNotFound || (status.OK() && len(devices) == 0) {
		rt.record(StageDevices, status, ErrNoDevices)
		return false
	}
	if !status.OK() {
		rt.record(StageDevices, status, nil)
		return false
	}
	rt.device = devices[0]
	rt.record(StageDevices, status, nil)

	info, err := rt.drv.DeviceInfo(rt.device)
	if err != nil {
		rt.log.Warn("Failed to query device info", "err", err)
	}
	rt.Device = info
	return true
}

func (rt *Runtime) createContext(props ContextProperties) {
	ctx, status := rt.drv.CreateContext(props, []Handle{rt.device})
	rt.context = ctx
	rt.record(StageContext, status, nil)
}

func (rt *Runtime) createQueue() {
	queue, status := rt.drv.CreateCommandQueue(rt.context, rt.device)
	rt.queue = queue
	rt.record(StageQueue, status, nil)
}

func (rt *Runtime) compile(bundle *manifest.Bundle) {
	program, status := rt.drv.CreateProgramWithSource(rt.context, bundle.Sources)
	rt.program = program
	rt.record(StageProgram, status, nil)

	status = rt.drv.BuildProgram(rt.program, nil, bundle.CompileOptions)
	rt.record(StageBuild, status, nil)
}

// emitBuildLog always runs after a build attempt: compilers report
// warnings without failing the build.
func (rt *Runtime) emitBuildLog() {
	log, status := rt.drv.ProgramBuildLog(rt.program, rt.device)
	rt.buildLog = log
	rt.record(StageBuildLog, status, nil)

	if build, ok := rt.report.Outcome(StageBuild); ok && build.Err() != nil {
		rt.log.Error("OpenCL build log", "log", log)
		return
	}
	rt.log.Info("OpenCL build log", "log", log)
}

func (rt *Runtime) createKernels() {
	kernels, acc := rt.drv.CreateKernelsInProgram(rt.program)
	rt.kernels = kernels

	reg := newRegistry(len(kernels))
	var regErr error
	for _, k := range kernels {
		name, status := rt.drv.KernelFunctionName(k)
		acc |= status
		if !status.OK() {
			continue
		}
		if err := reg.add(name, k); err != nil && regErr == nil {
			regErr = err
		}
	}
	rt.record(StageKernels, acc, regErr)

	if rt.report.OK() {
		rt.registry = reg
	}
}

// Report returns the per-stage outcomes of initialization.
func (rt *Runtime) Report() *Report { return &rt.report }

// Status returns the bitwise OR of every native status seen during
// initialization. Zero means every native call succeeded.
func (rt *Runtime) Status() Status { return rt.report.Status() }

// BuildLog returns the compiler output of the program build.
func (rt *Runtime) BuildLog() string { return rt.buildLog }

// Driver returns the driver the runtime was created with.
func (rt *Runtime) Driver() Driver { return rt.drv }

// PlatformID returns the selected platform handle.
func (rt *Runtime) PlatformID() Handle { return rt.platform }

// DeviceID returns the selected device handle.
func (rt *Runtime) DeviceID() Handle { return rt.device }

// Context returns the context handle.
func (rt *Runtime) Context() Handle { return rt.context }

// Queue returns the command queue handle.
func (rt *Runtime) Queue() Handle { return rt.queue }

// Program returns the compiled program handle.
func (rt *Runtime) Program() Handle { return rt.program }

// Kernels returns the kernel registry, or nil if initialization failed.
func (rt *Runtime) Kernels() *Registry { return rt.registry }

// Kernel returns the handle of the kernel whose function name is name.
func (rt *Runtime) Kernel(name string) (Handle, error) {
	if rt.registry == nil {
		return 0, ErrRegistryUnavailable
	}
	k, ok := rt.registry.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrKernelNotFound, name)
	}
	return k, nil
}

// Require checks that every named kernel is registered.
func (rt *Runtime) Require(names ...string) error {
	var errs []error
	for _, name := range names {
		if _, err := rt.Kernel(name); err != nil {
			if errors.Is(err, ErrRegistryUnavailable) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases kernels, program, queue and context in reverse creation
// order. The registry is unusable afterwards.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.registry = nil
	for _, k := range rt.kernels {
		if !k.IsNull() {
			rt.drv.ReleaseKernel(k)
		}
	}
	rt.kernels = nil
	if !rt.program.IsNull() {
		rt.drv.ReleaseProgram(rt.program)
		rt.program = 0
	}
	if !rt.queue.IsNull() {
		rt.drv.ReleaseCommandQueue(rt.queue)
		rt.queue = 0
	}
	if !rt.context.IsNull() {
		rt.drv.ReleaseContext(rt.context)
		rt.context = 0
	}
}
