package opencl

// Handle is an opaque reference to a native OpenCL object owned by a Driver.
// The zero value is the null handle.
type Handle uint64

// IsNull reports whether h refers to no object.
func (h Handle) IsNull() bool { return h == 0 }

// DeviceType describes the class of an OpenCL device.
type DeviceType string

const (
	DeviceTypeAll         DeviceType = "All"
	DeviceTypeGPU         DeviceType = "GPU"
	DeviceTypeCPU         DeviceType = "CPU"
	DeviceTypeAccelerator DeviceType = "Accelerator"
	DeviceTypeDefault     DeviceType = "Default"
	DeviceTypeUnknown     DeviceType = "Unknown"
)

// DeviceInfo captures metadata about an OpenCL device.
type DeviceInfo struct {
	Name            string     `json:"name"`
	Vendor          string     `json:"vendor"`
	Version         string     `json:"version"`
	Type            DeviceType `json:"type"`
	MaxComputeUnits uint32     `json:"maxComputeUnits"`
}

// PlatformInfo captures metadata about an OpenCL platform and its devices.
type PlatformInfo struct {
	Name    string       `json:"name"`
	Vendor  string       `json:"vendor"`
	Version string       `json:"version"`
	Devices []DeviceInfo `json:"devices,omitempty"`
}

// ContextProperty is a single key/value entry of a context property list.
type ContextProperty struct {
	Key   ContextPropertyKey
	Value Handle
}

// ContextPropertyKey names a context property.
type ContextPropertyKey int

const (
	// ContextPlatform binds a context to a platform (CL_CONTEXT_PLATFORM).
	ContextPlatform ContextPropertyKey = iota + 1
)

// ContextProperties is the property list passed to context creation.
type ContextProperties []ContextProperty

// PlatformProperties returns the property list that binds a context to platform.
func PlatformProperties(platform Handle) ContextProperties {
	return ContextProperties{{Key: ContextPlatform, Value: platform}}
}
