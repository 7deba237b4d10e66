package report

import (
	"time"

	"github.com/cwbudde/hzgenerator/internal/opencl"
)

// Record is a persisted snapshot of one OpenCL initialization.
type Record struct {
	// RuntimeID is the ID of the runtime the record was taken from.
	RuntimeID string              `json:"runtimeId"`
	Settings  string              `json:"settings"`
	Timestamp time.Time           `json:"timestamp"`
	Platform  opencl.PlatformInfo `json:"platform"`
	Device    opencl.DeviceInfo   `json:"device"`
	Status    opencl.Status       `json:"status"`
	Kernels   []string            `json:"kernels,omitempty"`
	BuildLog  string              `json:"buildLog,omitempty"`
	Stages    opencl.Report       `json:"stages"`
}

// Info is the summary of a record returned by List.
type Info struct {
	RuntimeID string    `json:"runtimeId"`
	Timestamp time.Time `json:"timestamp"`
	OK        bool      `json:"ok"`
	Kernels   int       `json:"kernels"`
	Device    string    `json:"device"`
}

// FromRuntime captures the state of rt after Initialize.
func FromRuntime(rt *opencl.Runtime, settings string) *Record {
	return &Record{
		RuntimeID: rt.ID,
		Settings:  settings,
		Timestamp: time.Now(),
		Platform:  rt.Platform,
		Device:    rt.Device,
		Status:    rt.Status(),
		Kernels:   rt.Kernels().Names(),
		BuildLog:  rt.BuildLog(),
		Stages:    *rt.Report(),
	}
}

// OK reports whether every initialization stage succeeded.
func (r *Record) OK() bool {
	return r.Stages.OK()
}

// ToInfo extracts the listing summary of r.
func (r *Record) ToInfo() Info {
	return Info{
		RuntimeID: r.RuntimeID,
		Timestamp: r.Timestamp,
		OK:        r.OK(),
		Kernels:   len(r.Kernels),
		Device:    r.Device.Name,
	}
}
