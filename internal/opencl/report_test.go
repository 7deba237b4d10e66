package opencl

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestReportStatusAccumulates(t *testing.T) {
	var r Report
	r.record(StagePlatforms, Success, nil)
	r.record(StageContext, InvalidValue, nil)
	r.record(StageQueue, InvalidContext, nil)

	if got, want := r.Status(), InvalidValue|InvalidContext; got != want {
		t.Fatalf("Status() = %d, want %d", got, want)
	}
	if r.OK() {
		t.Fatal("expected report with failed stages to be not OK")
	}
	if n := len(r.Failed()); n != 2 {
		t.Fatalf("expected 2 failed stages, got %d", n)
	}
}

func TestReportErrWrapsStages(t *testing.T) {
	var r Report
	r.record(StageDevices, DeviceNotFound, ErrNoDevices)
	r.record(StageBuild, BuildProgramFailure, nil)

	err := r.Err()
	if !errors.Is(err, ErrNoDevices) {
		t.Errorf("expected ErrNoDevices in %v", err)
	}
	if !errors.Is(err, BuildProgramFailure) {
		t.Errorf("expected BuildProgramFailure in %v", err)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageDevices {
		t.Errorf("expected first stage error to be %q, got %v", StageDevices, stageErr)
	}
}

func TestReportErrNilOnSuccess(t *testing.T) {
	var r Report
	r.record(StagePlatforms, Success, nil)
	if err := r.Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !r.OK() {
		t.Fatal("expected OK report")
	}
}

func TestReportDecodedKeepsFailures(t *testing.T) {
	var r Report
	r.record(StageSources, Success, errors.New("invalid OpenCL settings: missing \"Sources\""))

	data, err := json.Marshal(&r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.OK() {
		t.Fatal("decoded report lost its sources failure")
	}
}

func TestStatusNames(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{Success, "CL_SUCCESS"},
		{BuildProgramFailure, "CL_BUILD_PROGRAM_FAILURE"},
		{InvalidMipLevel, "CL_INVALID_MIP_LEVEL"},
		{PlatformNotFoundKHR, "CL_PLATFORM_NOT_FOUND_KHR"},
		{Status(-9999), "CL_UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		if got := tt.status.Name(); got != tt.want {
			t.Errorf("Status(%d).Name() = %q, want %q", tt.status, got, tt.want)
		}
	}

	if got := InvalidContext.Error(); got != "CL_INVALID_CONTEXT (-34)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestTrimNull(t *testing.T) {
	if got := trimNull([]byte("render_cost\x00")); got != "render_cost" {
		t.Errorf("trimNull = %q", got)
	}
	if got := trimNull(nil); got != "" {
		t.Errorf("trimNull(nil) = %q", got)
	}
	if got := trimNull([]byte("abc")); got != "abc" {
		t.Errorf("trimNull = %q", got)
	}
}
