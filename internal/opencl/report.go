package opencl

import (
	"errors"
	"fmt"
)

// Stage names one step of the initialization pipeline.
type Stage string

const (
	StagePlatforms Stage = "platforms"
	StageDevices   Stage = "devices"
	StageContext   Stage = "context"
	StageQueue     Stage = "queue"
	StageSources   Stage = "sources"
	StageProgram   Stage = "program"
	StageBuild     Stage = "build"
	StageBuildLog  Stage = "build_log"
	StageKernels   Stage = "kernels"
)

// StageError attributes a failure to the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOutcome records the result of a single stage.
type StageOutcome struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	err error
}

// Err returns the stage failure, or nil if the stage succeeded.
func (o StageOutcome) Err() error {
	if o.err != nil {
		return &StageError{Stage: o.Stage, Err: o.err}
	}
	if !o.Status.OK() {
		return &StageError{Stage: o.Stage, Err: o.Status}
	}
	// Reports decoded from JSON only carry the message.
	if o.Error != "" {
		return &StageError{Stage: o.Stage, Err: errors.New(o.Error)}
	}
	return nil
}

// Report is the ordered list of stage outcomes produced by Initialize.
type Report struct {
	Outcomes []StageOutcome `json:"outcomes"`
}

func (r *Report) record(stage Stage, status Status, err error) {
	o := StageOutcome{Stage: stage, Status: status, err: err}
	if err != nil {
		o.Error = err.Error()
	} else if !status.OK() {
		o.Error = status.Error()
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Status returns the bitwise OR of every native status recorded.
func (r *Report) Status() Status {
	var acc Status
	for _, o := range r.Outcomes {
		acc |= o.Status
	}
	return acc
}

// OK reports whether every recorded stage succeeded.
func (r *Report) OK() bool {
	for _, o := range r.Outcomes {
		if o.Err() != nil {
			return false
		}
	}
	return true
}

// Failed returns the outcomes of the stages that did not succeed.
func (r *Report) Failed() []StageOutcome {
	var out []StageOutcome
	for _, o := range r.Outcomes {
		if o.Err() != nil {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome recorded for stage.
func (r *Report) Outcome(stage Stage) (StageOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Stage == stage {
			return o, true
		}
	}
	return StageOutcome{}, false
}

// Err joins the errors of all failed stages. It returns nil when the
// pipeline completed successfully.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if err := o.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
