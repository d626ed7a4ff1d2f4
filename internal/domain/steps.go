package domain

import "time"

// Step identifies one stage of the coverage pipeline.
type Step string

const (
	StepEnsureBuildDir Step = "ensure-build-dir"
	StepConfigure      Step = "configure"
	StepBuild          Step = "build"
	StepTest           Step = "test"
	StepReport         Step = "report"
)

// Steps lists the pipeline stages in execution order.
var Steps = []Step{StepEnsureBuildDir, StepConfigure, StepBuild, StepTest, StepReport}

// StepStatus is the three-valued outcome of a pipeline step, plus a skipped
// marker for steps after a fatal failure. A tolerated failure (the test step)
// keeps the pipeline running; a failed step aborts it.
type StepStatus string

const (
	StatusPassed    StepStatus = "passed"
	StatusTolerated StepStatus = "tolerated"
	StatusFailed    StepStatus = "failed"
	StatusSkipped   StepStatus = "skipped"
)

// StepResult records what happened to a single step.
type StepResult struct {
	Step     Step
	Status   StepStatus
	ExitCode int // -1 when no child process produced an exit code
	Duration time.Duration
	Detail   string
}

// RunResult is the outcome of one full pipeline run.
type RunResult struct {
	Steps      []StepResult
	Passed     bool
	DataFiles  int
	ReportPath string
	Started    time.Time
	Duration   time.Duration
}

// Record appends a step result and updates the pass flag. A run passes when
// no step failed; tolerated failures do not count against it.
func (r *RunResult) Record(s StepResult) {
	r.Steps = append(r.Steps, s)
	r.Passed = true
	for _, step := range r.Steps {
		if step.Status == StatusFailed {
			r.Passed = false
			return
		}
	}
}

// StatusOf returns the recorded status for a step, or StatusSkipped if the
// pipeline never reached it.
func (r RunResult) StatusOf(step Step) StepStatus {
	for _, s := range r.Steps {
		if s.Step == step {
			return s.Status
		}
	}
	return StatusSkipped
}

// FillSkipped records explicit skipped entries for steps the pipeline never
// reached, so summaries always show all five stages.
func (r *RunResult) FillSkipped() {
	seen := make(map[Step]bool, len(r.Steps))
	for _, s := range r.Steps {
		seen[s.Step] = true
	}
	for _, step := range Steps {
		if !seen[step] {
			r.Steps = append(r.Steps, StepResult{Step: step, Status: StatusSkipped, ExitCode: -1})
		}
	}
}
