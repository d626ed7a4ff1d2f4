package domain

import (
	"testing"
	"time"
)

func TestRecordPassed(t *testing.T) {
	var r RunResult
	r.Record(StepResult{Step: StepEnsureBuildDir, Status: StatusPassed, ExitCode: -1})
	r.Record(StepResult{Step: StepConfigure, Status: StatusPassed})
	if !r.Passed {
		t.Fatalf("expected run to pass")
	}
}

func TestRecordToleratedDoesNotFail(t *testing.T) {
	var r RunResult
	r.Record(StepResult{Step: StepTest, Status: StatusTolerated, ExitCode: 8})
	if !r.Passed {
		t.Fatalf("tolerated step must not fail the run")
	}
}

func TestRecordFailed(t *testing.T) {
	var r RunResult
	r.Record(StepResult{Step: StepConfigure, Status: StatusPassed})
	r.Record(StepResult{Step: StepBuild, Status: StatusFailed, ExitCode: 2})
	if r.Passed {
		t.Fatalf("failed step must fail the run")
	}
}

func TestStatusOfUnreachedStep(t *testing.T) {
	var r RunResult
	r.Record(StepResult{Step: StepConfigure, Status: StatusFailed, ExitCode: 1})
	if got := r.StatusOf(StepReport); got != StatusSkipped {
		t.Fatalf("expected skipped, got %s", got)
	}
}

func TestFillSkipped(t *testing.T) {
	var r RunResult
	r.Record(StepResult{Step: StepEnsureBuildDir, Status: StatusPassed, ExitCode: -1})
	r.Record(StepResult{Step: StepConfigure, Status: StatusFailed, ExitCode: 1})
	r.FillSkipped()
	if len(r.Steps) != len(Steps) {
		t.Fatalf("expected %d steps, got %d", len(Steps), len(r.Steps))
	}
	if r.StatusOf(StepBuild) != StatusSkipped || r.StatusOf(StepReport) != StatusSkipped {
		t.Fatalf("expected later steps skipped")
	}
}

func TestNewHistoryEntry(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := RunResult{
		Passed:     true,
		DataFiles:  7,
		ReportPath: "build/coverage.html",
		Started:    started,
		Duration:   90 * time.Second,
	}
	result.Record(StepResult{Step: StepTest, Status: StatusTolerated, ExitCode: 1, Duration: 2 * time.Second})

	entry := NewHistoryEntry(result)
	if !entry.Timestamp.Equal(started) {
		t.Fatalf("timestamp mismatch")
	}
	if entry.DataFiles != 7 {
		t.Fatalf("expected 7 data files, got %d", entry.DataFiles)
	}
	if entry.DurationMS != 90_000 {
		t.Fatalf("expected 90000ms, got %d", entry.DurationMS)
	}
	if len(entry.Steps) != 1 || entry.Steps[0].Status != StatusTolerated {
		t.Fatalf("expected tolerated step record")
	}
}

func TestHistoryLast(t *testing.T) {
	var h History
	if _, ok := h.Last(); ok {
		t.Fatalf("expected no entry for empty history")
	}
	h.Entries = append(h.Entries, HistoryEntry{DataFiles: 1}, HistoryEntry{DataFiles: 2})
	last, ok := h.Last()
	if !ok || last.DataFiles != 2 {
		t.Fatalf("expected last entry")
	}
}
