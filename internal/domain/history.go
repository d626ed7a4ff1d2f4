package domain

import "time"

// StepRecord is the persisted form of a StepResult.
type StepRecord struct {
	Step       Step       `json:"step"`
	Status     StepStatus `json:"status"`
	ExitCode   int        `json:"exitCode"`
	DurationMS int64      `json:"durationMs"`
}

// HistoryEntry records one pipeline run.
type HistoryEntry struct {
	Timestamp  time.Time    `json:"timestamp"`
	Passed     bool         `json:"passed"`
	DataFiles  int          `json:"dataFiles"`
	ReportPath string       `json:"reportPath,omitempty"`
	DurationMS int64        `json:"durationMs"`
	Steps      []StepRecord `json:"steps,omitempty"`
}

// History is an ordered list of pipeline runs, oldest first.
type History struct {
	Entries []HistoryEntry `json:"entries"`
}

// Last returns the most recent entry.
func (h History) Last() (HistoryEntry, bool) {
	if len(h.Entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.Entries[len(h.Entries)-1], true
}

// NewHistoryEntry converts a run result into its persisted form.
func NewHistoryEntry(result RunResult) HistoryEntry {
	entry := HistoryEntry{
		Timestamp:  result.Started,
		Passed:     result.Passed,
		DataFiles:  result.DataFiles,
		ReportPath: result.ReportPath,
		DurationMS: result.Duration.Milliseconds(),
		Steps:      make([]StepRecord, 0, len(result.Steps)),
	}
	for _, s := range result.Steps {
		entry.Steps = append(entry.Steps, StepRecord{
			Step:       s.Step,
			Status:     s.Status,
			ExitCode:   s.ExitCode,
			DurationMS: s.Duration.Milliseconds(),
		})
	}
	return entry
}
