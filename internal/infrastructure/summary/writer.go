package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/covpipe/covpipe/internal/application"
	"github.com/covpipe/covpipe/internal/domain"
)

// Writer renders a pipeline run as a step table or as JSON.
type Writer struct{}

func (Writer) Write(w io.Writer, result domain.RunResult, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		payload := struct {
			Steps      []stepPayload `json:"steps"`
			Passed     bool          `json:"passed"`
			DataFiles  int           `json:"dataFiles"`
			ReportPath string        `json:"reportPath,omitempty"`
			DurationMS int64         `json:"durationMs"`
		}{
			Steps:      make([]stepPayload, 0, len(result.Steps)),
			Passed:     result.Passed,
			DataFiles:  result.DataFiles,
			ReportPath: result.ReportPath,
			DurationMS: result.Duration.Milliseconds(),
		}
		for _, s := range result.Steps {
			payload.Steps = append(payload.Steps, stepPayload{
				Step:       string(s.Step),
				Status:     string(s.Status),
				ExitCode:   s.ExitCode,
				DurationMS: s.Duration.Milliseconds(),
				Detail:     s.Detail,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case application.OutputText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

type stepPayload struct {
	Step       string `json:"step"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exitCode"`
	DurationMS int64  `json:"durationMs"`
	Detail     string `json:"detail,omitempty"`
}

func writeText(w io.Writer, result domain.RunResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Step\tStatus\tExit\tDuration")

	colorize := colorEnabled(w)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true)
	dimStyle := lipgloss.NewStyle().Faint(true)

	for _, s := range result.Steps {
		status := string(s.Status)
		if colorize {
			switch s.Status {
			case domain.StatusPassed:
				status = passStyle.Render(status)
			case domain.StatusFailed:
				status = failStyle.Render(status)
			case domain.StatusTolerated:
				status = warnStyle.Render(status)
			case domain.StatusSkipped:
				status = dimStyle.Render(status)
			}
		}
		exit := "-"
		if s.ExitCode >= 0 {
			exit = fmt.Sprintf("%d", s.ExitCode)
		}
		duration := "-"
		if s.Status != domain.StatusSkipped {
			duration = s.Duration.Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Step, status, exit, duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nCoverage data files: %d\n", result.DataFiles)
	if result.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", result.ReportPath)
	}
	verdict := "PASS"
	if !result.Passed {
		verdict = "FAIL"
	}
	if colorize {
		if result.Passed {
			verdict = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true).Render(verdict)
		} else {
			verdict = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true).Render(verdict)
		}
	}
	fmt.Fprintf(w, "Result: %s (%s)\n", verdict, result.Duration.Round(time.Millisecond))
	return nil
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
