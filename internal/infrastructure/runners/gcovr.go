package runners

import (
	"context"
	"fmt"

	"github.com/covpipe/covpipe/internal/application"
)

// GcovrRunner invokes gcovr over the project root to aggregate coverage data
// into an HTML report with per-file detail pages. Command is the invocation
// prefix, so both a bare `gcovr` binary and `python -m gcovr` work.
type GcovrRunner struct {
	Command []string
	Exec    ExecFunc
}

func (r GcovrRunner) Generate(ctx context.Context, opts application.GenerateOptions) error {
	command := opts.Command
	if len(command) == 0 {
		command = r.Command
	}
	if len(command) == 0 {
		command = []string{"gcovr"}
	}

	args := append([]string{}, command[1:]...)
	args = append(args, "--root", opts.Root)
	for _, pattern := range opts.Exclude {
		args = append(args, "--exclude", pattern)
	}
	// gcc's gcov can emit negative hit counts; have gcovr warn instead of abort.
	args = append(args,
		"--gcov-ignore-parse-errors", "negative_hits.warn",
		"--html", "--html-details",
		"-o", opts.Output,
		opts.BuildDir,
	)

	execFn := r.Exec
	if execFn == nil {
		execFn = runCommand
	}
	if err := execFn(ctx, opts.Root, command[0], args); err != nil {
		return fmt.Errorf("gcovr failed: %w", err)
	}
	return nil
}
