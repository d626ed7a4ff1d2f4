package runners

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExecFunc runs an external command in dir, streaming its output. Runner
// structs expose it as an overridable field so tests can intercept the
// invocation without spawning processes.
type ExecFunc func(ctx context.Context, dir string, name string, args []string) error

const bannerWidth = 60

// runCommand is the default ExecFunc. It prints a banner with the joined
// command, then runs it with stdout/stderr attached to the caller's streams
// so tool output appears in real time, unbuffered.
func runCommand(ctx context.Context, dir string, name string, args []string) error {
	banner := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(os.Stdout, "\n%s\n", banner)
	fmt.Fprintf(os.Stdout, "Running: %s\n", strings.Join(append([]string{name}, args...), " "))
	fmt.Fprintln(os.Stdout, banner)

	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Command failed with code %d\n", ExitCode(err))
		return err
	}
	return nil
}

// ExitCode extracts the child's exit code from a Run error, or -1 when the
// command never produced one (start failure, signal, context cancellation).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
