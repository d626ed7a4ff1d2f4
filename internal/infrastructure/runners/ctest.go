package runners

import (
	"context"
	"fmt"

	"github.com/covpipe/covpipe/internal/application"
)

// CTestRunner runs the project's test suite inside the build directory.
type CTestRunner struct {
	Binary string
	Exec   ExecFunc
}

func (r CTestRunner) Test(ctx context.Context, opts application.TestOptions) error {
	binary := opts.Binary
	if binary == "" {
		binary = r.Binary
	}
	if binary == "" {
		binary = "ctest"
	}
	execFn := r.Exec
	if execFn == nil {
		execFn = runCommand
	}
	if err := execFn(ctx, opts.BuildDir, binary, []string{"--verbose"}); err != nil {
		return fmt.Errorf("ctest failed: %w", err)
	}
	return nil
}
