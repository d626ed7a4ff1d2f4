package runners

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/covpipe/covpipe/internal/application"
)

// CMakeRunner drives cmake for the configure and build steps. Both run
// inside the build directory; configure points cmake back at the project
// root with the coverage cache variable enabled.
type CMakeRunner struct {
	Binary string
	Exec   ExecFunc
}

func (r CMakeRunner) binary(override string) string {
	if override != "" {
		return override
	}
	if r.Binary != "" {
		return r.Binary
	}
	return "cmake"
}

func (r CMakeRunner) exec() ExecFunc {
	if r.Exec != nil {
		return r.Exec
	}
	return runCommand
}

func (r CMakeRunner) Configure(ctx context.Context, opts application.ConfigureOptions) error {
	if opts.Generator == "" {
		return fmt.Errorf("no cmake generator configured")
	}
	flag := opts.CoverageFlag
	if flag == "" {
		flag = "ENABLE_COVERAGE"
	}
	args := []string{
		"-G", opts.Generator,
		"-D" + flag + "=ON",
		sourceArg(opts.BuildDir, opts.SourceDir),
	}
	if err := r.exec()(ctx, opts.BuildDir, r.binary(opts.Binary), args); err != nil {
		return fmt.Errorf("cmake configure failed: %w", err)
	}
	return nil
}

func (r CMakeRunner) Build(ctx context.Context, opts application.BuildOptions) error {
	if err := r.exec()(ctx, opts.BuildDir, r.binary(opts.Binary), []string{"--build", "."}); err != nil {
		return fmt.Errorf("cmake build failed: %w", err)
	}
	return nil
}

// sourceArg prefers the conventional relative ".." form when the build dir
// is a direct child of the source dir, falling back to the absolute path.
func sourceArg(buildDir, sourceDir string) string {
	if sourceDir == "" {
		return ".."
	}
	if filepath.Dir(filepath.Clean(buildDir)) == filepath.Clean(sourceDir) {
		return ".."
	}
	return sourceDir
}
