package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/covpipe/covpipe/internal/domain"
)

// Service orchestrates the five-step coverage pipeline over its
// interface-typed collaborators.
type Service struct {
	ConfigLoader ConfigLoader
	Autodetector Autodetector
	BuildTool    BuildTool
	TestRunner   TestRunner
	Scanner      DataScanner
	ReportTool   ReportTool
	Opener       Opener
	History      HistoryStore
	Summary      SummaryWriter
	Out          io.Writer
	Err          io.Writer
}

// Run executes the full pipeline: ensure build dir, configure, build, test,
// discover coverage data and generate the report. A non-nil error marks a
// fatal step; a failing test step alone is tolerated and does not error.
func (s *Service) Run(ctx context.Context, opts RunOptions) (domain.RunResult, error) {
	cfg, root, err := s.prepare(opts.ConfigPath, opts.Root)
	if err != nil {
		return domain.RunResult{}, err
	}
	applyOverrides(&cfg, opts)

	result := domain.RunResult{Started: time.Now()}
	runErr := s.pipeline(ctx, cfg, root, &result)
	result.FillSkipped()
	result.Duration = time.Since(result.Started)

	s.recordHistory(result)

	if s.Summary != nil {
		if err := s.Summary.Write(s.Out, result, opts.Output); err != nil && runErr == nil {
			return result, err
		}
	}
	return result, runErr
}

// Report runs only the discovery and report-generation stage against an
// existing build directory.
func (s *Service) Report(ctx context.Context, opts ReportOnlyOptions) (domain.RunResult, error) {
	cfg, root, err := s.prepare(opts.ConfigPath, opts.Root)
	if err != nil {
		return domain.RunResult{}, err
	}
	if opts.BuildDir != "" {
		cfg.Build.Dir = opts.BuildDir
	}
	buildDir := resolveDir(root, cfg.Build.Dir)
	if _, err := os.Stat(buildDir); err != nil {
		return domain.RunResult{}, fmt.Errorf("build directory %s does not exist (run `covpipe run` first)", buildDir)
	}

	result := domain.RunResult{Started: time.Now()}
	runErr := s.generateReport(ctx, cfg, root, buildDir, &result)
	result.Duration = time.Since(result.Started)

	if s.Summary != nil {
		if err := s.Summary.Write(s.Out, result, opts.Output); err != nil && runErr == nil {
			return result, err
		}
	}
	return result, runErr
}

// Detect returns an autodetected configuration for the project root.
func (s *Service) Detect(ctx context.Context, opts DetectOptions) (Config, error) {
	root, err := absRoot(opts.Root)
	if err != nil {
		return Config{}, err
	}
	cfg, err := s.Autodetector.Detect(root)
	if err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Clean removes the build directory.
func (s *Service) Clean(ctx context.Context, opts CleanOptions) error {
	cfg, root, err := s.prepare(opts.ConfigPath, opts.Root)
	if err != nil {
		return err
	}
	if opts.BuildDir != "" {
		cfg.Build.Dir = opts.BuildDir
	}
	buildDir := resolveDir(root, cfg.Build.Dir)
	if err := os.RemoveAll(buildDir); err != nil {
		return fmt.Errorf("remove build directory: %w", err)
	}
	fmt.Fprintf(s.Out, "Removed %s\n", buildDir)
	return nil
}

func (s *Service) pipeline(ctx context.Context, cfg Config, root string, result *domain.RunResult) error {
	buildDir := resolveDir(root, cfg.Build.Dir)
	fmt.Fprintf(s.Out, "Project root: %s\n", root)
	fmt.Fprintf(s.Out, "Build directory: %s\n", buildDir)

	fmt.Fprintln(s.Out, "\n[1/5] Creating build directory...")
	start := time.Now()
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		result.Record(domain.StepResult{Step: domain.StepEnsureBuildDir, Status: domain.StatusFailed, ExitCode: -1, Duration: time.Since(start), Detail: err.Error()})
		return fmt.Errorf("create build directory: %w", err)
	}
	result.Record(domain.StepResult{Step: domain.StepEnsureBuildDir, Status: domain.StatusPassed, ExitCode: -1, Duration: time.Since(start)})

	fmt.Fprintln(s.Out, "\n[2/5] Configuring with CMake...")
	start = time.Now()
	err := s.BuildTool.Configure(ctx, ConfigureOptions{
		Binary:       cfg.Tools.CMake,
		BuildDir:     buildDir,
		SourceDir:    root,
		Generator:    cfg.Build.Generator,
		CoverageFlag: cfg.Build.CoverageFlag,
	})
	if err != nil {
		result.Record(domain.StepResult{Step: domain.StepConfigure, Status: domain.StatusFailed, ExitCode: exitCode(err), Duration: time.Since(start), Detail: err.Error()})
		return err
	}
	result.Record(domain.StepResult{Step: domain.StepConfigure, Status: domain.StatusPassed, Duration: time.Since(start)})

	fmt.Fprintln(s.Out, "\n[3/5] Building...")
	start = time.Now()
	if err := s.BuildTool.Build(ctx, BuildOptions{Binary: cfg.Tools.CMake, BuildDir: buildDir}); err != nil {
		result.Record(domain.StepResult{Step: domain.StepBuild, Status: domain.StatusFailed, ExitCode: exitCode(err), Duration: time.Since(start), Detail: err.Error()})
		return err
	}
	result.Record(domain.StepResult{Step: domain.StepBuild, Status: domain.StatusPassed, Duration: time.Since(start)})

	fmt.Fprintln(s.Out, "\n[4/5] Running tests...")
	start = time.Now()
	if err := s.TestRunner.Test(ctx, TestOptions{Binary: cfg.Tools.CTest, BuildDir: buildDir}); err != nil {
		// A coverage report is still meaningful with failing tests.
		result.Record(domain.StepResult{Step: domain.StepTest, Status: domain.StatusTolerated, ExitCode: exitCode(err), Duration: time.Since(start), Detail: err.Error()})
		fmt.Fprintln(s.Err, "WARNING: Some tests failed, but continuing with coverage...")
	} else {
		result.Record(domain.StepResult{Step: domain.StepTest, Status: domain.StatusPassed, Duration: time.Since(start)})
	}

	fmt.Fprintln(s.Out, "\n[5/5] Generating coverage report...")
	return s.generateReport(ctx, cfg, root, buildDir, result)
}

func (s *Service) generateReport(ctx context.Context, cfg Config, root, buildDir string, result *domain.RunResult) error {
	start := time.Now()
	files, err := s.Scanner.Scan(buildDir)
	if err != nil {
		result.Record(domain.StepResult{Step: domain.StepReport, Status: domain.StatusFailed, ExitCode: -1, Duration: time.Since(start), Detail: err.Error()})
		return fmt.Errorf("scan coverage data: %w", err)
	}
	result.DataFiles = len(files)
	fmt.Fprintf(s.Out, "Found %d coverage data files\n", len(files))
	if len(files) == 0 {
		err := fmt.Errorf("no coverage data found under %s (make sure tests ran successfully)", buildDir)
		result.Record(domain.StepResult{Step: domain.StepReport, Status: domain.StatusFailed, ExitCode: -1, Duration: time.Since(start), Detail: err.Error()})
		return err
	}

	output := cfg.Report.Output
	if !filepath.IsAbs(output) {
		output = filepath.Join(buildDir, output)
	}
	excludes := append(append([]string{}, RequiredExcludes...), cfg.Report.Exclude...)
	err = s.ReportTool.Generate(ctx, GenerateOptions{
		Command:  cfg.Tools.Gcovr,
		Root:     root,
		BuildDir: buildDir,
		Output:   output,
		Exclude:  excludes,
	})
	if err != nil {
		result.Record(domain.StepResult{Step: domain.StepReport, Status: domain.StatusFailed, ExitCode: exitCode(err), Duration: time.Since(start), Detail: err.Error()})
		return err
	}
	result.Record(domain.StepResult{Step: domain.StepReport, Status: domain.StatusPassed, Duration: time.Since(start)})
	result.ReportPath = output

	fmt.Fprintf(s.Out, "\nSUCCESS! Coverage report generated:\n  %s\n", output)
	if cfg.Report.Open && s.Opener != nil {
		// Best-effort; never affects the exit code.
		s.Opener.Open(output)
	}
	return nil
}

func (s *Service) recordHistory(result domain.RunResult) {
	if s.History == nil {
		return
	}
	if err := s.History.Append(domain.NewHistoryEntry(result)); err != nil {
		fmt.Fprintf(s.Err, "WARNING: could not record run history: %v\n", err)
	}
}

func (s *Service) prepare(configPath, root string) (Config, string, error) {
	absolute, err := absRoot(root)
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := s.loadOrDetect(configPath, absolute)
	if err != nil {
		return Config{}, "", err
	}
	applyDefaults(&cfg)
	return cfg, absolute, nil
}

func (s *Service) loadOrDetect(configPath, root string) (Config, error) {
	exists, err := s.ConfigLoader.Exists(configPath)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return s.Autodetector.Detect(root)
	}
	return s.ConfigLoader.Load(configPath)
}

func applyOverrides(cfg *Config, opts RunOptions) {
	if opts.BuildDir != "" {
		cfg.Build.Dir = opts.BuildDir
	}
	if opts.Generator != "" {
		cfg.Build.Generator = opts.Generator
	}
	if opts.Open != nil {
		cfg.Report.Open = *opts.Open
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Build.Dir == "" {
		cfg.Build.Dir = "build"
	}
	if cfg.Build.Generator == "" {
		if runtime.GOOS == "windows" {
			cfg.Build.Generator = "MinGW Makefiles"
		} else {
			cfg.Build.Generator = "Unix Makefiles"
		}
	}
	if cfg.Build.CoverageFlag == "" {
		cfg.Build.CoverageFlag = "ENABLE_COVERAGE"
	}
	if cfg.Tools.CMake == "" {
		cfg.Tools.CMake = "cmake"
	}
	if cfg.Tools.CTest == "" {
		cfg.Tools.CTest = "ctest"
	}
	if len(cfg.Tools.Gcovr) == 0 {
		cfg.Tools.Gcovr = []string{"gcovr"}
	}
	if cfg.Report.Output == "" {
		cfg.Report.Output = "coverage.html"
	}
}

func absRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
	absolute, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	return absolute, nil
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
