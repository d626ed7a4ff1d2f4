package application

import (
	"context"
	"io"

	"github.com/covpipe/covpipe/internal/domain"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// RequiredExcludes are always passed to the report generator, whether or not
// matching paths exist: external dependencies, test sources, build outputs,
// and the CMake dependency cache.
var RequiredExcludes = []string{
	`.*external/.*`,
	`.*tests/.*`,
	`.*build.*/.*`,
	`.*_deps/.*`,
}

// Config represents validated, application-ready configuration.
type Config struct {
	Version int
	Build   BuildConfig
	Tools   ToolsConfig
	Report  ReportConfig
}

// BuildConfig describes the out-of-source build.
type BuildConfig struct {
	Dir          string // build directory, relative to the project root
	Generator    string // cmake -G generator name
	CoverageFlag string // cache variable enabling instrumentation
}

// ToolsConfig names the external tools the pipeline drives.
type ToolsConfig struct {
	CMake string
	CTest string
	Gcovr []string // command prefix, e.g. [gcovr] or [python, -m, gcovr]
}

// ReportConfig controls the gcovr invocation.
type ReportConfig struct {
	Output  string   // report file name, relative to the build dir
	Exclude []string // user patterns appended after RequiredExcludes
	Open    bool     // launch the platform viewer after a successful run
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

type Autodetector interface {
	Detect(root string) (Config, error)
}

// BuildTool drives the configure and build steps.
type BuildTool interface {
	Configure(ctx context.Context, opts ConfigureOptions) error
	Build(ctx context.Context, opts BuildOptions) error
}

// TestRunner drives the test step.
type TestRunner interface {
	Test(ctx context.Context, opts TestOptions) error
}

// DataScanner discovers coverage-data files under the build directory.
type DataScanner interface {
	Scan(buildDir string) ([]string, error)
}

// ReportTool generates the HTML coverage report.
type ReportTool interface {
	Generate(ctx context.Context, opts GenerateOptions) error
}

// Opener launches the platform's default viewer on a file, best-effort.
// Implementations must never fail the pipeline.
type Opener interface {
	Open(path string)
}

type HistoryStore interface {
	Load() (domain.History, error)
	Save(h domain.History) error
	Append(entry domain.HistoryEntry) error
}

// SummaryWriter renders a finished run.
type SummaryWriter interface {
	Write(w io.Writer, result domain.RunResult, format OutputFormat) error
}

// FileWatcher provides file change notifications for watch mode.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

type ConfigureOptions struct {
	Binary       string // cmake binary; empty means the runner default
	BuildDir     string
	SourceDir    string // project root the build refers back to
	Generator    string
	CoverageFlag string
}

type BuildOptions struct {
	Binary   string
	BuildDir string
}

type TestOptions struct {
	Binary   string
	BuildDir string
}

type GenerateOptions struct {
	Command  []string // gcovr invocation prefix; empty means the runner default
	Root     string   // report root (project root)
	BuildDir string   // searched for coverage data
	Output   string   // absolute report file path
	Exclude  []string // full pattern list, required patterns first
}

type RunOptions struct {
	ConfigPath string
	Root       string // project root; defaults to the working directory
	BuildDir   string // overrides config when set
	Generator  string // overrides config when set
	Open       *bool  // overrides config when set
	Output     OutputFormat
}

type ReportOnlyOptions struct {
	ConfigPath string
	Root       string
	BuildDir   string
	Output     OutputFormat
}

type DetectOptions struct {
	Root string
}

type CleanOptions struct {
	ConfigPath string
	Root       string
	BuildDir   string
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	RunOptions
}

// WatchCallback is invoked after every pipeline run in watch mode.
type WatchCallback func(runNumber int, result domain.RunResult, err error)
