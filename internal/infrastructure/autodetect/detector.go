package autodetect

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/covpipe/covpipe/internal/application"
)

// Detector builds a working configuration from the project layout and the
// tools available on PATH.
type Detector struct {
	// GOOS overrides runtime.GOOS (for testing).
	GOOS string
	// LookPath overrides exec.LookPath (for testing).
	LookPath func(file string) (string, error)
}

func (d Detector) goos() string {
	if d.GOOS != "" {
		return d.GOOS
	}
	return runtime.GOOS
}

func (d Detector) lookPath(file string) (string, error) {
	if d.LookPath != nil {
		return d.LookPath(file)
	}
	return exec.LookPath(file)
}

// Detect inspects root and returns a ready-to-use configuration. The project
// must carry a top-level CMakeLists.txt; everything else has a fallback.
func (d Detector) Detect(root string) (application.Config, error) {
	if _, err := os.Stat(filepath.Join(root, "CMakeLists.txt")); err != nil {
		return application.Config{}, fmt.Errorf("no CMakeLists.txt found in %s", root)
	}

	return application.Config{
		Version: 1,
		Build: application.BuildConfig{
			Dir:          "build",
			Generator:    d.detectGenerator(),
			CoverageFlag: "ENABLE_COVERAGE",
		},
		Tools: application.ToolsConfig{
			CMake: "cmake",
			CTest: "ctest",
			Gcovr: d.detectGcovr(),
		},
		Report: application.ReportConfig{
			Output:  "coverage.html",
			Exclude: nil, // required patterns are always applied; nothing extra by default
			Open:    false,
		},
	}, nil
}

func (d Detector) detectGenerator() string {
	if _, err := d.lookPath("ninja"); err == nil {
		return "Ninja"
	}
	if d.goos() == "windows" {
		return "MinGW Makefiles"
	}
	return "Unix Makefiles"
}

func (d Detector) detectGcovr() []string {
	if _, err := d.lookPath("gcovr"); err == nil {
		return []string{"gcovr"}
	}
	python := "python3"
	if d.goos() == "windows" {
		python = "python"
	}
	if _, err := d.lookPath(python); err == nil {
		return []string{python, "-m", "gcovr"}
	}
	// Last resort; the report step will fail loudly if gcovr is truly absent.
	return []string{"gcovr"}
}
