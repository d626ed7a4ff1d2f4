package wizard

import (
	"bytes"
	"strings"
	"testing"

	"github.com/covpipe/covpipe/internal/application"
)

func minimalConfig() application.Config {
	return application.Config{
		Build:  application.BuildConfig{Dir: "build", Generator: "Unix Makefiles", CoverageFlag: "ENABLE_COVERAGE"},
		Tools:  application.ToolsConfig{CMake: "cmake", CTest: "ctest", Gcovr: []string{"gcovr"}},
		Report: application.ReportConfig{Output: "coverage.html"},
	}
}

func TestInitWizardModelCyclesGenerator(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.cursor = rowGenerator

	start := model.generators[model.genIndex]
	model.adjustSelection(1)
	if model.generators[model.genIndex] == start {
		t.Fatalf("expected generator to change")
	}
	model.adjustSelection(-1)
	if model.generators[model.genIndex] != start {
		t.Fatalf("expected generator to cycle back to %s", start)
	}
}

func TestInitWizardModelTogglesOpen(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.cursor = rowOpen

	model.adjustSelection(1)
	if !model.cfg.Report.Open {
		t.Fatalf("expected open toggled on")
	}
	model.adjustSelection(1)
	if model.cfg.Report.Open {
		t.Fatalf("expected open toggled off")
	}
}

func TestInitWizardModelUnknownGeneratorKept(t *testing.T) {
	cfg := minimalConfig()
	cfg.Build.Generator = "Green Hills MULTI"
	model := newInitWizardModel(cfg)
	if model.generators[model.genIndex] != "Green Hills MULTI" {
		t.Fatalf("expected configured generator preserved, got %s", model.generators[model.genIndex])
	}
}

func TestInitWizardModelConfigOutput(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.cursor = rowGenerator
	model.adjustSelection(1)

	cfg := model.toConfig()
	if cfg.Build.Generator != model.generators[model.genIndex] {
		t.Fatalf("generator mismatch")
	}
	if cfg.Build.Dir != "build" {
		t.Fatalf("unrelated fields must be preserved")
	}
}

func TestRunInitWizardCompletes(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("\r\r\r")
	cfg, confirmed, err := runInitWizard(minimalConfig(), &out, stdin)
	if err != nil {
		t.Fatalf("wizard error: %v", err)
	}
	if !confirmed {
		t.Fatalf("expected wizard confirmation")
	}
	if cfg.Build.Generator == "" {
		t.Fatalf("expected generator in result")
	}
}

func TestRunInitWizardCancelled(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("q")
	_, confirmed, err := runInitWizard(minimalConfig(), &out, stdin)
	if err != nil {
		t.Fatalf("wizard error: %v", err)
	}
	if confirmed {
		t.Fatalf("expected cancellation")
	}
}
