package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/covpipe/covpipe/internal/application"
	"github.com/covpipe/covpipe/internal/domain"
)

type fakeService struct {
	runErr    error
	runOpts   application.RunOptions
	reportErr error
	detectErr error
	detectCfg application.Config
	cleanErr  error
	cleanOpts application.CleanOptions
	watchErr  error
	watched   bool
}

func (f *fakeService) Run(_ context.Context, opts application.RunOptions) (domain.RunResult, error) {
	f.runOpts = opts
	if f.runErr != nil {
		return domain.RunResult{}, f.runErr
	}
	return domain.RunResult{Passed: true}, nil
}

func (f *fakeService) Report(_ context.Context, _ application.ReportOnlyOptions) (domain.RunResult, error) {
	if f.reportErr != nil {
		return domain.RunResult{}, f.reportErr
	}
	return domain.RunResult{Passed: true}, nil
}

func (f *fakeService) Detect(_ context.Context, _ application.DetectOptions) (application.Config, error) {
	if f.detectErr != nil {
		return application.Config{}, f.detectErr
	}
	return f.detectCfg, nil
}

func (f *fakeService) Clean(_ context.Context, opts application.CleanOptions) error {
	f.cleanOpts = opts
	return f.cleanErr
}

func (f *fakeService) Watch(_ context.Context, _ application.WatchOptions, _ application.FileWatcher, _ application.WatchCallback) error {
	f.watched = true
	return f.watchErr
}

func detectedConfig() application.Config {
	return application.Config{
		Version: 1,
		Build:   application.BuildConfig{Dir: "build", Generator: "Unix Makefiles", CoverageFlag: "ENABLE_COVERAGE"},
		Tools:   application.ToolsConfig{CMake: "cmake", CTest: "ctest", Gcovr: []string{"gcovr"}},
		Report:  application.ReportConfig{Output: "coverage.html"},
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covpipe"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunUnknown(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covpipe", "nope"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunSuccess(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"covpipe", "run"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.runOpts.ConfigPath != ".covpipe.yaml" {
		t.Fatalf("expected default config path, got %s", svc.runOpts.ConfigPath)
	}
	if svc.runOpts.Open != nil {
		t.Fatalf("expected no open override by default")
	}
}

func TestRunFailureExitsOne(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{runErr: errors.New("cmake configure failed")}
	code := Run([]string{"covpipe", "run"}, &out, &out, svc)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out.String(), "cmake configure failed") {
		t.Fatalf("expected error on stderr, got: %s", out.String())
	}
}

func TestRunFlags(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"covpipe", "run", "-build-dir", "out", "-generator", "Ninja", "-open"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.runOpts.BuildDir != "out" || svc.runOpts.Generator != "Ninja" {
		t.Fatalf("unexpected opts: %+v", svc.runOpts)
	}
	if svc.runOpts.Open == nil || !*svc.runOpts.Open {
		t.Fatalf("expected open override true")
	}
}

func TestRunNoOpenWins(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"covpipe", "run", "-open", "-no-open"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.runOpts.Open == nil || *svc.runOpts.Open {
		t.Fatalf("expected open override false")
	}
}

func TestReportFailureExitsOne(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{reportErr: errors.New("build directory does not exist")}
	code := Run([]string{"covpipe", "report"}, &out, &out, svc)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestDetectPrintsConfig(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{detectCfg: detectedConfig()}
	code := Run([]string{"covpipe", "detect"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "generator: Unix Makefiles") {
		t.Fatalf("expected yaml config on stdout, got: %s", out.String())
	}
}

func TestDetectWriteConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".covpipe.yaml")
	var out bytes.Buffer
	svc := &fakeService{detectCfg: detectedConfig()}
	code := Run([]string{"covpipe", "detect", "-write-config", "-config", path}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config written: %v", err)
	}
}

func TestInitWritesConfirmedConfig(t *testing.T) {
	restore := initWizard
	defer func() { initWizard = restore }()
	initWizard = func(cfg application.Config, _ io.Writer, _ io.Reader) (application.Config, bool, error) {
		cfg.Build.Generator = "Ninja"
		return cfg, true, nil
	}

	path := filepath.Join(t.TempDir(), ".covpipe.yaml")
	var out bytes.Buffer
	svc := &fakeService{detectCfg: detectedConfig()}
	code := Run([]string{"covpipe", "init", "-config", path}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "generator: Ninja") {
		t.Fatalf("expected wizard result persisted, got: %s", raw)
	}
}

func TestInitCancelledWritesNothing(t *testing.T) {
	restore := initWizard
	defer func() { initWizard = restore }()
	initWizard = func(cfg application.Config, _ io.Writer, _ io.Reader) (application.Config, bool, error) {
		return cfg, false, nil
	}

	path := filepath.Join(t.TempDir(), ".covpipe.yaml")
	var out bytes.Buffer
	svc := &fakeService{detectCfg: detectedConfig()}
	code := Run([]string{"covpipe", "init", "-config", path}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no config written")
	}
	if !strings.Contains(out.String(), "cancelled") {
		t.Fatalf("expected cancellation notice, got: %s", out.String())
	}
}

func TestCleanPassesBuildDir(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"covpipe", "clean", "-build-dir", "out"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.cleanOpts.BuildDir != "out" {
		t.Fatalf("expected build dir forwarded, got %+v", svc.cleanOpts)
	}
}

func TestOutputValueSet(t *testing.T) {
	val := outputValue(application.OutputText)
	if err := val.Set("json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if string(val) != "json" {
		t.Fatalf("expected json")
	}
	if err := val.Set("bad"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriteConfigFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".covpipe.yaml")
	if err := writeConfigFile(path, detectedConfig(), os.Stdout, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeConfigFile(path, detectedConfig(), os.Stdout, false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := writeConfigFile(path, detectedConfig(), os.Stdout, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	h := domain.History{Entries: []domain.HistoryEntry{
		{Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Passed: true, DataFiles: 12, ReportPath: "build/coverage.html", DurationMS: 4200},
		{Timestamp: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), Passed: false, DataFiles: 0, DurationMS: 900},
	}}
	printHistory(h, 10, &out)
	got := out.String()
	if !strings.Contains(got, "PASS") || !strings.Contains(got, "FAIL") {
		t.Fatalf("expected both verdicts, got: %s", got)
	}
	if !strings.Contains(got, "build/coverage.html") {
		t.Fatalf("expected report path, got: %s", got)
	}
}

func TestPrintHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	printHistory(domain.History{}, 10, &out)
	if !strings.Contains(out.String(), "No recorded runs") {
		t.Fatalf("expected empty notice, got: %s", out.String())
	}
}

func TestHistoryLimit(t *testing.T) {
	var out bytes.Buffer
	entries := make([]domain.HistoryEntry, 5)
	for i := range entries {
		entries[i] = domain.HistoryEntry{Timestamp: time.Date(2025, 6, 1+i, 0, 0, 0, 0, time.UTC), Passed: true}
	}
	printHistory(domain.History{Entries: entries}, 2, &out)
	if !strings.Contains(out.String(), "2025-06-05") || strings.Contains(out.String(), "2025-06-01") {
		t.Fatalf("expected only the most recent entries, got: %s", out.String())
	}
}
