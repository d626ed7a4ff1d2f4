package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/covpipe/covpipe/internal/application"
	"github.com/covpipe/covpipe/internal/domain"
	"github.com/covpipe/covpipe/internal/infrastructure/autodetect"
	"github.com/covpipe/covpipe/internal/infrastructure/browser"
	"github.com/covpipe/covpipe/internal/infrastructure/config"
	"github.com/covpipe/covpipe/internal/infrastructure/gcov"
	"github.com/covpipe/covpipe/internal/infrastructure/history"
	"github.com/covpipe/covpipe/internal/infrastructure/runners"
	"github.com/covpipe/covpipe/internal/infrastructure/summary"
	"github.com/covpipe/covpipe/internal/infrastructure/watcher"
	"github.com/covpipe/covpipe/internal/infrastructure/wizard"
)

const defaultHistoryPath = ".covpipe/history.json"

type Service interface {
	Run(ctx context.Context, opts application.RunOptions) (domain.RunResult, error)
	Report(ctx context.Context, opts application.ReportOnlyOptions) (domain.RunResult, error)
	Detect(ctx context.Context, opts application.DetectOptions) (application.Config, error)
	Clean(ctx context.Context, opts application.CleanOptions) error
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
}

var initWizard = wizard.Run

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	ctx := context.Background()

	switch args[1] {
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		configPath := fs.String("config", ".covpipe.yaml", "Config file path")
		root := fs.String("root", "", "Project root (defaults to the working directory)")
		buildDir := fs.String("build-dir", "", "Build directory, overrides config")
		generator := fs.String("generator", "", "CMake generator, overrides config")
		output := outputFlags(fs)
		open := fs.Bool("open", false, "Open the report after a successful run")
		noOpen := fs.Bool("no-open", false, "Do not open the report, even if configured")
		watch := fs.Bool("watch", false, "Watch source files and re-run the pipeline on changes")
		_ = fs.Parse(args[2:])

		opts := application.RunOptions{
			ConfigPath: *configPath,
			Root:       *root,
			BuildDir:   *buildDir,
			Generator:  *generator,
			Open:       openOverride(*open, *noOpen),
			Output:     *output,
		}
		if *watch {
			return runWatch(ctx, stdout, stderr, svc, opts)
		}
		_, err := svc.Run(ctx, opts)
		return exitCode(err, 1, stderr)
	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		configPath := fs.String("config", ".covpipe.yaml", "Config file path")
		root := fs.String("root", "", "Project root (defaults to the working directory)")
		buildDir := fs.String("build-dir", "", "Build directory, overrides config")
		output := outputFlags(fs)
		_ = fs.Parse(args[2:])

		_, err := svc.Report(ctx, application.ReportOnlyOptions{
			ConfigPath: *configPath,
			Root:       *root,
			BuildDir:   *buildDir,
			Output:     *output,
		})
		return exitCode(err, 1, stderr)
	case "detect":
		fs := flag.NewFlagSet("detect", flag.ExitOnError)
		root := fs.String("root", "", "Project root (defaults to the working directory)")
		writeConfig := fs.Bool("write-config", false, "Write detected config to .covpipe.yaml")
		configPath := fs.String("config", ".covpipe.yaml", "Config file path")
		force := fs.Bool("force", false, "Overwrite config if it exists")
		_ = fs.Parse(args[2:])

		cfg, err := svc.Detect(ctx, application.DetectOptions{Root: *root})
		if err != nil {
			return exitCode(err, 1, stderr)
		}
		if *writeConfig {
			if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
				return exitCode(err, 2, stderr)
			}
			return 0
		}
		if err := writeConfigFile("-", cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		return 0
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		root := fs.String("root", "", "Project root (defaults to the working directory)")
		configPath := fs.String("config", ".covpipe.yaml", "Config file path")
		force := fs.Bool("force", false, "Overwrite existing config file")
		noInteractive := fs.Bool("no-interactive", false, "Skip the interactive init wizard")
		_ = fs.Parse(args[2:])

		cfg, err := svc.Detect(ctx, application.DetectOptions{Root: *root})
		if err != nil {
			return exitCode(err, 1, stderr)
		}
		if !*noInteractive {
			var confirmed bool
			cfg, confirmed, err = initWizard(cfg, stdout, os.Stdin)
			if err != nil {
				return exitCode(err, 1, stderr)
			}
			if !confirmed {
				fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
				return 0
			}
		}
		if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		fmt.Fprintf(stdout, "Configuration written to %s\n", *configPath)
		return 0
	case "clean":
		fs := flag.NewFlagSet("clean", flag.ExitOnError)
		configPath := fs.String("config", ".covpipe.yaml", "Config file path")
		root := fs.String("root", "", "Project root (defaults to the working directory)")
		buildDir := fs.String("build-dir", "", "Build directory, overrides config")
		_ = fs.Parse(args[2:])

		err := svc.Clean(ctx, application.CleanOptions{
			ConfigPath: *configPath,
			Root:       *root,
			BuildDir:   *buildDir,
		})
		return exitCode(err, 1, stderr)
	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		historyPath := fs.String("history", defaultHistoryPath, "History file path")
		limit := fs.Int("limit", 10, "Number of recent runs to show")
		_ = fs.Parse(args[2:])

		store := history.FileStore{Path: *historyPath}
		h, err := store.Load()
		if err != nil {
			return exitCode(err, 1, stderr)
		}
		printHistory(h, *limit, stdout)
		return 0
	case "version":
		fmt.Fprintf(stdout, "covpipe %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	default:
		usage(stderr)
		return 2
	}
}

// BuildService wires the production infrastructure into the application
// service. Output streams stay injectable for tests.
func BuildService(stdout, stderr *os.File) *application.Service {
	return &application.Service{
		ConfigLoader: config.Loader{},
		Autodetector: autodetect.Detector{},
		BuildTool:    runners.CMakeRunner{},
		TestRunner:   runners.CTestRunner{},
		Scanner:      gcov.Scanner{},
		ReportTool:   runners.GcovrRunner{},
		Opener:       browser.Opener{},
		History:      &history.FileStore{Path: defaultHistoryPath},
		Summary:      summary.Writer{},
		Out:          stdout,
		Err:          stderr,
	}
}

func outputFlags(fs *flag.FlagSet) *application.OutputFormat {
	output := application.OutputText
	fs.Var((*outputValue)(&output), "output", "Output format: text|json")
	fs.Var((*outputValue)(&output), "o", "Output format: text|json")
	return &output
}

type outputValue application.OutputFormat

func (o *outputValue) String() string { return string(*o) }

func (o *outputValue) Set(value string) error {
	switch value {
	case string(application.OutputText), string(application.OutputJSON):
		*o = outputValue(value)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", value)
	}
}

// openOverride maps the -open/-no-open pair onto the optional override:
// nil means "follow the config". -no-open wins when both are set.
func openOverride(open, noOpen bool) *bool {
	if noOpen {
		v := false
		return &v
	}
	if open {
		v := true
		return &v
	}
	return nil
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists (use -force to overwrite)", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func printHistory(h domain.History, limit int, w io.Writer) {
	entries := h.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs yet. Run `covpipe run` first.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "When\tResult\tData files\tDuration\tReport")
	for _, entry := range entries {
		verdict := "PASS"
		if !entry.Passed {
			verdict = "FAIL"
		}
		report := entry.ReportPath
		if report == "" {
			report = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			verdict,
			entry.DataFiles,
			(time.Duration(entry.DurationMS) * time.Millisecond).String(),
			report)
	}
	_ = tw.Flush()
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, opts application.RunOptions) int {
	// The build directory must be ignored or report generation would
	// retrigger runs endlessly.
	ignore := []string{"build", "external", "_deps"}
	if opts.BuildDir != "" {
		ignore = append(ignore, opts.BuildDir)
	}
	w, err := watcher.New(watcher.WithDebounce(500*time.Millisecond), watcher.WithIgnoreDirs(ignore...))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return 1
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(stdout, "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintln(stdout, "Watching for file changes... (Ctrl+C to stop)")
	fmt.Fprintln(stdout, "")

	callback := func(runNumber int, result domain.RunResult, runErr error) {
		fmt.Fprintf(stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if runErr != nil {
			fmt.Fprintf(stderr, "Pipeline run failed: %v\n", runErr)
		} else {
			fmt.Fprintf(stdout, "Pipeline completed (%d coverage data files)\n", result.DataFiles)
		}
	}

	if err := svc.Watch(ctx, application.WatchOptions{RunOptions: opts}, w, callback); err != nil {
		if ctx.Err() == context.Canceled {
			return 0
		}
		fmt.Fprintf(stderr, "watch error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `covpipe <command>

Commands:
  run      Run the full coverage pipeline (configure, build, test, report)
  report   Regenerate the report from an existing build directory
  detect   Autodetect project settings (use -write-config to save)
  init     Run autodetect plus the interactive wizard
  clean    Remove the build directory
  history  Show recent pipeline runs
  version  Print version information`)
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	return code
}
