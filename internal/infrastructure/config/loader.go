package config

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/covpipe/covpipe/internal/application"
)

type Loader struct{}

type fileConfig struct {
	Version int        `yaml:"version"`
	Build   fileBuild  `yaml:"build"`
	Tools   fileTools  `yaml:"tools"`
	Report  fileReport `yaml:"report"`
}

type fileBuild struct {
	Dir          string `yaml:"dir"`
	Generator    string `yaml:"generator"`
	CoverageFlag string `yaml:"coverage_flag"`
}

type fileTools struct {
	CMake string   `yaml:"cmake"`
	CTest string   `yaml:"ctest"`
	Gcovr []string `yaml:"gcovr,flow"`
}

type fileReport struct {
	Output  string   `yaml:"output"`
	Exclude []string `yaml:"exclude"`
	Open    bool     `yaml:"open"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return application.Config{}, err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return application.Config{}, err
	}

	return application.Config{
		Version: cfg.Version,
		Build: application.BuildConfig{
			Dir:          cfg.Build.Dir,
			Generator:    cfg.Build.Generator,
			CoverageFlag: cfg.Build.CoverageFlag,
		},
		Tools: application.ToolsConfig{
			CMake: cfg.Tools.CMake,
			CTest: cfg.Tools.CTest,
			Gcovr: cfg.Tools.Gcovr,
		},
		Report: application.ReportConfig{
			Output:  cfg.Report.Output,
			Exclude: cfg.Report.Exclude,
			Open:    cfg.Report.Open,
		},
	}, nil
}

func Write(w io.Writer, cfg application.Config) error {
	version := cfg.Version
	if version == 0 {
		version = 1
	}
	out := fileConfig{
		Version: version,
		Build: fileBuild{
			Dir:          cfg.Build.Dir,
			Generator:    cfg.Build.Generator,
			CoverageFlag: cfg.Build.CoverageFlag,
		},
		Tools: fileTools{
			CMake: cfg.Tools.CMake,
			CTest: cfg.Tools.CTest,
			Gcovr: cfg.Tools.Gcovr,
		},
		Report: fileReport{
			Output:  cfg.Report.Output,
			Exclude: cfg.Report.Exclude,
			Open:    cfg.Report.Open,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
