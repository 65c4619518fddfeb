package app

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/utestgrid/internal/matrix"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TestName      string
	BaselineCases string // -c, empty when not given
	RunCases      string // -r, empty when not given
	KeepRunDir    bool

	HarnessPath    string // machine and path layout (hcl)
	BuildTablePath string // compile options per model and case
	TestsDir       string // holds <test>.hcl parameter files
	WorkDir        string

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults for unset paths.
func NewConfig(cfg Config) (*Config, error) {
	cfg.TestName = strings.TrimSpace(cfg.TestName)
	if cfg.TestName == "" {
		return nil, errors.New("test name is required (-n)")
	}
	if cfg.BaselineCases != "" && cfg.RunCases != "" {
		return nil, errors.New("baseline cases (-c) and unit-test cases (-r) are mutually exclusive")
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.HarnessPath == "" {
		cfg.HarnessPath = "utest.hcl"
	}
	if cfg.BuildTablePath == "" {
		cfg.BuildTablePath = "utest.bld"
	}
	if cfg.TestsDir == "" {
		cfg.TestsDir = "tests"
	}
	return &cfg, nil
}

// Mode returns the pipeline selected by the -c / -r flags.
func (c *Config) Mode() matrix.Mode {
	switch {
	case c.BaselineCases != "":
		return matrix.ModeBaseline
	case c.RunCases != "":
		return matrix.ModeRun
	default:
		return matrix.ModeBoth
	}
}

// resolve anchors relative paths at the working directory.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

// ParametersPath is the per-test parameter file.
func (c *Config) ParametersPath() string {
	return filepath.Join(c.resolve(c.TestsDir), c.TestName+".hcl")
}
