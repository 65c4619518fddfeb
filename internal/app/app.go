package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/utestgrid/internal/config"
	"github.com/specialistvlad/utestgrid/internal/executor"
	"github.com/specialistvlad/utestgrid/internal/report"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	compiler executor.Compiler
	runner   executor.Runner
	report   *report.Report
}

// Option customizes an App.
type Option func(*App)

// WithExecutors replaces the shell scripts named in the harness file.
func WithExecutors(c executor.Compiler, r executor.Runner) Option {
	return func(a *App) {
		a.compiler = c
		a.runner = r
	}
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger writing to outW.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report returns the outcome of the last Run. It is nil until a run reaches
// the aggregation step.
func (a *App) Report() *report.Report {
	return a.report
}
