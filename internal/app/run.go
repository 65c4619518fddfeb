package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/utestgrid/internal/buildconf"
	"github.com/specialistvlad/utestgrid/internal/ctxlog"
	"github.com/specialistvlad/utestgrid/internal/executor"
	"github.com/specialistvlad/utestgrid/internal/matrix"
	"github.com/specialistvlad/utestgrid/internal/orchestrator"
	"github.com/specialistvlad/utestgrid/internal/params"
	"github.com/specialistvlad/utestgrid/internal/variant"
)

// Run executes one harness invocation. Only fatal problems are returned;
// failed cases are reported through Report and the failure list file.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()
	a.logger.Debug("App.Run method started.")

	harness, err := a.loader.LoadHarness(ctx, a.config.resolve(a.config.HarnessPath))
	if err != nil {
		return fmt.Errorf("failed to load harness: %w", err)
	}
	a.logger.Debug("Harness loaded.", "machine", harness.Machine.ID)

	mode := a.config.Mode()
	m, err := a.selectCases(mode)
	if err != nil {
		return err
	}

	builds, err := buildconf.Load(a.config.resolve(a.config.BuildTablePath))
	if err != nil {
		return err
	}

	base := params.Defaults()
	base.TasksPerNode = harness.Machine.TasksPerNode
	base, err = a.loader.LoadParameters(ctx, a.config.ParametersPath(), base, harness.Machine)
	if err != nil {
		return fmt.Errorf("failed to load parameters of test %q: %w", a.config.TestName, err)
	}

	compiler, runner := a.compiler, a.runner
	if compiler == nil || runner == nil {
		shell := &executor.Shell{
			CompileScript: harness.Scripts.Compile,
			RunScript:     harness.Scripts.Run,
			Dir:           harness.Paths.BuildDir,
		}
		compiler, runner = shell, shell
	}

	orch := orchestrator.New(orchestrator.Options{
		TestName:   a.config.TestName,
		Mode:       mode,
		Matrix:     m,
		Harness:    harness,
		Baseline:   base,
		Builds:     builds,
		WorkDir:    a.config.WorkDir,
		KeepRunDir: a.config.KeepRunDir,
		Out:        a.outW,
	}, compiler, runner)

	rep, err := orch.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}
	a.report = rep

	a.logger.Debug("App.Run method finished.", "passed", rep.Passed)
	return nil
}

// selectCases parses the -c / -r token and expands it into the case matrix.
func (a *App) selectCases(mode matrix.Mode) (matrix.Matrix, error) {
	var baseline, run []variant.Variant
	var err error
	switch mode {
	case matrix.ModeBaseline:
		baseline, err = variant.Select(a.config.BaselineCases, variant.CompileVocabulary)
	case matrix.ModeRun:
		run, err = variant.Select(a.config.RunCases, variant.RunVocabulary)
	}
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("invalid case selection: %w", err)
	}

	m, err := matrix.Resolve(mode, baseline, run)
	if err != nil {
		return matrix.Matrix{}, err
	}
	a.logger.Debug("Case matrix resolved.", "mode", mode.String(), "compile_cases", m.CompileCases, "run_cases", m.RunCases)
	return m, nil
}
