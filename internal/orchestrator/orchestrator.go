// Package orchestrator drives one harness invocation end to end: it takes
// the execution lock, builds every compile-case, runs the run-cases once or
// twice depending on the mode, and hands the outcome to the report
// aggregator. Cases are processed strictly one after another.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/utestgrid/internal/buildconf"
	"github.com/specialistvlad/utestgrid/internal/config"
	"github.com/specialistvlad/utestgrid/internal/ctxlog"
	"github.com/specialistvlad/utestgrid/internal/descriptor"
	"github.com/specialistvlad/utestgrid/internal/executor"
	"github.com/specialistvlad/utestgrid/internal/fsutil"
	"github.com/specialistvlad/utestgrid/internal/lock"
	"github.com/specialistvlad/utestgrid/internal/matrix"
	"github.com/specialistvlad/utestgrid/internal/params"
	"github.com/specialistvlad/utestgrid/internal/report"
	"github.com/specialistvlad/utestgrid/internal/variant"
)

const (
	lockFileName    = "utest.lock"
	failureFileName = "fail_unit_test"
)

// ErrNoBaseline is returned in run-only mode when no baseline tree exists.
var ErrNoBaseline = errors.New("baseline directory does not exist")

// Options is the resolved input of one invocation.
type Options struct {
	TestName   string
	Mode       matrix.Mode
	Matrix     matrix.Matrix
	Harness    *config.Harness
	Baseline   params.Baseline
	Builds     *buildconf.Table
	WorkDir    string
	KeepRunDir bool
	Out        io.Writer
	Now        func() time.Time
}

// Orchestrator runs the compile set and run set of a single test.
type Orchestrator struct {
	opts       Options
	compiler   executor.Compiler
	runner     executor.Runner
	failures   *report.FailureRecord
	aggregator *report.Aggregator

	compileLogs []string
	runLogs     []string
}

// pass is one sweep over the run-cases.
type pass struct {
	createBaseline bool
	logSuffix      string
	failurePrefix  string
}

// New creates an Orchestrator. The compiler and runner are the only way it
// touches external tools.
func New(opts Options, compiler executor.Compiler, runner executor.Runner) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	o := &Orchestrator{
		opts:     opts,
		compiler: compiler,
		runner:   runner,
		failures: report.NewFailureRecord(filepath.Join(opts.WorkDir, failureFileName)),
	}
	o.aggregator = report.NewAggregator(report.Options{
		WorkDir:    opts.WorkDir,
		LogDir:     opts.Harness.Paths.LogDir,
		BuildDir:   opts.Harness.Paths.BuildDir,
		RunDir:     o.runDirRoot(),
		KeepRunDir: opts.KeepRunDir,
		Out:        opts.Out,
		Now:        opts.Now,
	})
	return o
}

// LockPath is the execution lock of the working tree.
func (o *Orchestrator) LockPath() string {
	return filepath.Join(o.opts.WorkDir, lockFileName)
}

func (o *Orchestrator) baselineDir() string {
	return filepath.Join(o.opts.Harness.Paths.Baselines, o.opts.TestName)
}

func (o *Orchestrator) runDirRoot() string {
	return filepath.Join(o.opts.Harness.Paths.RunRoot, o.opts.TestName)
}

func (o *Orchestrator) compileLogPath(cc variant.Variant) string {
	return filepath.Join(o.opts.Harness.Paths.LogDir, fmt.Sprintf("compile_%s_%s.log", o.opts.TestName, cc))
}

func (o *Orchestrator) runLogPath(rc variant.Variant, suffix string) string {
	return filepath.Join(o.opts.Harness.Paths.LogDir, fmt.Sprintf("run_%s_%s%s.log", o.opts.TestName, rc, suffix))
}

// Run executes the invocation. Fatal configuration problems, lock
// contention and cancellation are returned as errors; failing cases are
// only recorded and show up in the returned report. The lock is released
// on every return path.
func (o *Orchestrator) Run(ctx context.Context) (rep *report.Report, err error) {
	ctx = ctxlog.With(ctx, "test", o.opts.TestName)
	logger := ctxlog.FromContext(ctx)
	started := o.opts.Now()

	l, err := lock.Acquire(o.LockPath(), o.opts.TestName)
	if err != nil {
		return nil, err
	}
	logger.Debug("Execution lock acquired.", "path", l.Path(), "token", l.Owner().Token)
	defer func() {
		if rerr := l.Release(); rerr != nil {
			logger.Error("Failed to release execution lock.", "error", rerr)
			if err == nil {
				err = rerr
			}
			return
		}
		logger.Debug("Execution lock released.")
	}()

	buildOptions := make(map[variant.Variant]string, len(o.opts.Matrix.CompileCases))
	for _, cc := range o.opts.Matrix.CompileCases {
		opts, err := o.opts.Builds.Lookup(o.opts.TestName, cc)
		if err != nil {
			return nil, err
		}
		buildOptions[cc] = opts
	}

	if o.opts.Mode == matrix.ModeRun && !fsutil.DirExists(o.baselineDir()) {
		return nil, fmt.Errorf("%w: %s", ErrNoBaseline, o.baselineDir())
	}

	if err := o.failures.Reset(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.opts.Harness.Paths.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	if err := fsutil.ResetDir(o.runDirRoot()); err != nil {
		return nil, fmt.Errorf("preparing run directory: %w", err)
	}

	logger.Info("🚀 Starting unit tests.",
		"mode", o.opts.Mode.String(),
		"compile_cases", o.opts.Matrix.CompileCases,
		"run_cases", o.opts.Matrix.RunCases)

	compileFailed, err := o.compileAll(ctx, buildOptions)
	if err != nil {
		return nil, err
	}

	switch o.opts.Mode {
	case matrix.ModeBoth:
		if err := o.resetBaseline(ctx); err != nil {
			return nil, err
		}
		if err := o.runAll(ctx, pass{createBaseline: true, logSuffix: "_baseline", failurePrefix: "baseline_"}, compileFailed); err != nil {
			return nil, err
		}
		if err := fsutil.ResetDir(o.runDirRoot()); err != nil {
			return nil, fmt.Errorf("clearing run directory: %w", err)
		}
		if err := o.runAll(ctx, pass{}, compileFailed); err != nil {
			return nil, err
		}
	case matrix.ModeBaseline:
		if err := o.resetBaseline(ctx); err != nil {
			return nil, err
		}
		if err := o.runAll(ctx, pass{createBaseline: true}, compileFailed); err != nil {
			return nil, err
		}
	case matrix.ModeRun:
		if err := o.runAll(ctx, pass{}, compileFailed); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported mode %s", o.opts.Mode)
	}

	logger.Info("🏁 All cases finished.", "failed", len(o.failures.Cases()))

	return o.aggregator.Finalize(ctx, report.Input{
		TestName:     o.opts.TestName,
		MachineID:    o.opts.Harness.Machine.ID,
		Mode:         o.opts.Mode.String(),
		CompileCases: tags(o.opts.Matrix.CompileCases),
		RunCases:     tags(o.opts.Matrix.RunCases),
		CompileLogs:  o.compileLogs,
		RunLogs:      o.runLogs,
		Failures:     o.failures,
		Started:      started,
	})
}

func (o *Orchestrator) resetBaseline(ctx context.Context) error {
	ctxlog.FromContext(ctx).Info("Creating fresh baseline tree.", "path", o.baselineDir())
	if err := fsutil.ResetDir(o.baselineDir()); err != nil {
		return fmt.Errorf("preparing baseline directory: %w", err)
	}
	return nil
}

// compileAll builds every compile-case. A failed build is recorded and the
// remaining builds still run.
func (o *Orchestrator) compileAll(ctx context.Context, buildOptions map[variant.Variant]string) (map[variant.Variant]bool, error) {
	failed := make(map[variant.Variant]bool)
	for _, cc := range o.opts.Matrix.CompileCases {
		caseCtx := ctxlog.With(ctx, "compile_case", cc.String())
		logger := ctxlog.FromContext(caseCtx)
		logger.Info("▶️ Compiling.", "options", buildOptions[cc])

		logPath := o.compileLogPath(cc)
		o.compileLogs = append(o.compileLogs, logPath)

		out, err := o.compiler.Compile(caseCtx, executor.CompileRequest{
			SourceDir: o.opts.Harness.Paths.Source,
			MachineID: o.opts.Harness.Machine.ID,
			Options:   buildOptions[cc],
			Name:      cc.String(),
			LogPath:   logPath,
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil || !out.Success() {
			logger.Error("Compile failed.", "exit_code", out.ExitCode, "error", err, "log", logPath)
			failed[cc] = true
			if err := o.failures.Add("compile_" + cc.String()); err != nil {
				return nil, err
			}
			continue
		}
		logger.Info("✅ Compiled.", "duration", out.Duration)
	}
	return failed, nil
}

func (o *Orchestrator) runAll(ctx context.Context, p pass, compileFailed map[variant.Variant]bool) error {
	for _, rc := range o.opts.Matrix.RunCases {
		if err := o.runCase(ctxlog.With(ctx, "run_case", rc.String(), "create_baseline", p.createBaseline), rc, p, compileFailed); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (o *Orchestrator) runCase(ctx context.Context, rc variant.Variant, p pass, compileFailed map[variant.Variant]bool) error {
	logger := ctxlog.FromContext(ctx)

	if compileFailed[rc.RequiredCompile()] {
		logger.Warn("Skipping run, its compile-case failed.", "compile_case", rc.RequiredCompile().String())
		return o.failures.Add(p.failurePrefix + rc.String())
	}

	derived, err := params.Prepare(o.opts.Baseline, rc)
	if err != nil {
		return err
	}
	desc := o.newDescriptor(derived, p.createBaseline)
	descPath := filepath.Join(o.runDirRoot(), fmt.Sprintf("%s_%s.env", o.opts.TestName, rc))
	if err := desc.Write(descPath); err != nil {
		return err
	}
	logger.Debug("Run environment written.", "path", descPath, "tasks", derived.Resources.Tasks, "nodes", derived.Resources.Nodes)

	logPath := o.runLogPath(rc, p.logSuffix)
	o.runLogs = append(o.runLogs, logPath)

	logger.Info("▶️ Running.", "tasks", derived.Resources.Tasks, "nodes", derived.Resources.Nodes)
	out, err := o.runner.Run(ctx, executor.RunRequest{
		Descriptor:     desc,
		DescriptorPath: descPath,
		LogPath:        logPath,
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil || !out.Success() {
		logger.Error("Run failed.", "exit_code", out.ExitCode, "error", err, "log", logPath)
		return o.failures.Add(p.failurePrefix + rc.String())
	}
	logger.Info("✅ Run passed.", "duration", out.Duration)
	return nil
}

func (o *Orchestrator) newDescriptor(d params.Derived, createBaseline bool) *descriptor.Descriptor {
	h := o.opts.Harness
	desc := &descriptor.Descriptor{
		MachineID:      h.Machine.ID,
		Scheduler:      h.Machine.Scheduler,
		Account:        h.Machine.Account,
		Queue:          h.Machine.Queue,
		TestName:       o.opts.TestName,
		BaselineDir:    o.baselineDir(),
		RunDirRoot:     o.runDirRoot(),
		LogDir:         h.Paths.LogDir,
		CreateBaseline: createBaseline,
		RunSuffix:      "_" + d.Variant.String(),
		BaselineSuffix: "_" + d.Variant.ComparisonName(),
		CompileName:    d.Variant.RequiredCompile().String(),
		Params:         d,
	}
	if d.StageRestart {
		desc.RestartSource = filepath.Join(o.runDirRoot(), o.opts.TestName+"_"+variant.Std.String())
	}
	return desc
}

func tags(vs []variant.Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
