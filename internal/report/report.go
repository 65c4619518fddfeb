// Package report collects per-case outcomes of an invocation, consolidates
// the case logs, appends the final status to the persistent report file and
// cleans up after a fully successful run.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/utestgrid/internal/ctxlog"
	"github.com/specialistvlad/utestgrid/internal/fsutil"
)

// artifactExtension marks executables produced by the compiler.
const artifactExtension = ".exe"

// Options configures where the aggregator reads and writes.
type Options struct {
	WorkDir    string
	LogDir     string
	BuildDir   string
	RunDir     string
	KeepRunDir bool
	// Out receives the human-readable status. Nil discards it.
	Out io.Writer
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Input is what the orchestrator hands over at the end of an invocation.
type Input struct {
	TestName     string
	MachineID    string
	Mode         string
	CompileCases []string
	RunCases     []string
	CompileLogs  []string
	RunLogs      []string
	Failures     *FailureRecord
	Started      time.Time
}

// Report is the terminal status of an invocation.
type Report struct {
	Test         string        `yaml:"test"`
	Machine      string        `yaml:"machine"`
	Mode         string        `yaml:"mode"`
	Passed       bool          `yaml:"passed"`
	CompileCases []string      `yaml:"compile_cases"`
	RunCases     []string      `yaml:"run_cases"`
	Failed       []string      `yaml:"failed,omitempty"`
	Started      time.Time     `yaml:"started"`
	Finished     time.Time     `yaml:"finished"`
	Elapsed      time.Duration `yaml:"elapsed"`
}

// Aggregator implements the final step of an invocation.
type Aggregator struct {
	opts Options
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts Options) *Aggregator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Aggregator{opts: opts}
}

// CompileLogPath is the consolidated compile log of a test.
func (a *Aggregator) CompileLogPath(test string) string {
	return filepath.Join(a.opts.WorkDir, "compile_"+test+".log")
}

// RunLogPath is the consolidated run log of a test.
func (a *Aggregator) RunLogPath(test string) string {
	return filepath.Join(a.opts.WorkDir, "run_"+test+".log")
}

// ReportPath is the persistent, append-only report of a machine.
func (a *Aggregator) ReportPath(machine string) string {
	return filepath.Join(a.opts.WorkDir, "utest_"+machine+".log")
}

// SummaryPath is the machine-readable summary of a test.
func (a *Aggregator) SummaryPath(test string) string {
	return filepath.Join(a.opts.LogDir, "summary_"+test+".yaml")
}

// Finalize consolidates logs, records the status and, when every case
// passed, removes build artifacts and the run directory.
func (a *Aggregator) Finalize(ctx context.Context, in Input) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	finished := a.opts.Now()
	rep := &Report{
		Test:         in.TestName,
		Machine:      in.MachineID,
		Mode:         in.Mode,
		CompileCases: in.CompileCases,
		RunCases:     in.RunCases,
		Started:      in.Started,
		Finished:     finished,
		Elapsed:      finished.Sub(in.Started).Round(time.Second),
	}
	if in.Failures != nil {
		rep.Failed = in.Failures.Cases()
	}
	rep.Passed = len(rep.Failed) == 0

	if missing, err := fsutil.ConcatFiles(a.CompileLogPath(in.TestName), in.CompileLogs); err != nil {
		return nil, fmt.Errorf("consolidating compile logs: %w", err)
	} else if len(missing) > 0 {
		logger.Warn("Some compile logs were not found.", "missing", missing)
	}
	if missing, err := fsutil.ConcatFiles(a.RunLogPath(in.TestName), in.RunLogs); err != nil {
		return nil, fmt.Errorf("consolidating run logs: %w", err)
	} else if len(missing) > 0 {
		logger.Warn("Some run logs were not found.", "missing", missing)
	}

	status := rep.statusText()
	fmt.Fprint(a.opts.Out, status)
	if err := appendFile(a.ReportPath(in.MachineID), status); err != nil {
		return nil, fmt.Errorf("appending to report: %w", err)
	}
	if err := a.writeSummary(rep); err != nil {
		return nil, err
	}

	if !rep.Passed {
		logger.Error("Unit tests failed.", "failed", rep.Failed)
		return rep, nil
	}

	logger.Info("✅ Unit tests passed.", "elapsed", rep.Elapsed)
	if err := a.cleanup(ctx); err != nil {
		return rep, err
	}
	return rep, nil
}

func (r *Report) statusText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTest %s on %s (%s mode)\n", r.Test, r.Machine, r.Mode)
	fmt.Fprintf(&b, "Started:  %s\n", r.Started.Format(time.RFC1123))
	fmt.Fprintf(&b, "Finished: %s\n", r.Finished.Format(time.RFC1123))
	fmt.Fprintf(&b, "Elapsed:  %s\n", r.Elapsed)
	if r.Passed {
		b.WriteString("UNIT TEST WORKFLOW COMPLETED: SUCCESS\n")
		return b.String()
	}
	b.WriteString("Failed cases:\n")
	for _, c := range r.Failed {
		fmt.Fprintf(&b, "  %s\n", c)
	}
	b.WriteString("UNIT TEST WORKFLOW COMPLETED: FAILED\n")
	return b.String()
}

func (a *Aggregator) writeSummary(rep *Report) error {
	if err := os.MkdirAll(a.opts.LogDir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := os.WriteFile(a.SummaryPath(rep.Test), data, 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func (a *Aggregator) cleanup(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	artifacts, err := fsutil.FindFilesByExtension(a.opts.BuildDir, artifactExtension)
	if err != nil {
		return fmt.Errorf("listing build artifacts: %w", err)
	}
	for _, f := range artifacts {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("removing build artifact: %w", err)
		}
	}
	logger.Debug("Build artifacts removed.", "count", len(artifacts))

	if a.opts.KeepRunDir {
		logger.Info("Keeping run directory.", "path", a.opts.RunDir)
		return nil
	}
	if err := os.RemoveAll(a.opts.RunDir); err != nil {
		return fmt.Errorf("removing run directory: %w", err)
	}
	logger.Debug("Run directory removed.", "path", a.opts.RunDir)
	return nil
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
