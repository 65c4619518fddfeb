package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/specialistvlad/utestgrid/internal/executor"
)

// FakeExecutor implements executor.Compiler and executor.Runner without
// spawning processes. It writes a one-line log per call and records every
// invocation in order.
type FakeExecutor struct {
	// FailCompile and FailRun name the cases that exit with code 1.
	FailCompile map[string]bool
	FailRun     map[string]bool
	// BlockRun names a run-case that waits for context cancellation.
	BlockRun string
	// Started is signalled, if set, when a blocking run begins.
	Started chan<- string

	mu      sync.Mutex
	records []ExecutionRecord
}

var (
	_ executor.Compiler = (*FakeExecutor)(nil)
	_ executor.Runner   = (*FakeExecutor)(nil)
)

// NewFakeExecutor creates a FakeExecutor where every case passes.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		FailCompile: map[string]bool{},
		FailRun:     map[string]bool{},
	}
}

// Compile records the request and writes its log.
func (f *FakeExecutor) Compile(ctx context.Context, req executor.CompileRequest) (executor.Outcome, error) {
	rec := ExecutionRecord{Kind: "compile", Case: req.Name, Log: req.LogPath, Start: time.Now()}
	if err := writeLog(req.LogPath, fmt.Sprintf("compile %s %s\n", req.Name, req.Options)); err != nil {
		return executor.Outcome{}, err
	}
	return f.finish(rec, f.FailCompile[req.Name]), nil
}

// Run records the request and writes its log.
func (f *FakeExecutor) Run(ctx context.Context, req executor.RunRequest) (executor.Outcome, error) {
	name := req.Descriptor.Case()
	env := make(map[string]string)
	for _, kv := range req.Descriptor.Env() {
		env[kv.Key] = kv.Value
	}
	rec := ExecutionRecord{Kind: "run", Case: name, Log: req.LogPath, Env: env, Start: time.Now()}

	if name == f.BlockRun {
		if f.Started != nil {
			f.Started <- name
		}
		<-ctx.Done()
		return executor.Outcome{}, ctx.Err()
	}

	if err := writeLog(req.LogPath, fmt.Sprintf("run %s create_baseline=%s\n", name, env["CREATE_BASELINE"])); err != nil {
		return executor.Outcome{}, err
	}
	return f.finish(rec, f.FailRun[name]), nil
}

func (f *FakeExecutor) finish(rec ExecutionRecord, fail bool) executor.Outcome {
	rec.End = time.Now()
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()

	out := executor.Outcome{Duration: rec.End.Sub(rec.Start)}
	if fail {
		out.ExitCode = 1
	}
	return out
}

// Records returns a copy of everything recorded so far.
func (f *FakeExecutor) Records() []ExecutionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExecutionRecord(nil), f.records...)
}

// Cases returns "kind:case" for every recorded call, in call order.
func (f *FakeExecutor) Cases() []string {
	var out []string
	for _, r := range f.Records() {
		out = append(out, r.Kind+":"+r.Case)
	}
	return out
}

func writeLog(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(line), 0644)
}
