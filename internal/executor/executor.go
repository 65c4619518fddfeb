// Package executor defines the boundary between the orchestrator and the
// external tools it drives: a Compiler that builds one compile-case and a
// Runner that executes one run-case from its environment descriptor.
package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/utestgrid/internal/descriptor"
)

// CompileRequest describes one build.
type CompileRequest struct {
	SourceDir string
	MachineID string
	Options   string
	// Name identifies the executable the build produces.
	Name    string
	LogPath string
}

// RunRequest describes one model run.
type RunRequest struct {
	Descriptor     *descriptor.Descriptor
	DescriptorPath string
	LogPath        string
}

// Outcome is the result of an external step that ran to completion.
type Outcome struct {
	ExitCode int
	Duration time.Duration
}

// Success reports whether the step exited cleanly.
func (o Outcome) Success() bool {
	return o.ExitCode == 0
}

// Compiler builds a compile-case. An error means the build could not be
// attempted at all; a build that ran and failed is a non-zero Outcome.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) (Outcome, error)
}

// Runner executes a run-case. Errors follow the Compiler convention.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (Outcome, error)
}
