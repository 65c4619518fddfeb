package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/specialistvlad/utestgrid/internal/ctxlog"
)

// Shell runs the harness's compile and run scripts as child processes, with
// combined output captured in the request's log file.
type Shell struct {
	CompileScript string
	RunScript     string
	// Dir is the working directory of the child processes.
	Dir string
}

var (
	_ Compiler = (*Shell)(nil)
	_ Runner   = (*Shell)(nil)
)

// Compile invokes `<CompileScript> <source> <machine> <options> <name>`.
func (s *Shell) Compile(ctx context.Context, req CompileRequest) (Outcome, error) {
	cmd := exec.CommandContext(ctx, s.CompileScript, req.SourceDir, req.MachineID, req.Options, req.Name)
	return s.execute(ctx, cmd, req.LogPath)
}

// Run invokes `<RunScript> <descriptor>` with the descriptor also exported
// into the child's environment.
func (s *Shell) Run(ctx context.Context, req RunRequest) (Outcome, error) {
	cmd := exec.CommandContext(ctx, s.RunScript, req.DescriptorPath)
	cmd.Env = append(os.Environ(), req.Descriptor.Environ()...)
	return s.execute(ctx, cmd, req.LogPath)
}

func (s *Shell) execute(ctx context.Context, cmd *exec.Cmd, logPath string) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return Outcome{}, fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	cmd.Dir = s.Dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Debug("Starting external command.", "path", cmd.Path, "args", cmd.Args[1:], "log", logPath)
	start := time.Now()
	err = cmd.Run()
	out := Outcome{Duration: time.Since(start)}

	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, fmt.Errorf("command %s failed to start: %w", cmd.Path, err)
	}

	logger.Debug("External command finished.", "path", cmd.Path, "exit_code", out.ExitCode, "duration", out.Duration)
	return out, nil
}
