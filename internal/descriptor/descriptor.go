// Package descriptor materializes the run environment of a single run-case
// as a file of shell export statements that the external runner sources.
package descriptor

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/utestgrid/internal/params"
)

// Descriptor is everything the runner needs to execute one run-case.
type Descriptor struct {
	MachineID      string
	Scheduler      string
	Account        string
	Queue          string
	TestName       string
	BaselineDir    string
	RunDirRoot     string
	LogDir         string
	CreateBaseline bool
	RunSuffix      string
	BaselineSuffix string
	CompileName    string
	// RestartSource is the std run directory whose restart and history
	// files are staged for a warm start. Empty when nothing is staged.
	RestartSource string
	Params        params.Derived
}

// Case returns the tag of the run-case.
func (d *Descriptor) Case() string {
	return d.Params.Variant.String()
}

// RunDir is the directory the runner executes this case in.
func (d *Descriptor) RunDir() string {
	return filepath.Join(d.RunDirRoot, d.TestName+d.RunSuffix)
}

// Env returns the descriptor as ordered key/value pairs.
func (d *Descriptor) Env() []params.KeyValue {
	env := []params.KeyValue{
		{Key: "MACHINE_ID", Value: d.MachineID},
		{Key: "SCHEDULER", Value: d.Scheduler},
		{Key: "ACCNR", Value: d.Account},
		{Key: "QUEUE", Value: d.Queue},
		{Key: "TEST_NAME", Value: d.TestName},
		{Key: "TEST_CASE", Value: d.Case()},
		{Key: "RTPWD", Value: d.BaselineDir},
		{Key: "RUNDIR_ROOT", Value: d.RunDirRoot},
		{Key: "RUNDIR", Value: d.RunDir()},
		{Key: "LOG_DIR", Value: d.LogDir},
		{Key: "CREATE_BASELINE", Value: strconv.FormatBool(d.CreateBaseline)},
		{Key: "RT_SUFFIX", Value: d.RunSuffix},
		{Key: "BL_SUFFIX", Value: d.BaselineSuffix},
		{Key: "COMPILE_NAME", Value: d.CompileName},
		{Key: "RESTART_SOURCE", Value: d.RestartSource},
	}
	return append(env, d.Params.Env()...)
}

// Environ returns the descriptor in os/exec KEY=VALUE form.
func (d *Descriptor) Environ() []string {
	env := d.Env()
	out := make([]string, len(env))
	for i, kv := range env {
		out[i] = kv.Key + "=" + kv.Value
	}
	return out
}

// Write stores the descriptor at path, one export statement per line.
func (d *Descriptor) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating descriptor directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating descriptor: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, kv := range d.Env() {
		fmt.Fprintf(w, "export %s=%s\n", kv.Key, shellQuote(kv.Value))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing descriptor: %w", err)
	}
	return f.Close()
}

// shellQuote wraps s in single quotes so the shell takes it literally.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
