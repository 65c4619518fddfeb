package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/utestgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageHeader = `
utest - compile and run the unit-test matrix of a forecast model test.

Usage:
  utest -n <test-name> [-c <baseline-cases> | -r <unit-test-cases>] [-k] [options]

Cases:
  baseline cases (-c):  all | std,32bit,debug
  unit-test cases (-r): all | std,thread,mpi,decomp,restart,32bit,debug
  Without -c and -r a fresh baseline is created and then compared against.

Options:
`

type flags struct {
	testName, baselineCases, runCases      string
	keepRunDir                             bool
	harness, buildTable, testsDir, workDir string
	logFormat, logLevel                    string
}

func newFlagSet() (*flag.FlagSet, *flags) {
	f := &flags{}
	fs := flag.NewFlagSet("utest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&f.testName, "n", "", "Name of the test to run (required).")
	fs.StringVar(&f.baselineCases, "c", "", "Create baselines for these cases only.")
	fs.StringVar(&f.runCases, "r", "", "Compare these unit-test cases against an existing baseline.")
	fs.BoolVar(&f.keepRunDir, "k", false, "Keep the run directory after a successful run.")
	fs.StringVar(&f.harness, "f", "utest.hcl", "Path to the harness configuration file.")
	fs.StringVar(&f.buildTable, "b", "utest.bld", "Path to the build configuration table.")
	fs.StringVar(&f.testsDir, "t", "tests", "Directory holding the <test>.hcl parameter files.")
	fs.StringVar(&f.workDir, "w", ".", "Working directory for the lock, logs and reports.")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	return fs, f
}

// Usage writes the help text to w.
func Usage(w io.Writer) {
	fs, _ := newFlagSet()
	printUsage(fs, w)
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprint(w, usageHeader)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}

// usageError prints usage to errW and wraps msg as a status 1 exit.
func usageError(fs *flag.FlagSet, errW io.Writer, msg string) *ExitError {
	printUsage(fs, errW)
	return &ExitError{Code: 1, Message: msg}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Help goes to outW; usage after an invalid invocation goes to errW.
func Parse(args []string, outW, errW io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	fs, f := newFlagSet()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(fs, outW)
			return nil, true, nil
		}
		return nil, false, usageError(fs, errW, err.Error())
	}
	if fs.NArg() > 0 {
		return nil, false, usageError(fs, errW, fmt.Sprintf("unexpected argument %q", fs.Arg(0)))
	}
	slog.Debug("Arguments parsed successfully.")

	logFormat := strings.ToLower(f.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError(fs, errW, "invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(f.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError(fs, errW, "invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	config, err := app.NewConfig(app.Config{
		TestName:       f.testName,
		BaselineCases:  f.baselineCases,
		RunCases:       f.runCases,
		KeepRunDir:     f.keepRunDir,
		HarnessPath:    f.harness,
		BuildTablePath: f.buildTable,
		TestsDir:       f.testsDir,
		WorkDir:        f.workDir,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	})
	if err != nil {
		return nil, false, usageError(fs, errW, err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "test", config.TestName, "mode", config.Mode().String())
	return config, false, nil
}
