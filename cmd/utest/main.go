package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/utestgrid/internal/app"
	"github.com/specialistvlad/utestgrid/internal/cli"
	"github.com/specialistvlad/utestgrid/internal/hcl"
)

// main is the entrypoint for the utest harness.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and executes one invocation. Failed cases do not make it
// return an error; they are listed in the report and the failure file.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	utest := app.NewApp(outW, appConfig, hcl.NewLoader())
	if err := utest.Run(ctx); err != nil {
		cli.Usage(errW)
		return err
	}
	return nil
}
