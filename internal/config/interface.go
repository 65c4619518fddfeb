package config

import (
	"context"

	"github.com/specialistvlad/utestgrid/internal/params"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// LoadHarness reads the machine profile and directory layout.
	LoadHarness(ctx context.Context, path string) (*Harness, error)

	// LoadParameters applies the per-test overrides found at path on top of
	// base and returns the result. base is not modified.
	LoadParameters(ctx context.Context, path string, base params.Baseline, machine Machine) (params.Baseline, error)
}
