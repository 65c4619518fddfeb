package config

import (
	"errors"
	"fmt"
)

// Harness is the unified representation of the harness configuration file.
type Harness struct {
	Machine Machine
	Paths   Paths
	Scripts Scripts
}

// Machine describes the platform the tests run on.
type Machine struct {
	ID           string
	Scheduler    string
	Account      string
	Queue        string
	TasksPerNode int
}

// Paths is the directory layout of one harness. All paths are absolute
// once loaded.
type Paths struct {
	Source    string // model sources handed to the compiler
	Baselines string // root of the baseline artifact trees
	RunRoot   string // scratch run-directory root
	BuildDir  string // where the compiler drops executables
	LogDir    string
}

// Scripts are the external compiler and runner entry points.
type Scripts struct {
	Compile string
	Run     string
}

// Validate checks that every field the orchestrator depends on is set.
func (h *Harness) Validate() error {
	var errs []error
	if h.Machine.ID == "" {
		errs = append(errs, errors.New("machine id is required"))
	}
	if h.Machine.TasksPerNode <= 0 {
		errs = append(errs, fmt.Errorf("machine %q: tasks_per_node must be positive, got %d", h.Machine.ID, h.Machine.TasksPerNode))
	}
	for _, field := range []struct{ name, value string }{
		{"paths.source", h.Paths.Source},
		{"paths.baselines", h.Paths.Baselines},
		{"paths.run_root", h.Paths.RunRoot},
		{"paths.build_dir", h.Paths.BuildDir},
		{"paths.log_dir", h.Paths.LogDir},
		{"scripts.compile", h.Scripts.Compile},
		{"scripts.run", h.Scripts.Run},
	} {
		if field.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", field.name))
		}
	}
	return errors.Join(errs...)
}
