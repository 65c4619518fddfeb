// Package matrix expands user selections into the ordered compile-cases and
// run-cases of one harness invocation.
package matrix

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/utestgrid/internal/variant"
)

// Mode selects which of the three pipelines an invocation runs.
type Mode int

const (
	// ModeBoth creates a fresh baseline and then compares against it.
	ModeBoth Mode = iota
	// ModeBaseline only creates baselines.
	ModeBaseline
	// ModeRun only compares against a previously created baseline.
	ModeRun
)

func (m Mode) String() string {
	switch m {
	case ModeBoth:
		return "both"
	case ModeBaseline:
		return "baseline"
	case ModeRun:
		return "run"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ErrEmptySelection is returned when the active mode has nothing to resolve.
var ErrEmptySelection = errors.New("no cases selected")

// Matrix holds the resolved, priority-ordered case lists.
type Matrix struct {
	CompileCases []variant.Variant
	RunCases     []variant.Variant
}

// Resolve builds the case matrix for a mode. baseline is consulted only in
// ModeBaseline and run only in ModeRun.
func Resolve(mode Mode, baseline, run []variant.Variant) (Matrix, error) {
	var compile, runs []variant.Variant

	switch mode {
	case ModeBoth:
		compile = slices.Clone(variant.CompileVocabulary)
		runs = slices.Clone(variant.RunVocabulary)
	case ModeBaseline:
		for _, v := range baseline {
			if !v.IsCompileCase() {
				continue
			}
			compile = append(compile, v)
			runs = append(runs, v)
		}
	case ModeRun:
		for _, v := range run {
			if !v.Valid() {
				return Matrix{}, fmt.Errorf("invalid run case %s", v)
			}
			compile = append(compile, v.RequiredCompile())
			runs = append(runs, v)
		}
	default:
		return Matrix{}, fmt.Errorf("unsupported mode %s", mode)
	}

	if len(runs) == 0 {
		return Matrix{}, fmt.Errorf("%w for %s mode", ErrEmptySelection, mode)
	}

	m := Matrix{
		CompileCases: canonical(compile),
		RunCases:     canonical(runs),
	}

	// A restart run restages files written by a std run of the same tree.
	if slices.Contains(m.RunCases, variant.Restart) && !slices.Contains(m.RunCases, variant.Std) {
		m.RunCases = slices.Insert(m.RunCases, 0, variant.Std)
	}
	return m, nil
}

// canonical sorts by priority and drops duplicates.
func canonical(cases []variant.Variant) []variant.Variant {
	out := slices.Clone(cases)
	slices.SortFunc(out, func(a, b variant.Variant) int {
		return a.Priority() - b.Priority()
	})
	return slices.Compact(out)
}

// CompileCaseFor returns the compile-case a run-case executes.
func (m Matrix) CompileCaseFor(run variant.Variant) variant.Variant {
	return run.RequiredCompile()
}
