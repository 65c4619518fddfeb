package params

import (
	"fmt"

	"github.com/specialistvlad/utestgrid/internal/variant"
)

// restartFluxTable is the surface-flux-table selector for warm starts.
const restartFluxTable = "2,0,1,0,5"

// Derived is the parameter set of a single run-case.
type Derived struct {
	Baseline
	Variant variant.Variant
	// StageRestart is set when restart and history files of a prior std run
	// must be copied into the run directory before the model starts.
	StageRestart bool
	Resources    Resources
}

// Derive applies the rule of v to a private copy of base. base is never
// modified, so deriving the same variant twice from one baseline gives two
// identical, independent results.
func Derive(base Baseline, v variant.Variant) Derived {
	d := Derived{Baseline: base.Clone(), Variant: v}

	switch v {
	case variant.Std:
		d.RestartInterval = d.ForecastHours / 2
	case variant.Thread:
		d.Threads = 2
		d.Jnpes /= d.Threads
		d.TasksPerNode /= d.Threads
	case variant.MPI:
		d.Jnpes /= 2
	case variant.Decomp:
		d.Inpes, d.Jnpes = d.Jnpes, d.Inpes
	case variant.Restart:
		d.StartHour = d.ForecastHours / 2
		d.WarmStart = true
		d.Mountain = true
		d.ColdStartIC = false
		d.ExternalIC = false
		d.MakeNonHydrostatic = false
		d.ArtificialInit = 0
		d.SurfaceFluxTable = restartFluxTable
		d.StageRestart = true
	case variant.Bit32, variant.Debug:
		// Build-only variants.
	default:
		panic(fmt.Sprintf("params: no derivation rule for %s", v))
	}
	return d
}
