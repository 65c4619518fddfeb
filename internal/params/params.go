// Package params holds the simulation parameter set of a unit test, the
// per-variant derivation rules applied to it, and the task/node arithmetic
// that turns a derived set into a scheduler resource request.
//
// A Baseline is loaded once per invocation and never modified. Every
// run-case gets its own Derived copy from Derive.
package params

import (
	"maps"
	"slices"
	"strconv"
)

// Baseline is the parameter set of a test before any variant is applied.
type Baseline struct {
	Inpes              int // first process-grid axis
	Jnpes              int // second process-grid axis
	Threads            int
	TasksPerNode       int
	WriteGroups        int
	WriteTasksPerGroup int
	ForecastHours      int
	RestartInterval    int
	StartHour          int

	WarmStart          bool
	ColdStartIC        bool
	ExternalIC         bool
	MakeNonHydrostatic bool
	Mountain           bool
	ArtificialInit     int
	SurfaceFluxTable   string

	// Extra carries test-specific settings that are handed to the runner
	// verbatim. Keys are environment variable names.
	Extra map[string]string
}

// Defaults returns the parameter set every test starts from. TasksPerNode
// is left at zero and is filled from the machine profile.
func Defaults() Baseline {
	return Baseline{
		Inpes:              3,
		Jnpes:              8,
		Threads:            1,
		WriteGroups:        1,
		WriteTasksPerGroup: 6,
		ForecastHours:      24,
		ColdStartIC:        true,
		ExternalIC:         true,
		MakeNonHydrostatic: true,
		ArtificialInit:     1,
		SurfaceFluxTable:   "2,1,1,0,5",
		Extra:              map[string]string{},
	}
}

// Clone returns a copy that shares no mutable state with b.
func (b Baseline) Clone() Baseline {
	c := b
	c.Extra = maps.Clone(b.Extra)
	if c.Extra == nil {
		c.Extra = map[string]string{}
	}
	return c
}

// KeyValue is one exported setting.
type KeyValue struct {
	Key   string
	Value string
}

// Env renders the parameter set as ordered environment settings. Typed
// fields come first in a fixed order, followed by Extra sorted by key.
func (b Baseline) Env() []KeyValue {
	env := []KeyValue{
		{"INPES", strconv.Itoa(b.Inpes)},
		{"JNPES", strconv.Itoa(b.Jnpes)},
		{"THRD", strconv.Itoa(b.Threads)},
		{"TPN", strconv.Itoa(b.TasksPerNode)},
		{"WRITE_GROUP", strconv.Itoa(b.WriteGroups)},
		{"WRTTASK_PER_GROUP", strconv.Itoa(b.WriteTasksPerGroup)},
		{"FHMAX", strconv.Itoa(b.ForecastHours)},
		{"RESTART_INTERVAL", strconv.Itoa(b.RestartInterval)},
		{"FHROT", strconv.Itoa(b.StartHour)},
		{"WARM_START", fortranBool(b.WarmStart)},
		{"NGGPS_IC", fortranBool(b.ColdStartIC)},
		{"EXTERNAL_IC", fortranBool(b.ExternalIC)},
		{"MAKE_NH", fortranBool(b.MakeNonHydrostatic)},
		{"MOUNTAIN", fortranBool(b.Mountain)},
		{"NA_INIT", strconv.Itoa(b.ArtificialInit)},
		{"NSTF_NAME", b.SurfaceFluxTable},
	}
	for _, k := range slices.Sorted(maps.Keys(b.Extra)) {
		env = append(env, KeyValue{k, b.Extra[k]})
	}
	return env
}

// fortranBool renders a flag the way the model's namelists expect it.
func fortranBool(v bool) string {
	if v {
		return ".T."
	}
	return ".F."
}
