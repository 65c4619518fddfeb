package hcl

import "github.com/hashicorp/hcl/v2"

// harnessFile is the top-level layout of the harness configuration file.
type harnessFile struct {
	Machine machineBlock  `hcl:"machine,block"`
	Paths   pathsBlock    `hcl:"paths,block"`
	Scripts *scriptsBlock `hcl:"scripts,block"`
}

type machineBlock struct {
	ID           string `hcl:"id,label"`
	Scheduler    string `hcl:"scheduler"`
	Account      string `hcl:"account,optional"`
	Queue        string `hcl:"queue,optional"`
	TasksPerNode int    `hcl:"tasks_per_node"`
}

type pathsBlock struct {
	Source    string `hcl:"source"`
	Baselines string `hcl:"baselines"`
	RunRoot   string `hcl:"run_root"`
	BuildDir  string `hcl:"build_dir,optional"`
	LogDir    string `hcl:"log_dir,optional"`
}

type scriptsBlock struct {
	Compile string `hcl:"compile,optional"`
	Run     string `hcl:"run,optional"`
}

// parametersFile holds the overrides a test may set. Absent attributes stay
// nil and keep the inherited value; anything not listed here is collected
// from Remain and exported verbatim.
type parametersFile struct {
	Inpes              *int     `hcl:"inpes,optional"`
	Jnpes              *int     `hcl:"jnpes,optional"`
	Threads            *int     `hcl:"threads,optional"`
	TasksPerNode       *int     `hcl:"tasks_per_node,optional"`
	WriteGroups        *int     `hcl:"write_groups,optional"`
	WriteTasksPerGroup *int     `hcl:"write_tasks_per_group,optional"`
	ForecastHours      *int     `hcl:"forecast_hours,optional"`
	RestartInterval    *int     `hcl:"restart_interval,optional"`
	StartHour          *int     `hcl:"start_hour,optional"`
	WarmStart          *bool    `hcl:"warm_start,optional"`
	ColdStartIC        *bool    `hcl:"cold_start_ic,optional"`
	ExternalIC         *bool    `hcl:"external_ic,optional"`
	MakeNonHydrostatic *bool    `hcl:"make_nh,optional"`
	Mountain           *bool    `hcl:"mountain,optional"`
	ArtificialInit     *int     `hcl:"na_init,optional"`
	SurfaceFluxTable   *string  `hcl:"nstf_name,optional"`
	Remain             hcl.Body `hcl:",remain"`
}
