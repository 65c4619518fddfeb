package hcl

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/utestgrid/internal/config"
	"github.com/specialistvlad/utestgrid/internal/descriptor"
	"github.com/specialistvlad/utestgrid/internal/params"
)

// translateHarness converts the HCL-specific harness schema into the agnostic model.
func translateHarness(f *harnessFile, baseDir string) *config.Harness {
	h := &config.Harness{
		Machine: config.Machine{
			ID:           f.Machine.ID,
			Scheduler:    f.Machine.Scheduler,
			Account:      f.Machine.Account,
			Queue:        f.Machine.Queue,
			TasksPerNode: f.Machine.TasksPerNode,
		},
		Paths: config.Paths{
			Source:    resolve(baseDir, f.Paths.Source),
			Baselines: resolve(baseDir, f.Paths.Baselines),
			RunRoot:   resolve(baseDir, f.Paths.RunRoot),
			BuildDir:  resolve(baseDir, f.Paths.BuildDir),
			LogDir:    resolve(baseDir, f.Paths.LogDir),
		},
		Scripts: config.Scripts{
			Compile: defaultCompileScript,
			Run:     defaultRunScript,
		},
	}
	if h.Paths.BuildDir == "" {
		h.Paths.BuildDir = baseDir
	}
	if h.Paths.LogDir == "" {
		h.Paths.LogDir = filepath.Join(baseDir, "log_ut_"+f.Machine.ID)
	}
	if f.Scripts != nil {
		if f.Scripts.Compile != "" {
			h.Scripts.Compile = f.Scripts.Compile
		}
		if f.Scripts.Run != "" {
			h.Scripts.Run = f.Scripts.Run
		}
	}
	h.Scripts.Compile = resolve(baseDir, h.Scripts.Compile)
	h.Scripts.Run = resolve(baseDir, h.Scripts.Run)
	return h
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// applyOverrides copies every attribute set in f onto b. Unknown attributes
// are converted to strings and stored in b.Extra under their upper-cased name.
func applyOverrides(b params.Baseline, f *parametersFile, evalCtx *hcl.EvalContext) (params.Baseline, error) {
	setInt(&b.Inpes, f.Inpes)
	setInt(&b.Jnpes, f.Jnpes)
	setInt(&b.Threads, f.Threads)
	setInt(&b.TasksPerNode, f.TasksPerNode)
	setInt(&b.WriteGroups, f.WriteGroups)
	setInt(&b.WriteTasksPerGroup, f.WriteTasksPerGroup)
	setInt(&b.ForecastHours, f.ForecastHours)
	setInt(&b.RestartInterval, f.RestartInterval)
	setInt(&b.StartHour, f.StartHour)
	setInt(&b.ArtificialInit, f.ArtificialInit)
	setBool(&b.WarmStart, f.WarmStart)
	setBool(&b.ColdStartIC, f.ColdStartIC)
	setBool(&b.ExternalIC, f.ExternalIC)
	setBool(&b.MakeNonHydrostatic, f.MakeNonHydrostatic)
	setBool(&b.Mountain, f.Mountain)
	if f.SurfaceFluxTable != nil {
		b.SurfaceFluxTable = *f.SurfaceFluxTable
	}

	if f.Remain == nil {
		return b, nil
	}
	attrs, diags := f.Remain.JustAttributes()
	if diags.HasErrors() {
		return b, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	reserved := reservedKeys()
	var collisions []error
	for _, name := range names {
		key := strings.ToUpper(name)
		if owner, ok := reserved[key]; ok {
			collisions = append(collisions, collisionError(name, key, owner))
			continue
		}
		val, diags := attrs[name].Expr.Value(evalCtx)
		if diags.HasErrors() {
			return b, diags
		}
		s, err := ctyToString(val)
		if err != nil {
			return b, fmt.Errorf("attribute %q: %w", name, err)
		}
		b.Extra[key] = s
	}
	if len(collisions) > 0 {
		return b, errors.Join(collisions...)
	}
	return b, nil
}

// typedAttributes maps the exported name of every typed parameter to the
// attribute that sets it.
var typedAttributes = map[string]string{
	"INPES":             "inpes",
	"JNPES":             "jnpes",
	"THRD":              "threads",
	"TPN":               "tasks_per_node",
	"WRITE_GROUP":       "write_groups",
	"WRTTASK_PER_GROUP": "write_tasks_per_group",
	"FHMAX":             "forecast_hours",
	"RESTART_INTERVAL":  "restart_interval",
	"FHROT":             "start_hour",
	"WARM_START":        "warm_start",
	"NGGPS_IC":          "cold_start_ic",
	"EXTERNAL_IC":       "external_ic",
	"MAKE_NH":           "make_nh",
	"MOUNTAIN":          "mountain",
	"NA_INIT":           "na_init",
	"NSTF_NAME":         "nstf_name",
}

// reservedKeys returns every key the run environment already exports,
// mapped to the typed attribute that controls it. Keys computed by the
// harness itself map to "".
func reservedKeys() map[string]string {
	keys := make(map[string]string)
	for _, kv := range (&descriptor.Descriptor{}).Env() {
		keys[kv.Key] = typedAttributes[kv.Key]
	}
	return keys
}

func collisionError(name, key, owner string) error {
	if owner != "" {
		return fmt.Errorf("attribute %q would override %s; set %q instead", name, key, owner)
	}
	return fmt.Errorf("attribute %q would override %s, which the harness computes for every run", name, key)
}

// ctyToString turns a primitive cty value into its string form.
func ctyToString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	if !val.IsKnown() {
		return "", fmt.Errorf("value is not known")
	}
	if !val.Type().IsPrimitiveType() {
		return "", fmt.Errorf("must be a string, number or bool, got %s", val.Type().FriendlyName())
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return str.AsString(), nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
