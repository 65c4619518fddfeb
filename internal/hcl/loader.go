package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/utestgrid/internal/config"
	"github.com/specialistvlad/utestgrid/internal/ctxlog"
	"github.com/specialistvlad/utestgrid/internal/params"
)

const (
	defaultCompileScript = "compile.sh"
	defaultRunScript     = "run_test.sh"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// LoadHarness parses the harness file at path. Relative paths inside the
// file are resolved against the directory that contains it.
func (l *Loader) LoadHarness(ctx context.Context, path string) (*config.Harness, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading harness configuration.", "path", path)

	file, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	var root harnessFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving directory of %s: %w", path, err)
	}
	harness := translateHarness(&root, base)
	if err := harness.Validate(); err != nil {
		return nil, fmt.Errorf("invalid harness configuration %s: %w", path, err)
	}

	logger.Debug("Harness configuration loaded.", "machine", harness.Machine.ID, "tasks_per_node", harness.Machine.TasksPerNode)
	return harness, nil
}

// LoadParameters applies the overrides in the parameter file at path to a
// copy of base. Expressions in the file can refer to the machine profile
// through the "machine" object, e.g. `write_tasks_per_group = machine.tasks_per_node`.
func (l *Loader) LoadParameters(ctx context.Context, path string, base params.Baseline, machine config.Machine) (params.Baseline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading test parameters.", "path", path)

	file, err := parseFile(path)
	if err != nil {
		return params.Baseline{}, err
	}

	evalCtx := machineEvalContext(machine)

	var overrides parametersFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &overrides); diags.HasErrors() {
		return params.Baseline{}, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	out, err := applyOverrides(base.Clone(), &overrides, evalCtx)
	if err != nil {
		return params.Baseline{}, fmt.Errorf("failed to apply parameters from %s: %w", path, err)
	}

	logger.Debug("Test parameters loaded.", "inpes", out.Inpes, "jnpes", out.Jnpes, "extra_count", len(out.Extra))
	return out, nil
}

func parseFile(path string) (*hcl.File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return file, nil
}

func machineEvalContext(m config.Machine) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"machine": cty.ObjectVal(map[string]cty.Value{
				"id":             cty.StringVal(m.ID),
				"scheduler":      cty.StringVal(m.Scheduler),
				"tasks_per_node": cty.NumberIntVal(int64(m.TasksPerNode)),
			}),
		},
	}
}
