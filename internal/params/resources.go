package params

import (
	"fmt"

	"github.com/specialistvlad/utestgrid/internal/variant"
)

// TileCount is the number of cubed-sphere tiles; every tile runs on its own
// Inpes x Jnpes process grid.
const TileCount = 6

// Resources is the scheduler request of a run-case.
type Resources struct {
	Tasks int
	Nodes int
}

// Compute returns the task and node counts of a derived parameter set.
//
// Nodes is tasks/TasksPerNode + 1 with floor division, so an exact multiple
// asks for one node more than it needs. Existing batch scripts and baselines
// are sized with this rule and it is kept as is.
func Compute(d Derived) (Resources, error) {
	if d.TasksPerNode <= 0 {
		return Resources{}, fmt.Errorf("tasks per node must be positive, got %d", d.TasksPerNode)
	}
	tasks := d.Inpes*d.Jnpes*TileCount + d.WriteGroups*d.WriteTasksPerGroup
	return Resources{
		Tasks: tasks,
		Nodes: tasks/d.TasksPerNode + 1,
	}, nil
}

// Prepare derives the parameter set of v and fills in its resources.
func Prepare(base Baseline, v variant.Variant) (Derived, error) {
	d := Derive(base, v)
	res, err := Compute(d)
	if err != nil {
		return Derived{}, fmt.Errorf("computing resources for %s: %w", v, err)
	}
	d.Resources = res
	return d, nil
}

// Env renders the derived set including its resource request and the
// restart staging flag.
func (d Derived) Env() []KeyValue {
	env := d.Baseline.Env()
	return append(env,
		KeyValue{"TASKS", fmt.Sprint(d.Resources.Tasks)},
		KeyValue{"NODES", fmt.Sprint(d.Resources.Nodes)},
		KeyValue{"STAGE_RESTART", fmt.Sprint(d.StageRestart)},
	)
}
