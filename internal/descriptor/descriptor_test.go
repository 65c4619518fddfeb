package descriptor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/utestgrid/internal/params"
	"github.com/specialistvlad/utestgrid/internal/variant"
)

func testDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	base := params.Defaults()
	base.TasksPerNode = 40
	base.Extra["CCPP_SUITE"] = "it's FV3"
	derived, err := params.Prepare(base, variant.Restart)
	require.NoError(t, err)

	return &Descriptor{
		MachineID:      "hera.intel",
		Scheduler:      "slurm",
		Account:        "nems",
		Queue:          "batch",
		TestName:       "fv3_control",
		BaselineDir:    "/bl/fv3_control",
		RunDirRoot:     "/run",
		LogDir:         "/logs",
		RunSuffix:      "_restart",
		BaselineSuffix: "_std",
		CompileName:    "std",
		RestartSource:  "/run/fv3_control_std",
		Params:         derived,
	}
}

func TestWrite(t *testing.T) {
	d := testDescriptor(t)
	path := filepath.Join(t.TempDir(), "nested", "fv3_control_restart.env")

	require.NoError(t, d.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	assert.Equal(t, "export MACHINE_ID='hera.intel'", lines[0])
	assert.Contains(t, lines, "export CREATE_BASELINE='false'")
	assert.Contains(t, lines, "export RT_SUFFIX='_restart'")
	assert.Contains(t, lines, "export BL_SUFFIX='_std'")
	assert.Contains(t, lines, "export RUNDIR='/run/fv3_control_restart'")
	assert.Contains(t, lines, "export WARM_START='.T.'")
	assert.Contains(t, lines, "export TASKS='150'")
	assert.Contains(t, lines, "export NODES='4'")
	assert.Contains(t, lines, `export CCPP_SUITE='it'\''s FV3'`)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "export "), line)
	}
}

func TestEnviron(t *testing.T) {
	d := testDescriptor(t)
	d.CreateBaseline = true

	env := d.Environ()
	assert.Contains(t, env, "CREATE_BASELINE=true")
	assert.Contains(t, env, "TEST_CASE=restart")
	assert.Contains(t, env, "STAGE_RESTART=true")
	assert.Len(t, env, len(d.Env()))
}
