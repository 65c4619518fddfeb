package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/utestgrid/internal/variant"
)

func testBaseline() Baseline {
	b := Defaults()
	b.Inpes = 6
	b.Jnpes = 8
	b.TasksPerNode = 24
	b.Extra["DT_ATMOS"] = "225"
	return b
}

func TestDerive_Rules(t *testing.T) {
	base := testBaseline()

	testCases := []struct {
		variant variant.Variant
		check   func(t *testing.T, d Derived)
	}{
		{variant.Std, func(t *testing.T, d Derived) {
			assert.Equal(t, 12, d.RestartInterval)
			assert.Equal(t, 6, d.Inpes)
			assert.Equal(t, 8, d.Jnpes)
		}},
		{variant.Thread, func(t *testing.T, d Derived) {
			assert.Equal(t, 2, d.Threads)
			assert.Equal(t, 4, d.Jnpes)
			assert.Equal(t, 12, d.TasksPerNode)
			assert.Equal(t, 6, d.Inpes)
		}},
		{variant.MPI, func(t *testing.T, d Derived) {
			assert.Equal(t, 4, d.Jnpes)
			assert.Equal(t, 1, d.Threads)
			assert.Equal(t, 24, d.TasksPerNode)
		}},
		{variant.Decomp, func(t *testing.T, d Derived) {
			assert.Equal(t, 8, d.Inpes)
			assert.Equal(t, 6, d.Jnpes)
		}},
		{variant.Restart, func(t *testing.T, d Derived) {
			assert.True(t, d.WarmStart)
			assert.True(t, d.Mountain)
			assert.False(t, d.ColdStartIC)
			assert.False(t, d.ExternalIC)
			assert.False(t, d.MakeNonHydrostatic)
			assert.Equal(t, 0, d.ArtificialInit)
			assert.Equal(t, "2,0,1,0,5", d.SurfaceFluxTable)
			assert.Equal(t, 12, d.StartHour)
			assert.True(t, d.StageRestart)
		}},
		{variant.Bit32, func(t *testing.T, d Derived) {
			assert.Equal(t, base, d.Baseline)
			assert.False(t, d.StageRestart)
		}},
		{variant.Debug, func(t *testing.T, d Derived) {
			assert.Equal(t, base, d.Baseline)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.variant.String(), func(t *testing.T) {
			d := Derive(base, tc.variant)
			assert.Equal(t, tc.variant, d.Variant)
			tc.check(t, d)
		})
	}
}

func TestDerive_EveryVariantHasARule(t *testing.T) {
	for _, v := range variant.RunVocabulary {
		assert.NotPanics(t, func() { Derive(testBaseline(), v) }, v.String())
	}
	assert.Panics(t, func() { Derive(testBaseline(), variant.Variant(0)) })
}

func TestDerive_DoesNotMutateBase(t *testing.T) {
	base := testBaseline()

	first := Derive(base, variant.Decomp)
	second := Derive(base, variant.Decomp)

	// Swapped exactly once each, not twice.
	assert.Equal(t, 8, first.Inpes)
	assert.Equal(t, 6, first.Jnpes)
	assert.Equal(t, first.Baseline, second.Baseline)
	assert.Equal(t, 6, base.Inpes)
	assert.Equal(t, 8, base.Jnpes)

	first.Extra["DT_ATMOS"] = "900"
	assert.Equal(t, "225", base.Extra["DT_ATMOS"])
	assert.Equal(t, "225", second.Extra["DT_ATMOS"])
}

func TestDerive_ThreadUsesIntegerDivision(t *testing.T) {
	base := testBaseline()
	base.Jnpes = 7
	base.TasksPerNode = 9

	d := Derive(base, variant.Thread)
	assert.Equal(t, 3, d.Jnpes)
	assert.Equal(t, 4, d.TasksPerNode)
}

func TestCompute(t *testing.T) {
	testCases := []struct {
		name      string
		inpes     int
		jnpes     int
		groups    int
		perGroup  int
		tpn       int
		expected  Resources
		expectErr bool
	}{
		{
			name: "exact multiple gets one extra node",
			inpes: 6, jnpes: 6, groups: 1, perGroup: 24, tpn: 24,
			expected: Resources{Tasks: 240, Nodes: 11},
		},
		{
			name: "remainder",
			inpes: 3, jnpes: 8, groups: 1, perGroup: 6, tpn: 40,
			expected: Resources{Tasks: 150, Nodes: 4},
		},
		{
			name: "no write component",
			inpes: 1, jnpes: 1, groups: 0, perGroup: 6, tpn: 4,
			expected: Resources{Tasks: 6, Nodes: 2},
		},
		{
			name: "error - zero tasks per node",
			inpes: 1, jnpes: 1, tpn: 0,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Derived{Baseline: Baseline{
				Inpes:              tc.inpes,
				Jnpes:              tc.jnpes,
				WriteGroups:        tc.groups,
				WriteTasksPerGroup: tc.perGroup,
				TasksPerNode:       tc.tpn,
			}}

			res, err := Compute(d)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestPrepare(t *testing.T) {
	d, err := Prepare(testBaseline(), variant.Thread)
	require.NoError(t, err)

	// 6*4*6 + 1*6 = 150 tasks on 12 tasks per node.
	assert.Equal(t, Resources{Tasks: 150, Nodes: 13}, d.Resources)

	base := testBaseline()
	base.TasksPerNode = 1
	_, err = Prepare(base, variant.Thread)
	require.Error(t, err, "thread halves a single task per node to zero")
	assert.Contains(t, err.Error(), "thread")
}

func TestEnv(t *testing.T) {
	d, err := Prepare(testBaseline(), variant.Restart)
	require.NoError(t, err)

	env := map[string]string{}
	var keys []string
	for _, kv := range d.Env() {
		env[kv.Key] = kv.Value
		keys = append(keys, kv.Key)
	}

	assert.Equal(t, ".T.", env["WARM_START"])
	assert.Equal(t, ".F.", env["NGGPS_IC"])
	assert.Equal(t, "2,0,1,0,5", env["NSTF_NAME"])
	assert.Equal(t, "225", env["DT_ATMOS"])
	assert.Equal(t, "true", env["STAGE_RESTART"])
	assert.Equal(t, "294", env["TASKS"])
	assert.Equal(t, "INPES", keys[0])
	assert.Equal(t, "STAGE_RESTART", keys[len(keys)-1])
}
