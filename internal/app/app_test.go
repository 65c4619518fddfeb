package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/specialistvlad/utestgrid/internal/hcl"
	"github.com/specialistvlad/utestgrid/internal/matrix"
	"github.com/specialistvlad/utestgrid/internal/orchestrator"
	"github.com/specialistvlad/utestgrid/internal/testutil"
	"github.com/specialistvlad/utestgrid/internal/variant"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("os/signal.signal_recv"))
}

const fv3Params = `
inpes    = 3
jnpes    = 8
dt_atmos = 225
`

// setupApp creates an App over a fresh workspace with fake executors.
func setupApp(t *testing.T, cfg Config) (*App, *testutil.Workspace, *testutil.FakeExecutor, *testutil.SafeBuffer) {
	t.Helper()

	w := testutil.NewWorkspace(t, "fv3", fv3Params)
	cfg.WorkDir = w.Root
	cfg.HarnessPath = w.Harness
	cfg.LogLevel = "debug"
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	fake := testutil.NewFakeExecutor()
	logBuffer := &testutil.SafeBuffer{}
	a := NewApp(logBuffer, appConfig, hcl.NewLoader(), WithExecutors(fake, fake))

	t.Cleanup(func() {
		if os.Getenv("UTEST_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return a, w, fake, logBuffer
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name     string
		in       Config
		wantErr  string
		wantMode matrix.Mode
	}{
		{name: "both mode by default", in: Config{TestName: "fv3"}, wantMode: matrix.ModeBoth},
		{name: "baseline mode", in: Config{TestName: "fv3", BaselineCases: "all"}, wantMode: matrix.ModeBaseline},
		{name: "run mode", in: Config{TestName: "fv3", RunCases: "mpi"}, wantMode: matrix.ModeRun},
		{name: "missing test name", in: Config{TestName: "  "}, wantErr: "test name is required"},
		{name: "both selections", in: Config{TestName: "fv3", BaselineCases: "std", RunCases: "std"}, wantErr: "mutually exclusive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.in)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, cfg.Mode())
			assert.Equal(t, ".", cfg.WorkDir)
			assert.Equal(t, "utest.hcl", cfg.HarnessPath)
			assert.Equal(t, filepath.Join("tests", "fv3.hcl"), cfg.ParametersPath())
		})
	}
}

func TestRun_BothMode(t *testing.T) {
	// --- Arrange ---
	a, w, fake, logs := setupApp(t, Config{TestName: "fv3"})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, a.Report())
	assert.True(t, a.Report().Passed)
	assert.Len(t, fake.Cases(), 3+2*len(variant.RunVocabulary))

	std := fake.Records()[3]
	assert.Equal(t, "3", std.Env["INPES"])
	assert.Equal(t, "40", std.Env["TPN"], "tasks per node comes from the machine")
	assert.Equal(t, "225", std.Env["DT_ATMOS"])
	assert.Equal(t, "12", std.Env["RESTART_INTERVAL"])
	assert.Equal(t, "test.gnu", std.Env["MACHINE_ID"])

	assert.DirExists(t, filepath.Join(w.Baselines, "fv3"))
	assert.FileExists(t, filepath.Join(w.Root, "utest_test.gnu.log"))
	assert.Contains(t, logs.String(), "Case matrix resolved.")
}

func TestRun_SelectedRunCases(t *testing.T) {
	a, w, fake, _ := setupApp(t, Config{TestName: "fv3", RunCases: "restart"})
	require.NoError(t, os.MkdirAll(filepath.Join(w.Baselines, "fv3"), 0755))

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"compile:std", "run:std", "run:restart"}, fake.Cases())
}

func TestRun_BaselineCasesUseCompileVocabulary(t *testing.T) {
	a, _, fake, _ := setupApp(t, Config{TestName: "fv3", BaselineCases: "debug,std"})

	err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"compile:std", "compile:debug", "run:std", "run:debug"}, fake.Cases())
}

func TestRun_FatalErrors(t *testing.T) {
	testCases := []struct {
		name   string
		cfg    Config
		modify func(t *testing.T, w *testutil.Workspace)
		check  func(t *testing.T, err error)
	}{
		{
			name: "unknown run case",
			cfg:  Config{TestName: "fv3", RunCases: "std,bogus"},
			check: func(t *testing.T, err error) {
				var unknown *variant.UnknownError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, "bogus", unknown.Token)
			},
		},
		{
			name: "run case is not a baseline case",
			cfg:  Config{TestName: "fv3", BaselineCases: "mpi"},
			check: func(t *testing.T, err error) {
				var unknown *variant.UnknownError
				require.ErrorAs(t, err, &unknown)
			},
		},
		{
			name: "no baseline for run mode",
			cfg:  Config{TestName: "fv3", RunCases: "all"},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, orchestrator.ErrNoBaseline)
			},
		},
		{
			name: "unknown test",
			cfg:  Config{TestName: "fv3_missing"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), `parameters of test "fv3_missing"`)
			},
		},
		{
			name: "missing build table",
			cfg:  Config{TestName: "fv3"},
			modify: func(t *testing.T, w *testutil.Workspace) {
				require.NoError(t, os.Remove(w.BuildTable))
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "utest.bld")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, w, fake, _ := setupApp(t, tc.cfg)
			if tc.modify != nil {
				tc.modify(t, w)
			}

			err := a.Run(context.Background())

			require.Error(t, err)
			tc.check(t, err)
			assert.Empty(t, fake.Cases())
			assert.Nil(t, a.Report())
		})
	}
}
