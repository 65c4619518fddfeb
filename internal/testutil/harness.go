package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Workspace is a temporary harness tree with a machine definition, a build
// table and one test parameter file.
type Workspace struct {
	Root       string
	Harness    string
	BuildTable string
	TestsDir   string
	Baselines  string
	RunRoot    string
	LogDir     string
}

// DefaultBuildTable maps the "fv3" model to a single option string.
const DefaultBuildTable = `# model | options
fv3 | CCPP=Y SUITES=FV3_GFS_v16
`

// NewWorkspace writes a harness for machine "test.gnu" into a temp dir. The
// parameter file tests/<test>.hcl receives params verbatim.
func NewWorkspace(t *testing.T, test, params string) *Workspace {
	t.Helper()

	root := t.TempDir()
	w := &Workspace{
		Root:       root,
		Harness:    filepath.Join(root, "utest.hcl"),
		BuildTable: filepath.Join(root, "utest.bld"),
		TestsDir:   filepath.Join(root, "tests"),
		Baselines:  filepath.Join(root, "baselines"),
		RunRoot:    filepath.Join(root, "stmp"),
		LogDir:     filepath.Join(root, "log_ut_test.gnu"),
	}

	harness := fmt.Sprintf(`
machine "test.gnu" {
  scheduler      = "none"
  account        = "acct"
  queue          = "debug"
  tasks_per_node = 40
}

paths {
  source    = "src"
  baselines = %q
  run_root  = %q
}
`, w.Baselines, w.RunRoot)

	require.NoError(t, os.WriteFile(w.Harness, []byte(harness), 0644), "failed to write harness")
	require.NoError(t, os.WriteFile(w.BuildTable, []byte(DefaultBuildTable), 0644), "failed to write build table")
	require.NoError(t, os.MkdirAll(w.TestsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(w.TestsDir, test+".hcl"), []byte(params), 0644), "failed to write test parameters")
	return w
}
