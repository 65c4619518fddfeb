package testutil

import "time"

// ExecutionRecord holds what a fake executor saw for a single invocation.
type ExecutionRecord struct {
	Kind  string // "compile" or "run"
	Case  string
	Log   string
	Env   map[string]string
	Start time.Time
	End   time.Time
}
