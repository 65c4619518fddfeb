package report

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
)

// FailureRecord is the append-only list of failed cases. Every entry is
// mirrored to the failure list file, whose mere existence signals that at
// least one case failed.
type FailureRecord struct {
	path  string
	cases []string
}

// NewFailureRecord returns an empty record backed by the file at path.
func NewFailureRecord(path string) *FailureRecord {
	return &FailureRecord{path: path}
}

// Reset removes a failure list left over from an earlier invocation.
func (r *FailureRecord) Reset() error {
	r.cases = nil
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale failure list: %w", err)
	}
	return nil
}

// Add appends a failed case.
func (r *FailureRecord) Add(name string) error {
	r.cases = append(r.cases, name)
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening failure list: %w", err)
	}
	if _, err := fmt.Fprintln(f, name); err != nil {
		f.Close()
		return fmt.Errorf("writing failure list: %w", err)
	}
	return f.Close()
}

// Cases returns the failed cases in the order they were recorded.
func (r *FailureRecord) Cases() []string {
	return slices.Clone(r.cases)
}

// Empty reports whether no failure has been recorded.
func (r *FailureRecord) Empty() bool {
	return len(r.cases) == 0
}

// Path returns the failure list location.
func (r *FailureRecord) Path() string {
	return r.path
}

// ReadFailures reads a failure list file. found is false when the file does
// not exist, which means every case passed.
func ReadFailures(path string) (cases []string, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			cases = append(cases, line)
		}
	}
	return cases, true, scanner.Err()
}
