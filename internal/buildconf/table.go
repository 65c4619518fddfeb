// Package buildconf reads the build configuration table: one entry per line,
// fields separated by '|', either `model | options` or
// `model | compile-case | options`.
package buildconf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/utestgrid/internal/variant"
)

// ErrNoEntry is returned when no line of the table matches a lookup.
var ErrNoEntry = errors.New("no build configuration entry")

// caseOptions are appended to pair entries so a shared line can build the
// variants that change the executable.
var caseOptions = map[variant.Variant]string{
	variant.Bit32: "32BIT=Y",
	variant.Debug: "DEBUG=Y",
}

// Entry is one line of the table. Case is empty for pair entries.
type Entry struct {
	Model   string
	Case    string
	Options string
	Line    int
}

// Table is the parsed build configuration in file order.
type Table struct {
	Entries []Entry
}

// Load reads the table at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening build configuration: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a table from r. Blank lines and lines starting with '#' are
// skipped; whitespace around fields is insignificant.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		var e Entry
		switch len(fields) {
		case 2:
			e = Entry{Model: fields[0], Options: fields[1], Line: lineNo}
		case 3:
			e = Entry{Model: fields[0], Case: fields[1], Options: fields[2], Line: lineNo}
		default:
			return nil, fmt.Errorf("line %d: expected 2 or 3 '|'-separated fields, got %d", lineNo, len(fields))
		}
		if e.Model == "" {
			return nil, fmt.Errorf("line %d: empty model name", lineNo)
		}
		t.Entries = append(t.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the build options of model for a compile-case. The first
// matching line wins. A triple entry matches only its own case and is used
// verbatim; a pair entry matches every case and gets the case's build
// switches appended.
func (t *Table) Lookup(model string, compileCase variant.Variant) (string, error) {
	for _, e := range t.Entries {
		if e.Model != model {
			continue
		}
		if e.Case != "" {
			if e.Case == compileCase.String() {
				return e.Options, nil
			}
			continue
		}
		if extra, ok := caseOptions[compileCase]; ok {
			return strings.TrimSpace(e.Options + " " + extra), nil
		}
		return e.Options, nil
	}
	return "", fmt.Errorf("%w for test %q, case %s", ErrNoEntry, model, compileCase)
}
