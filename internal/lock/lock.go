// Package lock implements the single-instance execution lock of a harness
// working tree. The lock is a file created with exclusive-create semantics;
// a second invocation fails immediately instead of waiting.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrHeld is returned by Acquire when another invocation owns the lock.
var ErrHeld = errors.New("execution lock is held by another invocation")

// ErrCorrupt is returned by ReadOwner when the lock file names no owner.
var ErrCorrupt = errors.New("lock file is unreadable")

// Owner is written into the lock file to identify the holder.
type Owner struct {
	Token   string    `yaml:"token"`
	PID     int       `yaml:"pid"`
	Test    string    `yaml:"test"`
	Started time.Time `yaml:"started"`
}

// Lock is a held execution lock.
type Lock struct {
	path  string
	owner Owner
}

// Acquire creates the lock file at path. It never retries.
func Acquire(path, test string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			if holder, rerr := ReadOwner(path); rerr == nil {
				return nil, fmt.Errorf("%w: %s (test %s, pid %d, since %s)", ErrHeld, path, holder.Test, holder.PID, holder.Started.Format(time.RFC3339))
			}
			return nil, fmt.Errorf("%w: %s", ErrHeld, path)
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	defer f.Close()

	l := &Lock{
		path: path,
		owner: Owner{
			Token:   uuid.NewString(),
			PID:     os.Getpid(),
			Test:    test,
			Started: time.Now().UTC().Truncate(time.Second),
		},
	}
	if err := yaml.NewEncoder(f).Encode(l.owner); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing lock file: %w", err)
	}
	return l, nil
}

// Owner returns the identity recorded in the lock file.
func (l *Lock) Owner() Owner {
	return l.owner
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file if it still belongs to this holder. A lock
// file whose body cannot be decoded is removed too: it was created by this
// holder and names nobody else. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	current, err := ReadOwner(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case errors.Is(err, ErrCorrupt):
	case err != nil:
		return fmt.Errorf("reading lock file %s: %w", l.path, err)
	case current.Token != l.owner.Token:
		return fmt.Errorf("lock file %s was taken over by token %s", l.path, current.Token)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock file %s: %w", l.path, err)
	}
	return nil
}

// ReadOwner decodes the lock file at path. A body that does not decode or
// carries no token yields ErrCorrupt.
func ReadOwner(path string) (Owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, err
	}
	var o Owner
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Owner{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if o.Token == "" {
		return Owner{}, fmt.Errorf("%w: %s: no owner token", ErrCorrupt, path)
	}
	return o, nil
}
