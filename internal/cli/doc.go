// Package cli parses the utest command line, validates the case selection
// flags and maps invalid invocations to exit status 1 with usage on stderr.
package cli
