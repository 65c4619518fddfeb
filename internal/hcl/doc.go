// Package hcl provides the concrete HCL implementation of config.Loader.
// It parses the harness file and the per-test parameter files, decodes them
// into HCL-tagged schema structs, and translates those into the
// format-agnostic config and params types.
package hcl
