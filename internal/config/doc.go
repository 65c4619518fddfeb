// Package config defines the format-agnostic model of the harness
// configuration (machine profile, directory layout, external scripts) and
// the Loader interface that concrete file formats implement.
//
// The orchestrator only ever sees these types. The HCL implementation lives
// in the hcl package.
package config
