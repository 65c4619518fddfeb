// Package app contains the core application logic. It loads the harness
// configuration, resolves the case matrix for the requested test and hands
// it to the orchestrator, decoupled from the CLI entrypoint.
package app
