// Package main hosts the veil CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, resolves template
// arguments, runs preflight checks and drives a redaction run through the
// pipeline package. Run history, template inspection and configuration
// scaffolding are exposed as their own subcommands.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through flags and tables.
package main
