// Package cli defines the Cobra command tree for zipwarden. Running the
// binary without a subcommand runs the full pipeline; the other commands
// expose its parts (check, rotate) and inspection helpers (doctor, config,
// version). Commands only handle flags and output and delegate the work to
// the internal packages.
package cli
