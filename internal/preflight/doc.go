// Package preflight verifies the recording environment before a session.
//
// It backs the --check flag: catalog present and non-empty, output
// directories writable, and enough disk for a recording session. Checks
// return human-readable results; only the catalog check decides the exit
// code.
package preflight
