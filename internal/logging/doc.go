// Package logging constructs the slog loggers used across recbooth.
//
// Diagnostics go to stderr so they never interleave with the interactive
// prompts on stdout. The console format is for operators at a terminal; json
// is for captured runs.
package logging
