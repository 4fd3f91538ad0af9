// Package logging constructs slog loggers for Garland commands.
//
// Two formats are supported: a console handler for interactive use (colored
// when stdout is a terminal) and a JSON handler for scheduled runs. Output
// fans out to stdout and garland.log under the configured log directory.
package logging
