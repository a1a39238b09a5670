// Package logging builds the slog loggers used across the daemon and CLI.
// It provides a compact console handler for interactive use, a JSON handler
// for machine consumption, and attribute helpers shared by all components.
package logging
