// Package env centralizes the shell's environment-variable configuration
// surface. Adapted from the teacher's internal/env package (there, a static
// client/channel binding index; here, the shell's own config knobs) — same
// role (a single place other packages ask for configuration) under a
// materially different domain.
package env

import "os"

// IntrospectAddr returns the listen address for the read-only introspection
// API, or "" if it should stay disabled (the default).
func IntrospectAddr() string {
	return os.Getenv("GOSH_INTROSPECT_ADDR")
}

// LogMode returns the configured logging mode ("dev", the default, or
// "prod").
func LogMode() string {
	if m := os.Getenv("GOSH_LOG_MODE"); m != "" {
		return m
	}
	return "dev"
}

// Home returns $HOME, the target of the `cd` builtin's no-argument form.
func Home() string {
	return os.Getenv("HOME")
}

// Path returns $PATH, the list the launcher's external-command search walks.
func Path() string {
	return os.Getenv("PATH")
}
