//go:build windows

package changelog

import "os"

// Flock is unavailable on Windows; the in-process mutex provides
// sufficient protection for a single-user tool.
func lockExclusive(_ *os.File) error   { return nil }
func unlockExclusive(_ *os.File) error { return nil }
