//go:build !unix

package block

import "os"

// flockExclusive is a no-op on platforms without an advisory flock
// primitive wired up here; the single-process cooperative model (spec.md
// §5) still relies on the caller to serialize access.
func flockExclusive(f *os.File) error { return nil }

func flockUnlock(f *os.File) error { return nil }
