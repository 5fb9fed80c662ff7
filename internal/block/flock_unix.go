//go:build unix

package block

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive acquires an advisory exclusive non-blocking lock on f.
// While it is held, locking the same file through another open handle, in
// this process or another, fails immediately instead of waiting.
func flockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func flockUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
