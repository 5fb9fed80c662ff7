//go:build js && wasm

package lockfile

import (
	"errors"
	"os"
)

var errLockHeld = errors.New("data directory lock already held by another process")

// FlockExclusiveNonBlocking attempts to acquire an exclusive non-blocking lock.
// In WASM, this is a no-op since we're single-process.
func FlockExclusiveNonBlocking(f *os.File) error {
	return nil
}

// FlockUnlock releases a lock on the file.
// In WASM, this is a no-op.
func FlockUnlock(f *os.File) error {
	return nil
}
