package lockfile

import (
	"os"
	"path/filepath"
)

// lockFileName is the sentinel file flocked inside a data directory.
const lockFileName = ".giraffesql.lock"

// Handle is a held data-directory lock. Release it with Release.
type Handle struct {
	f *os.File
}

// AcquireDataDir takes an exclusive, non-blocking lock on dir, creating
// dir's lock sentinel file if needed. It returns ErrLocked if another
// process already holds the lock.
func AcquireDataDir(dir string) (*Handle, error) {
	f, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := FlockExclusiveNonBlocking(f); err != nil {
		f.Close()
		if IsLocked(err) {
			return nil, ErrLocked
		}
		return nil, err
	}
	return &Handle{f: f}, nil
}

// Release unlocks and closes the lock file. The sentinel file itself is
// left in place; only the advisory lock is released.
func (h *Handle) Release() error {
	if err := FlockUnlock(h.f); err != nil {
		h.f.Close()
		return err
	}
	return h.f.Close()
}
