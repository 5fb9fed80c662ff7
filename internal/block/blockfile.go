// Package block implements the fixed-size, record-number-keyed block
// container that heap files and b-tree indexes are built on top of. Blocks
// are addressed 1..last; block 0 is reserved.
package block

import (
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// CreateFlags selects create() semantics: exclusive (fail if the file
// already exists) or open-or-create.
type CreateFlags int

const (
	// CreateExclusive fails if the underlying file already exists.
	CreateExclusive CreateFlags = iota
	// CreateOrOpen creates the file if absent, or opens it if present.
	CreateOrOpen
)

// flushMaxElapsed bounds how long File.flushRetry will keep retrying a
// write that fails with a timeout-class error before giving up and
// surfacing the error.
const flushMaxElapsed = 2 * time.Second

// File is an ordered sequence of fixed-size blocks backed by a single OS
// file. Block ids are dense, 1..Count(); id 0 is reserved.
type File struct {
	path   string
	f      *os.File
	closed bool
	count  uint32
}

// Create opens or creates the block file named path according to flags.
func Create(path string, flags CreateFlags) (*File, error) {
	osFlags := os.O_RDWR
	switch flags {
	case CreateExclusive:
		osFlags |= os.O_CREATE | os.O_EXCL
	case CreateOrOpen:
		osFlags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, osFlags, 0o644)
	if err != nil {
		return nil, dberrors.Wrap("block.Create", dberrors.ErrIO, err)
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, dberrors.Wrap("block.Create: lock", dberrors.ErrIO, err)
	}
	bf := &File{path: path, f: f}
	if err := bf.readCount(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return bf, nil
}

// Open opens an existing block file. It is an error if the file is absent.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, dberrors.Wrap("block.Open", dberrors.ErrIO, err)
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, dberrors.Wrap("block.Open: lock", dberrors.ErrIO, err)
	}
	bf := &File{path: path, f: f}
	if err := bf.readCount(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return bf, nil
}

func (bf *File) readCount() error {
	info, err := bf.f.Stat()
	if err != nil {
		return dberrors.Wrap("block.readCount: stat", dberrors.ErrIO, err)
	}
	bf.count = uint32(info.Size() / page.BlockSize)
	return nil
}

// Path returns the file's path on disk.
func (bf *File) Path() string { return bf.path }

// Count returns last, the largest allocated block id.
func (bf *File) Count() value.BlockID {
	return value.BlockID(bf.count)
}

// Close releases the underlying OS file handle.
func (bf *File) Close() error {
	if bf.closed {
		return nil
	}
	bf.closed = true
	_ = flockUnlock(bf.f)
	if err := bf.f.Close(); err != nil {
		return dberrors.Wrap("block.Close", dberrors.ErrIO, err)
	}
	return nil
}

// Drop closes and deletes the underlying file.
func (bf *File) Drop() error {
	path := bf.path
	if err := bf.Close(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return dberrors.Wrap("block.Drop", dberrors.ErrIO, err)
	}
	return nil
}

// requireOpen returns a relation-layer error for any operation attempted
// against a closed file, per spec.md §4.2.
func (bf *File) requireOpen() error {
	if bf.closed {
		return dberrors.New("block: operation on closed file", dberrors.ErrIO)
	}
	return nil
}

// Get reads the raw bytes of block id.
func (bf *File) Get(id value.BlockID) ([]byte, error) {
	if err := bf.requireOpen(); err != nil {
		return nil, err
	}
	if id < 1 || uint32(id) > bf.count {
		return nil, dberrors.New("block.Get: block id out of range", dberrors.ErrIO)
	}
	buf := make([]byte, page.BlockSize)
	if _, err := bf.f.ReadAt(buf, int64(id-1)*page.BlockSize); err != nil {
		return nil, dberrors.Wrap("block.Get", dberrors.ErrIO, err)
	}
	return buf, nil
}

// Put writes buf (which must be exactly page.BlockSize bytes) at block id,
// extending the file (and Count()) if id is one past the current last
// block.
func (bf *File) Put(id value.BlockID, buf []byte) error {
	if err := bf.requireOpen(); err != nil {
		return err
	}
	if len(buf) != page.BlockSize {
		return dberrors.New("block.Put: wrong block size", dberrors.ErrIO)
	}
	if err := bf.flushRetry(func() error {
		_, err := bf.f.WriteAt(buf, int64(id-1)*page.BlockSize)
		return err
	}); err != nil {
		return dberrors.Wrap("block.Put", dberrors.ErrIO, err)
	}
	if uint32(id) > bf.count {
		bf.count = uint32(id)
	}
	return nil
}

// AllocateNew appends a fresh, zero-initialized block and returns its id.
func (bf *File) AllocateNew() (value.BlockID, error) {
	id := value.BlockID(bf.count + 1)
	zero := make([]byte, page.BlockSize)
	if err := bf.Put(id, zero); err != nil {
		return 0, err
	}
	return id, nil
}

// BlockIDs returns 1..Count() in ascending order.
func (bf *File) BlockIDs() []value.BlockID {
	ids := make([]value.BlockID, bf.count)
	for i := range ids {
		ids[i] = value.BlockID(i + 1)
	}
	return ids
}

// flushRetry retries a write with exponential backoff while it fails with
// an error for which os.IsTimeout is true (e.g. EAGAIN); any other error,
// including a short write, is returned at once. Grounded on the dolt storage layer's backoff.Retry use for transient
// connection errors — here the only "durability adjacent" retry this
// single-process engine performs.
func (bf *File) flushRetry(write func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = flushMaxElapsed
	return backoff.Retry(func() error {
		err := write()
		if err == nil {
			return nil
		}
		if os.IsTimeout(err) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, bo)
}
