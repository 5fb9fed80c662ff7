// Package heap implements the record-number-keyed heap file (C3) and the
// row-level heap relation built on top of it (C4).
package heap

import (
	"github.com/ruoyangqiu/5300-Giraffe/internal/block"
	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// File stitches a block.File to the slotted-page layout: it allocates new
// pages, fetches existing ones by id, and enumerates block ids.
type File struct {
	bf *block.File
}

// Create creates (or opens, if flags says so) the backing block file.
func Create(path string, flags block.CreateFlags) (*File, error) {
	bf, err := block.Create(path, flags)
	if err != nil {
		return nil, err
	}
	return &File{bf: bf}, nil
}

// Open opens an existing heap file.
func Open(path string) (*File, error) {
	bf, err := block.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{bf: bf}, nil
}

// Close releases the underlying block file.
func (f *File) Close() error { return f.bf.Close() }

// Drop removes the underlying block file.
func (f *File) Drop() error { return f.bf.Drop() }

// GetNew allocates a new zero-initialized block, writes an empty slotted
// page into it, reads it back, and returns the freshly initialized page
// along with its block id.
func (f *File) GetNew() (value.BlockID, *page.SlottedPage, error) {
	id, err := f.bf.AllocateNew()
	if err != nil {
		return 0, nil, err
	}
	p := page.New()
	if err := f.bf.Put(id, p.Bytes()); err != nil {
		return 0, nil, err
	}
	return f.Get(id)
}

// Get reads block id and wraps it as a slotted page.
func (f *File) Get(id value.BlockID) (value.BlockID, *page.SlottedPage, error) {
	buf, err := f.bf.Get(id)
	if err != nil {
		return 0, nil, err
	}
	p, err := page.Open(buf)
	if err != nil {
		return 0, nil, dberrors.Wrap("heap.File.Get", dberrors.ErrIO, err)
	}
	return id, p, nil
}

// Put writes p back to block id.
func (f *File) Put(id value.BlockID, p *page.SlottedPage) error {
	return f.bf.Put(id, p.Bytes())
}

// BlockIDs returns 1..last in ascending order.
func (f *File) BlockIDs() []value.BlockID {
	return f.bf.BlockIDs()
}
