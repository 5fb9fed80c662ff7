package heap

import (
	"fmt"

	"github.com/ruoyangqiu/5300-Giraffe/internal/block"
	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// Relation is the row-level API over a heap File: marshal/unmarshal typed
// rows and insert/select/project/delete/update them.
type Relation struct {
	name   string
	schema value.Schema
	path   string
	file   *File
}

// New constructs (but does not open or create) a Relation bound to a
// heap file named "<path>" with the given schema.
func New(path, name string, schema value.Schema) *Relation {
	return &Relation{name: name, schema: schema, path: path}
}

// Name returns the relation's table name.
func (r *Relation) Name() string { return r.name }

// Schema returns the relation's column list.
func (r *Relation) Schema() value.Schema { return r.schema }

// Create allocates the relation's backing file, failing if it already
// exists.
func (r *Relation) Create() error {
	f, err := Create(r.path, block.CreateExclusive)
	if err != nil {
		return err
	}
	r.file = f
	return nil
}

// CreateIfNotExists opens the relation's file if present, or creates it.
func (r *Relation) CreateIfNotExists() error {
	f, err := Create(r.path, block.CreateOrOpen)
	if err != nil {
		return err
	}
	r.file = f
	return nil
}

// Open opens a previously created relation.
func (r *Relation) Open() error {
	f, err := Open(r.path)
	if err != nil {
		return err
	}
	r.file = f
	return nil
}

// Close releases the relation's file handle.
func (r *Relation) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Drop deletes the relation's backing file.
func (r *Relation) Drop() error {
	if r.file == nil {
		if err := r.Open(); err != nil {
			return err
		}
	}
	err := r.file.Drop()
	r.file = nil
	return err
}

// Validate checks that row carries every schema column (extra keys are
// ignored) and returns the complete row restricted to schema columns.
func (r *Relation) Validate(row value.Row) (value.Row, error) {
	out := make(value.Row, len(r.schema))
	for _, col := range r.schema {
		v, ok := row[col.Name]
		if !ok {
			return nil, dberrors.New(fmt.Sprintf("relation %s: missing column %q", r.name, col.Name), dberrors.ErrSchema)
		}
		out[col.Name] = v
	}
	return out, nil
}

// Insert validates, marshals, and appends row to the last block, falling
// back to a freshly allocated block on dberrors.ErrNoRoom.
func (r *Relation) Insert(row value.Row) (value.Handle, error) {
	complete, err := r.Validate(row)
	if err != nil {
		return value.Handle{}, err
	}
	buf, err := marshal(r.schema, complete)
	if err != nil {
		return value.Handle{}, err
	}
	if len(buf)+4 > page.BlockSize {
		return value.Handle{}, dberrors.New(fmt.Sprintf("relation %s: row too large for one block", r.name), dberrors.ErrIO)
	}

	ids := r.file.BlockIDs()
	if len(ids) > 0 {
		lastID := ids[len(ids)-1]
		blockID, p, err := r.file.Get(lastID)
		if err != nil {
			return value.Handle{}, err
		}
		recID, err := p.Add(buf)
		if err == nil {
			if err := r.file.Put(blockID, p); err != nil {
				return value.Handle{}, err
			}
			return value.Handle{Block: blockID, Record: recID}, nil
		}
		if !dberrors.IsNoRoom(err) {
			return value.Handle{}, err
		}
	}

	blockID, p, err := r.file.GetNew()
	if err != nil {
		return value.Handle{}, err
	}
	recID, err := p.Add(buf)
	if err != nil {
		return value.Handle{}, err
	}
	if err := r.file.Put(blockID, p); err != nil {
		return value.Handle{}, err
	}
	return value.Handle{Block: blockID, Record: recID}, nil
}

// Select enumerates a Handle for every live record in the relation. Per
// spec.md §4.3, the relation itself never filters — predicate evaluation
// is the job of the plan's Select node.
func (r *Relation) Select() ([]value.Handle, error) {
	var handles []value.Handle
	for _, blockID := range r.file.BlockIDs() {
		_, p, err := r.file.Get(blockID)
		if err != nil {
			return nil, err
		}
		for _, recID := range p.IDs() {
			handles = append(handles, value.Handle{Block: blockID, Record: recID})
		}
	}
	return handles, nil
}

// Project fetches and unmarshals the row at handle, restricting to cols if
// given (nil means every schema column).
func (r *Relation) Project(handle value.Handle, cols []string) (value.Row, error) {
	_, p, err := r.file.Get(handle.Block)
	if err != nil {
		return nil, err
	}
	buf, ok := p.Get(handle.Record)
	if !ok {
		return nil, dberrors.New(fmt.Sprintf("relation %s: handle %s not found", r.name, handle), dberrors.ErrIO)
	}
	row, err := unmarshal(r.schema, buf)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		return row, nil
	}
	out := make(value.Row, len(cols))
	for _, c := range cols {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out, nil
}

// Del removes the record at handle, leaving its id a permanent tombstone.
func (r *Relation) Del(handle value.Handle) error {
	blockID, p, err := r.file.Get(handle.Block)
	if err != nil {
		return err
	}
	p.Del(handle.Record)
	return r.file.Put(blockID, p)
}

// Update replaces the row at handle with values (merged over the existing
// row's schema columns) and rewrites it in place, possibly sliding other
// records in the same block.
func (r *Relation) Update(handle value.Handle, values value.Row) error {
	existing, err := r.Project(handle, nil)
	if err != nil {
		return err
	}
	for k, v := range values {
		if r.schema.Has(k) {
			existing[k] = v
		}
	}
	buf, err := marshal(r.schema, existing)
	if err != nil {
		return err
	}
	blockID, p, err := r.file.Get(handle.Block)
	if err != nil {
		return err
	}
	if err := p.Put(handle.Record, buf); err != nil {
		return err
	}
	return r.file.Put(blockID, p)
}
