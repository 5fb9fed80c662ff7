// Package btree implements a typed, height-indexed B+tree secondary index
// over an independent block file, per spec.md §4.5: leaf chaining, interior
// fence keys, node splitting with root promotion, point lookup, and full
// rebuild from a base relation.
package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/ruoyangqiu/5300-Giraffe/internal/block"
	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/heap"
	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// statBlockID is the reserved block holding (root_id, height, key_profile).
// It is the first block allocated when an index file is created, matching
// original_source/btree.cpp's "STAT, canonically the first reserved block".
const statBlockID value.BlockID = 1

// Index is a typed B+tree secondary index bound to its own block file,
// named "<table>-<index>" by the catalog. The zero value is not usable;
// construct with New.
type Index struct {
	path      string
	keyCols   []string
	keySchema value.Schema
	unique    bool

	bf     *block.File
	rootID value.BlockID
	height uint32

	// closed mirrors original_source/btree.cpp's BTreeIndex.closed field.
	// The original has a bug where open() leaves closed set to true after
	// succeeding, disabling every subsequent operation; this corrected
	// implementation sets closed=false once open() has finished, per
	// spec.md's Open Questions.
	closed bool
}

// New constructs (but does not open or create) an Index over path, keyed by
// keyCols (resolved to keySchema by the caller from the base relation's
// schema). unique must be true — this index only supports unique
// construction per spec.md §4.5, mirroring the original's
// "BTree index must have unique key" check.
func New(path string, keyCols []string, keySchema value.Schema, unique bool) *Index {
	return &Index{path: path, keyCols: keyCols, keySchema: keySchema, unique: unique, closed: true}
}

// KeyColumns returns the index's key column names in order.
func (idx *Index) KeyColumns() []string { return idx.keyCols }

// key extracts a KeyValue from row in key-column order.
func (idx *Index) key(row value.Row) value.KeyValue {
	key := make(value.KeyValue, len(idx.keyCols))
	for i, col := range idx.keyCols {
		key[i] = row[col]
	}
	return key
}

// Create allocates the index's block file, writes its stats with height=1
// and an empty root leaf, then bulk-inserts every row currently in rel.
func (idx *Index) Create(rel *heap.Relation) error {
	if !idx.unique {
		return dberrors.New("btree: index must be unique", dberrors.ErrSchema)
	}
	bf, err := block.Create(idx.path, block.CreateExclusive)
	if err != nil {
		return err
	}
	idx.bf = bf

	stat, err := idx.bf.AllocateNew()
	if err != nil {
		return err
	}
	if stat != statBlockID {
		return dberrors.New("btree: unexpected stat block id", dberrors.ErrIO)
	}
	rootID, err := idx.bf.AllocateNew()
	if err != nil {
		return err
	}
	if err := writeLeaf(idx.bf, rootID, idx.keySchema, &leafNode{}); err != nil {
		return err
	}
	idx.rootID = rootID
	idx.height = 1
	if err := idx.writeStat(); err != nil {
		return err
	}
	idx.closed = false

	handles, err := rel.Select()
	if err != nil {
		return err
	}
	for _, h := range handles {
		row, err := rel.Project(h, nil)
		if err != nil {
			return err
		}
		if err := idx.Insert(idx.key(row), h); err != nil {
			return err
		}
	}
	return nil
}

// Drop removes the index's backing block file.
func (idx *Index) Drop() error {
	if idx.bf == nil {
		if err := idx.Open(); err != nil {
			return err
		}
	}
	err := idx.bf.Drop()
	idx.bf = nil
	idx.closed = true
	return err
}

// Open opens a previously created index, enabling lookup/insert.
func (idx *Index) Open() error {
	if !idx.closed {
		return nil
	}
	bf, err := block.Open(idx.path)
	if err != nil {
		return err
	}
	idx.bf = bf
	if err := idx.readStat(); err != nil {
		return err
	}
	idx.closed = false
	return nil
}

// Close releases the index's file handle, disabling lookup/insert.
func (idx *Index) Close() error {
	if idx.closed {
		return nil
	}
	err := idx.bf.Close()
	idx.bf = nil
	idx.closed = true
	return err
}

func (idx *Index) writeStat() error {
	buf := make([]byte, 0, 8+2+len(idx.keySchema))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(idx.rootID))
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], idx.height)
	buf = append(buf, tmp[:]...)
	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], uint16(len(idx.keySchema)))
	buf = append(buf, tmp2[:]...)
	for _, col := range idx.keySchema {
		buf = append(buf, byte(col.Type))
	}
	p := page.New()
	if _, err := p.Add(buf); err != nil {
		return err
	}
	return idx.bf.Put(statBlockID, p.Bytes())
}

func (idx *Index) readStat() error {
	raw, err := idx.bf.Get(statBlockID)
	if err != nil {
		return err
	}
	p, err := page.Open(raw)
	if err != nil {
		return err
	}
	buf, ok := p.Get(1)
	if !ok || len(buf) < 10 {
		return dberrors.New("btree: corrupt stat block", dberrors.ErrIO)
	}
	idx.rootID = value.BlockID(binary.LittleEndian.Uint32(buf[0:4]))
	idx.height = binary.LittleEndian.Uint32(buf[4:8])
	n := int(binary.LittleEndian.Uint16(buf[8:10]))
	if n != len(idx.keySchema) {
		return dberrors.New(fmt.Sprintf("btree: stat key profile has %d columns, index was constructed with %d", n, len(idx.keySchema)), dberrors.ErrSchema)
	}
	return nil
}

// Lookup returns zero or one Handle for the row whose key-column values
// equal key, per spec.md §4.5's descent: at height 1 the leaf reports at
// most one exact match.
func (idx *Index) Lookup(key value.KeyValue) ([]value.Handle, error) {
	h, found, err := idx.lookup(idx.rootID, idx.height, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return []value.Handle{h}, nil
}

func (idx *Index) lookup(blockID value.BlockID, height uint32, key value.KeyValue) (value.Handle, bool, error) {
	if height == 1 {
		leaf, err := readLeaf(idx.bf, blockID, idx.keySchema)
		if err != nil {
			return value.Handle{}, false, err
		}
		for _, e := range leaf.entries {
			if e.key.Equal(key) {
				return e.handle, true, nil
			}
		}
		return value.Handle{}, false, nil
	}
	interior, err := readInterior(idx.bf, blockID, idx.keySchema)
	if err != nil {
		return value.Handle{}, false, err
	}
	child := interior.findChild(key)
	return idx.lookup(child, height-1, key)
}

// Range is declared unsupported per spec.md §4.5.
func (idx *Index) Range(lo, hi value.KeyValue) ([]value.Handle, error) {
	return nil, dberrors.New("btree: range query not supported", dberrors.ErrNotSupported)
}

// Del is declared unsupported per spec.md §4.5.
func (idx *Index) Del(handle value.Handle) error {
	return dberrors.New("btree: delete not supported", dberrors.ErrNotSupported)
}

// promotion is returned up the recursive insert when a child node split and
// a new (boundary key, sibling block) pair must be absorbed by the parent.
type promotion struct {
	key      value.KeyValue
	newBlock value.BlockID
}

// Insert adds (key, handle) to the tree, splitting nodes and promoting a
// new root as needed.
func (idx *Index) Insert(key value.KeyValue, handle value.Handle) error {
	promo, err := idx.insert(idx.rootID, idx.height, key, handle)
	if err != nil {
		return err
	}
	if promo == nil {
		return nil
	}
	newRootID, err := idx.bf.AllocateNew()
	if err != nil {
		return err
	}
	newRoot := &interiorNode{firstChild: idx.rootID, entries: []interiorEntry{{boundary: promo.key, child: promo.newBlock}}}
	if err := writeInterior(idx.bf, newRootID, idx.keySchema, newRoot); err != nil {
		return err
	}
	idx.rootID = newRootID
	idx.height++
	return idx.writeStat()
}

func (idx *Index) insert(blockID value.BlockID, height uint32, key value.KeyValue, handle value.Handle) (*promotion, error) {
	if height == 1 {
		return idx.insertLeaf(blockID, key, handle)
	}
	interior, err := readInterior(idx.bf, blockID, idx.keySchema)
	if err != nil {
		return nil, err
	}
	childIdx, child := interior.findChildIndex(key)
	promo, err := idx.insert(child, height-1, key, handle)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, nil
	}
	entries := make([]interiorEntry, len(interior.entries)+1)
	copy(entries, interior.entries[:childIdx])
	entries[childIdx] = interiorEntry{boundary: promo.key, child: promo.newBlock}
	copy(entries[childIdx+1:], interior.entries[childIdx:])
	merged := &interiorNode{firstChild: interior.firstChild, entries: entries}

	if fits, err := interiorFits(idx.keySchema, merged); err != nil {
		return nil, err
	} else if fits {
		if err := writeInterior(idx.bf, blockID, idx.keySchema, merged); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return idx.splitInterior(blockID, merged)
}

func (idx *Index) insertLeaf(blockID value.BlockID, key value.KeyValue, handle value.Handle) (*promotion, error) {
	leaf, err := readLeaf(idx.bf, blockID, idx.keySchema)
	if err != nil {
		return nil, err
	}
	pos := 0
	for pos < len(leaf.entries) && leaf.entries[pos].key.Less(key) {
		pos++
	}
	entries := make([]leafEntry, len(leaf.entries)+1)
	copy(entries, leaf.entries[:pos])
	entries[pos] = leafEntry{key: key, handle: handle}
	copy(entries[pos+1:], leaf.entries[pos:])
	merged := &leafNode{next: leaf.next, entries: entries}

	if fits, err := leafFits(idx.keySchema, merged); err != nil {
		return nil, err
	} else if fits {
		if err := writeLeaf(idx.bf, blockID, idx.keySchema, merged); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return idx.splitLeaf(blockID, merged)
}

// splitLeaf writes the largest prefix of merged.entries that fits back to
// blockID, and the remainder to a freshly allocated leaf that inherits the
// old chain pointer, then returns the promotion for the parent.
func (idx *Index) splitLeaf(blockID value.BlockID, merged *leafNode) (*promotion, error) {
	leftN, err := leafPrefixFit(idx.keySchema, merged.entries)
	if err != nil {
		return nil, err
	}
	if leftN == 0 || leftN == len(merged.entries) {
		return nil, dberrors.New("btree: leaf entry too large to split", dberrors.ErrNoRoom)
	}
	newBlockID, err := idx.bf.AllocateNew()
	if err != nil {
		return nil, err
	}
	left := &leafNode{next: newBlockID, entries: merged.entries[:leftN]}
	right := &leafNode{next: merged.next, entries: merged.entries[leftN:]}
	if err := writeLeaf(idx.bf, blockID, idx.keySchema, left); err != nil {
		return nil, err
	}
	if err := writeLeaf(idx.bf, newBlockID, idx.keySchema, right); err != nil {
		return nil, err
	}
	return &promotion{key: right.entries[0].key, newBlock: newBlockID}, nil
}

// splitInterior writes the largest prefix of merged.entries that fits (and
// the unchanged first-child) back to blockID, promotes the key of the entry
// right after that prefix to the parent, and writes the remaining entries
// (rooted at the promoted entry's child) to a freshly allocated interior
// block.
func (idx *Index) splitInterior(blockID value.BlockID, merged *interiorNode) (*promotion, error) {
	mid, err := interiorSplitPoint(idx.keySchema, merged)
	if err != nil {
		return nil, err
	}
	if mid <= 0 || mid >= len(merged.entries) {
		return nil, dberrors.New("btree: interior entry too large to split", dberrors.ErrNoRoom)
	}
	newBlockID, err := idx.bf.AllocateNew()
	if err != nil {
		return nil, err
	}
	left := &interiorNode{firstChild: merged.firstChild, entries: merged.entries[:mid]}
	right := &interiorNode{firstChild: merged.entries[mid].child, entries: merged.entries[mid+1:]}
	if err := writeInterior(idx.bf, blockID, idx.keySchema, left); err != nil {
		return nil, err
	}
	if err := writeInterior(idx.bf, newBlockID, idx.keySchema, right); err != nil {
		return nil, err
	}
	return &promotion{key: merged.entries[mid].boundary, newBlock: newBlockID}, nil
}
