package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/ruoyangqiu/5300-Giraffe/internal/block"
	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// leafEntry is one (key, handle) pair in a leaf node.
type leafEntry struct {
	key    value.KeyValue
	handle value.Handle
}

// leafNode is an ordered sequence of (key, handle) pairs plus the block id
// of the next leaf in chain order (0 means none).
type leafNode struct {
	next    value.BlockID
	entries []leafEntry
}

// interiorEntry is one (boundary key, child block) pair.
type interiorEntry struct {
	boundary value.KeyValue
	child    value.BlockID
}

// interiorNode is a first-child pointer plus an ordered sequence of
// (boundary key, child) pairs. For entries[i], every key in the subtree
// rooted at entries[i].child is >= entries[i].boundary (and < the next
// boundary, or +infinity for the last entry); keys < entries[0].boundary
// live under firstChild.
type interiorNode struct {
	firstChild value.BlockID
	entries    []interiorEntry
}

// findChild returns the child block id to descend into for key.
func (n *interiorNode) findChild(key value.KeyValue) value.BlockID {
	_, child := n.findChildIndex(key)
	return child
}

// findChildIndex returns both the child block id to descend into for key
// and the index at which a promoted (boundary, child) pair from that
// subtree should be inserted back into entries.
func (n *interiorNode) findChildIndex(key value.KeyValue) (int, value.BlockID) {
	child := n.firstChild
	idx := 0
	for i, e := range n.entries {
		if !key.Less(e.boundary) {
			child = e.child
			idx = i + 1
		} else {
			break
		}
	}
	return idx, child
}

// marshalKey encodes key in schema column order using the same primitive
// encodings as internal/heap's row marshaller (INT: 4-byte LE; TEXT: u16
// length prefix + bytes; BOOL: 1 byte) but over a positional KeyValue
// rather than a named Row, since b-tree keys carry no column names on disk.
func marshalKey(schema value.Schema, key value.KeyValue) ([]byte, error) {
	if len(key) != len(schema) {
		return nil, dberrors.New("btree: key arity does not match key profile", dberrors.ErrSchema)
	}
	buf := make([]byte, 0, 16)
	for i, col := range schema {
		v := key[i]
		switch col.Type {
		case value.TypeInt:
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(v.Int()))
			buf = append(buf, tmp[:]...)
		case value.TypeText:
			s := v.Text()
			if len(s) > 0xFFFF {
				return nil, dberrors.New("btree: key text too long", dberrors.ErrSchema)
			}
			var lenBuf [2]byte
			binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
			buf = append(buf, lenBuf[:]...)
			buf = append(buf, s...)
		case value.TypeBool:
			if v.Bool() {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		default:
			return nil, dberrors.New("btree: unsupported key column type", dberrors.ErrSchema)
		}
	}
	return buf, nil
}

// unmarshalKey decodes a KeyValue from the front of buf and returns the
// number of bytes consumed.
func unmarshalKey(schema value.Schema, buf []byte) (value.KeyValue, int, error) {
	key := make(value.KeyValue, len(schema))
	off := 0
	for i, col := range schema {
		switch col.Type {
		case value.TypeInt:
			if off+4 > len(buf) {
				return nil, 0, dberrors.New("btree: truncated INT key component", dberrors.ErrIO)
			}
			key[i] = value.NewInt(int32(binary.LittleEndian.Uint32(buf[off : off+4])))
			off += 4
		case value.TypeText:
			if off+2 > len(buf) {
				return nil, 0, dberrors.New("btree: truncated TEXT key length", dberrors.ErrIO)
			}
			n := int(binary.LittleEndian.Uint16(buf[off : off+2]))
			off += 2
			if off+n > len(buf) {
				return nil, 0, dberrors.New("btree: truncated TEXT key payload", dberrors.ErrIO)
			}
			key[i] = value.NewText(string(buf[off : off+n]))
			off += n
		case value.TypeBool:
			if off+1 > len(buf) {
				return nil, 0, dberrors.New("btree: truncated BOOL key component", dberrors.ErrIO)
			}
			key[i] = value.NewBool(buf[off] != 0)
			off++
		default:
			return nil, 0, dberrors.New("btree: unsupported key column type", dberrors.ErrSchema)
		}
	}
	return key, off, nil
}

// marshalHandle encodes a Handle as a fixed 6 bytes: 4-byte LE block id,
// 2-byte LE record id.
func marshalHandle(h value.Handle) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Block))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(h.Record))
	return buf
}

func unmarshalHandle(buf []byte) (value.Handle, error) {
	if len(buf) != 6 {
		return value.Handle{}, dberrors.New("btree: malformed handle encoding", dberrors.ErrIO)
	}
	return value.Handle{
		Block:  value.BlockID(binary.LittleEndian.Uint32(buf[0:4])),
		Record: value.RecordID(binary.LittleEndian.Uint16(buf[4:6])),
	}, nil
}

// marshalLeafMeta encodes a leaf's next-chain pointer as the page's first
// record.
func marshalLeafMeta(next value.BlockID) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(next))
	return buf
}

func unmarshalLeafMeta(buf []byte) (value.BlockID, error) {
	if len(buf) != 4 {
		return 0, dberrors.New("btree: malformed leaf meta record", dberrors.ErrIO)
	}
	return value.BlockID(binary.LittleEndian.Uint32(buf)), nil
}

func marshalInteriorMeta(firstChild value.BlockID) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(firstChild))
	return buf
}

func unmarshalInteriorMeta(buf []byte) (value.BlockID, error) {
	if len(buf) != 4 {
		return 0, dberrors.New("btree: malformed interior meta record", dberrors.ErrIO)
	}
	return value.BlockID(binary.LittleEndian.Uint32(buf)), nil
}

// buildLeafPage serializes as many of entries (in order, starting from the
// front) as fit on one page, given next as the chain pointer. It returns
// the page and the number of entries it holds.
func buildLeafPage(schema value.Schema, next value.BlockID, entries []leafEntry) (*page.SlottedPage, int, error) {
	p := page.New()
	if _, err := p.Add(marshalLeafMeta(next)); err != nil {
		return nil, 0, err
	}
	n := 0
	for _, e := range entries {
		keyBytes, err := marshalKey(schema, e.key)
		if err != nil {
			return nil, 0, err
		}
		rec := append(keyBytes, marshalHandle(e.handle)...)
		if _, err := p.Add(rec); err != nil {
			if dberrors.IsNoRoom(err) {
				break
			}
			return nil, 0, err
		}
		n++
	}
	return p, n, nil
}

// leafFits reports whether every entry in n fits on one page together with
// its meta record.
func leafFits(schema value.Schema, n *leafNode) (bool, error) {
	_, count, err := buildLeafPage(schema, n.next, n.entries)
	if err != nil {
		return false, err
	}
	return count == len(n.entries), nil
}

// leafPrefixFit returns the largest prefix of entries that fits on one
// page (the next pointer is irrelevant to capacity, so it is not passed).
func leafPrefixFit(schema value.Schema, entries []leafEntry) (int, error) {
	_, count, err := buildLeafPage(schema, 0, entries)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func writeLeaf(bf *block.File, blockID value.BlockID, schema value.Schema, n *leafNode) error {
	p, count, err := buildLeafPage(schema, n.next, n.entries)
	if err != nil {
		return err
	}
	if count != len(n.entries) {
		return dberrors.New("btree: leaf does not fit on one page", dberrors.ErrNoRoom)
	}
	return bf.Put(blockID, p.Bytes())
}

func readLeaf(bf *block.File, blockID value.BlockID, schema value.Schema) (*leafNode, error) {
	raw, err := bf.Get(blockID)
	if err != nil {
		return nil, err
	}
	p, err := page.Open(raw)
	if err != nil {
		return nil, err
	}
	metaBuf, ok := p.Get(1)
	if !ok {
		return nil, dberrors.New(fmt.Sprintf("btree: leaf block %d missing meta record", blockID), dberrors.ErrIO)
	}
	next, err := unmarshalLeafMeta(metaBuf)
	if err != nil {
		return nil, err
	}
	leaf := &leafNode{next: next}
	for _, id := range p.IDs() {
		if id == 1 {
			continue
		}
		buf, _ := p.Get(id)
		key, consumed, err := unmarshalKey(schema, buf)
		if err != nil {
			return nil, err
		}
		handle, err := unmarshalHandle(buf[consumed:])
		if err != nil {
			return nil, err
		}
		leaf.entries = append(leaf.entries, leafEntry{key: key, handle: handle})
	}
	return leaf, nil
}

func buildInteriorPage(schema value.Schema, firstChild value.BlockID, entries []interiorEntry) (*page.SlottedPage, int, error) {
	p := page.New()
	if _, err := p.Add(marshalInteriorMeta(firstChild)); err != nil {
		return nil, 0, err
	}
	n := 0
	for _, e := range entries {
		keyBytes, err := marshalKey(schema, e.boundary)
		if err != nil {
			return nil, 0, err
		}
		var childBuf [4]byte
		binary.LittleEndian.PutUint32(childBuf[:], uint32(e.child))
		rec := append(keyBytes, childBuf[:]...)
		if _, err := p.Add(rec); err != nil {
			if dberrors.IsNoRoom(err) {
				break
			}
			return nil, 0, err
		}
		n++
	}
	return p, n, nil
}

func interiorFits(schema value.Schema, n *interiorNode) (bool, error) {
	_, count, err := buildInteriorPage(schema, n.firstChild, n.entries)
	if err != nil {
		return false, err
	}
	return count == len(n.entries), nil
}

// interiorSplitPoint returns the index of the entry whose boundary key is
// promoted to the parent when n does not fit on one page: the largest
// prefix (excluding the promoted entry itself) that fits becomes the left
// node, and the promoted entry's child becomes the right node's
// first-child.
func interiorSplitPoint(schema value.Schema, n *interiorNode) (int, error) {
	_, count, err := buildInteriorPage(schema, n.firstChild, n.entries)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func writeInterior(bf *block.File, blockID value.BlockID, schema value.Schema, n *interiorNode) error {
	p, count, err := buildInteriorPage(schema, n.firstChild, n.entries)
	if err != nil {
		return err
	}
	if count != len(n.entries) {
		return dberrors.New("btree: interior does not fit on one page", dberrors.ErrNoRoom)
	}
	return bf.Put(blockID, p.Bytes())
}

func readInterior(bf *block.File, blockID value.BlockID, schema value.Schema) (*interiorNode, error) {
	raw, err := bf.Get(blockID)
	if err != nil {
		return nil, err
	}
	p, err := page.Open(raw)
	if err != nil {
		return nil, err
	}
	metaBuf, ok := p.Get(1)
	if !ok {
		return nil, dberrors.New(fmt.Sprintf("btree: interior block %d missing meta record", blockID), dberrors.ErrIO)
	}
	firstChild, err := unmarshalInteriorMeta(metaBuf)
	if err != nil {
		return nil, err
	}
	node := &interiorNode{firstChild: firstChild}
	for _, id := range p.IDs() {
		if id == 1 {
			continue
		}
		buf, _ := p.Get(id)
		boundary, consumed, err := unmarshalKey(schema, buf)
		if err != nil {
			return nil, err
		}
		if consumed+4 != len(buf) {
			return nil, dberrors.New("btree: malformed interior entry", dberrors.ErrIO)
		}
		child := value.BlockID(binary.LittleEndian.Uint32(buf[consumed:]))
		node.entries = append(node.entries, interiorEntry{boundary: boundary, child: child})
	}
	return node, nil
}
