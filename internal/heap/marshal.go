package heap

import (
	"encoding/binary"
	"fmt"

	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// marshal encodes row in schema column order: INT as a little-endian 4-byte
// int32, TEXT as a u16 length prefix followed by its UTF-8 bytes. row must
// already be validated (every schema column present).
func marshal(schema value.Schema, row value.Row) ([]byte, error) {
	buf := make([]byte, 0, 64)
	for _, col := range schema {
		v, ok := row[col.Name]
		if !ok {
			return nil, dberrors.New(fmt.Sprintf("marshal: missing column %q", col.Name), dberrors.ErrSchema)
		}
		switch col.Type {
		case value.TypeInt:
			if v.Kind() != value.KindInt {
				return nil, dberrors.New(fmt.Sprintf("marshal: column %q is not INT", col.Name), dberrors.ErrSchema)
			}
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(v.Int()))
			buf = append(buf, tmp[:]...)
		case value.TypeText:
			if v.Kind() != value.KindText {
				return nil, dberrors.New(fmt.Sprintf("marshal: column %q is not TEXT", col.Name), dberrors.ErrSchema)
			}
			s := v.Text()
			if len(s) > 0xFFFF {
				return nil, dberrors.New(fmt.Sprintf("marshal: column %q text too long", col.Name), dberrors.ErrSchema)
			}
			var lenBuf [2]byte
			binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
			buf = append(buf, lenBuf[:]...)
			buf = append(buf, s...)
		case value.TypeBool:
			if v.Kind() != value.KindBool {
				return nil, dberrors.New(fmt.Sprintf("marshal: column %q is not BOOL", col.Name), dberrors.ErrSchema)
			}
			if v.Bool() {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		default:
			return nil, dberrors.New(fmt.Sprintf("marshal: unsupported type for column %q", col.Name), dberrors.ErrSchema)
		}
	}
	return buf, nil
}

// unmarshal decodes bytes written by marshal back into a Row, in schema
// column order.
func unmarshal(schema value.Schema, buf []byte) (value.Row, error) {
	row := make(value.Row, len(schema))
	off := 0
	for _, col := range schema {
		switch col.Type {
		case value.TypeInt:
			if off+4 > len(buf) {
				return nil, dberrors.New("unmarshal: truncated INT column", dberrors.ErrIO)
			}
			row[col.Name] = value.NewInt(int32(binary.LittleEndian.Uint32(buf[off : off+4])))
			off += 4
		case value.TypeText:
			if off+2 > len(buf) {
				return nil, dberrors.New("unmarshal: truncated TEXT length prefix", dberrors.ErrIO)
			}
			n := int(binary.LittleEndian.Uint16(buf[off : off+2]))
			off += 2
			if off+n > len(buf) {
				return nil, dberrors.New("unmarshal: truncated TEXT payload", dberrors.ErrIO)
			}
			row[col.Name] = value.NewText(string(buf[off : off+n]))
			off += n
		case value.TypeBool:
			if off+1 > len(buf) {
				return nil, dberrors.New("unmarshal: truncated BOOL column", dberrors.ErrIO)
			}
			row[col.Name] = value.NewBool(buf[off] != 0)
			off++
		default:
			return nil, dberrors.New(fmt.Sprintf("unmarshal: unsupported type for column %q", col.Name), dberrors.ErrSchema)
		}
	}
	return row, nil
}
