package page

import (
	"bytes"
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

func TestAddGetRoundTrip(t *testing.T) {
	p := New()

	id1, err := p.Add([]byte("hello"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	id2, err := p.Add([]byte("world!!"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got1, ok := p.Get(id1)
	if !ok || !bytes.Equal(got1, []byte("hello")) {
		t.Fatalf("Get(id1) = %q, %v", got1, ok)
	}
	got2, ok := p.Get(id2)
	if !ok || !bytes.Equal(got2, []byte("world!!")) {
		t.Fatalf("Get(id2) = %q, %v", got2, ok)
	}
}

func TestDelTombstonesAndNeverReuses(t *testing.T) {
	p := New()
	id1, _ := p.Add([]byte("a"))
	id2, _ := p.Add([]byte("bb"))
	id3, _ := p.Add([]byte("ccc"))

	p.Del(id2)

	if _, ok := p.Get(id2); ok {
		t.Fatal("deleted record should not be retrievable")
	}
	if _, ok := p.Get(id1); !ok {
		t.Fatal("id1 should survive deletion of id2")
	}
	if _, ok := p.Get(id3); !ok {
		t.Fatal("id3 should survive deletion of id2")
	}

	id4, err := p.Add([]byte("d"))
	if err != nil {
		t.Fatalf("Add after del: %v", err)
	}
	if id4 == id2 {
		t.Fatal("new id must not reuse a tombstoned id")
	}

	ids := p.IDs()
	want := map[value.RecordID]bool{id1: true, id3: true, id4: true}
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want keys of %v", ids, want)
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected id %d in IDs()", id)
		}
	}
}

func TestPutGrowAndShrink(t *testing.T) {
	p := New()
	id1, _ := p.Add([]byte("first"))
	id2, _ := p.Add([]byte("second"))

	if err := p.Put(id1, []byte("much bigger payload than before")); err != nil {
		t.Fatalf("grow Put: %v", err)
	}
	got, ok := p.Get(id1)
	if !ok || string(got) != "much bigger payload than before" {
		t.Fatalf("Get(id1) after grow = %q, %v", got, ok)
	}
	got2, ok := p.Get(id2)
	if !ok || string(got2) != "second" {
		t.Fatalf("neighboring record corrupted by grow: %q, %v", got2, ok)
	}

	if err := p.Put(id1, []byte("small")); err != nil {
		t.Fatalf("shrink Put: %v", err)
	}
	got, ok = p.Get(id1)
	if !ok || string(got) != "small" {
		t.Fatalf("Get(id1) after shrink = %q, %v", got, ok)
	}
	got2, ok = p.Get(id2)
	if !ok || string(got2) != "second" {
		t.Fatalf("neighboring record corrupted by shrink: %q, %v", got2, ok)
	}
}

func TestAddExactCapacityBoundary(t *testing.T) {
	p := New()
	available := int(p.endFree) - 4*(int(p.numRecords)+2)

	if _, err := p.Add(make([]byte, available)); err != nil {
		t.Fatalf("Add at exact capacity should succeed: %v", err)
	}

	q := New()
	if _, err := q.Add(make([]byte, available+1)); !dberrors.IsNoRoom(err) {
		t.Fatalf("Add one byte over capacity should fail with ErrNoRoom, got %v", err)
	}
}

func TestPutGrowExactCapacityBoundary(t *testing.T) {
	p := New()
	id, _ := p.Add([]byte("x"))
	available := int(p.endFree) - 4*(int(p.numRecords)+2)

	if err := p.Put(id, make([]byte, 1+available)); err != nil {
		t.Fatalf("Put expanding by exactly the free space should succeed: %v", err)
	}

	q := New()
	qid, _ := q.Add([]byte("x"))
	qAvailable := int(q.endFree) - 4*(int(q.numRecords)+2)
	if err := q.Put(qid, make([]byte, 2+qAvailable)); !dberrors.IsNoRoom(err) {
		t.Fatalf("Put expanding one byte beyond free space should fail, got %v", err)
	}
}

func TestBytesRoundTripsThroughOpen(t *testing.T) {
	p := New()
	id, _ := p.Add([]byte("round trip me"))
	p2, err := Open(p.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok := p2.Get(id)
	if !ok || string(got) != "round trip me" {
		t.Fatalf("Get after Open = %q, %v", got, ok)
	}
}

func TestOpenRejectsWrongSize(t *testing.T) {
	if _, err := Open(make([]byte, BlockSize-1)); err == nil {
		t.Fatal("Open should reject a buffer that is not exactly BlockSize")
	}
}
