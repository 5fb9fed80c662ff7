package block

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	bf, err := Create(path, CreateExclusive)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = bf.Close() })
	return bf
}

func TestAllocateNewAndGet(t *testing.T) {
	bf := newTestFile(t)

	id, err := bf.AllocateNew()
	if err != nil {
		t.Fatalf("AllocateNew: %v", err)
	}
	if id != 1 {
		t.Fatalf("first allocated id = %d, want 1", id)
	}
	if bf.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", bf.Count())
	}

	payload := make([]byte, page.BlockSize)
	copy(payload, []byte("hello block"))
	if err := bf.Put(id, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := bf.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("round-tripped block bytes do not match")
	}
}

func TestBlockIDsDense(t *testing.T) {
	bf := newTestFile(t)
	for i := 0; i < 3; i++ {
		if _, err := bf.AllocateNew(); err != nil {
			t.Fatalf("AllocateNew: %v", err)
		}
	}
	ids := bf.BlockIDs()
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("BlockIDs() = %v, want [1 2 3]", ids)
	}
}

func TestOperationsOnClosedFileFail(t *testing.T) {
	bf := newTestFile(t)
	id, _ := bf.AllocateNew()
	if err := bf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := bf.Get(id); err == nil {
		t.Fatal("Get on closed file should fail")
	}
}

func TestReopenPersistsBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	bf, err := Create(path, CreateExclusive)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id, _ := bf.AllocateNew()
	payload := make([]byte, page.BlockSize)
	copy(payload, []byte("persisted"))
	if err := bf.Put(id, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := bf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if reopened.Count() != 1 {
		t.Fatalf("Count() after reopen = %d, want 1", reopened.Count())
	}
	got, err := reopened.Get(id)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("block contents did not survive reopen")
	}
}

func TestDropRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropme.db")
	bf, err := Create(path, CreateExclusive)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := bf.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Open should fail after Drop")
	}
}
