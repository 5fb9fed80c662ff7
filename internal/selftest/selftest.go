// Package selftest ports original_source/heap_storage.cpp's
// test_heap_storage/test_slotted_page smoke checks (and adds one covering
// internal/btree) to Go, run by the CLI's literal "test" token per
// spec.md §6. Each check is independent — its own temp directory, its own
// relation/page/index — so RunAll fans them out concurrently with
// golang.org/x/sync/errgroup rather than running them one at a time; results
// are still printed in declaration order for a deterministic transcript.
package selftest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ruoyangqiu/5300-Giraffe/internal/catalog"
	"github.com/ruoyangqiu/5300-Giraffe/internal/heap"
	"github.com/ruoyangqiu/5300-Giraffe/internal/page"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// Check is one named smoke test.
type Check struct {
	Name string
	Run  func(dir string) error
}

// Checks returns every registered check, in the order RunAll reports them.
func Checks() []Check {
	return []Check{
		{Name: "slotted_page", Run: checkSlottedPage},
		{Name: "heap_storage", Run: checkHeapStorage},
		{Name: "btree", Run: checkBTree},
	}
}

// RunAll runs every Check (each under its own subdirectory of baseDir,
// concurrently), printing one "<name> ok" or "FAILED TEST <name>: <err>"
// line per check to out in declaration order, and reports whether every
// check passed.
func RunAll(out io.Writer, baseDir string) bool {
	checks := Checks()
	results := make([]error, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			dir := filepath.Join(baseDir, c.Name)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				results[i] = err
				return nil
			}
			results[i] = c.Run(dir)
			return nil
		})
	}
	_ = g.Wait() // each Run stores its own error; Wait itself never fails

	ok := true
	for i, c := range checks {
		if err := results[i]; err != nil {
			fmt.Fprintf(out, "FAILED TEST %s: %v\n", c.Name, err)
			ok = false
		} else {
			fmt.Fprintf(out, "%s ok\n", c.Name)
		}
	}
	return ok
}

// checkSlottedPage mirrors original_source/heap_storage.cpp's
// test_slotted_page(): add, get, expanding put, contracting put, del, and
// the too-big-to-add failure mode.
func checkSlottedPage(string) error {
	p := page.New()

	id1, err := p.Add([]byte("hello"))
	if err != nil {
		return fmt.Errorf("add id 1: %w", err)
	}
	got, ok := p.Get(id1)
	if !ok || string(got) != "hello" {
		return fmt.Errorf("get 1 back: got %q", got)
	}

	id2, err := p.Add([]byte("there!"))
	if err != nil {
		return fmt.Errorf("add id 2: %w", err)
	}
	got, ok = p.Get(id2)
	if !ok || string(got) != "there!" {
		return fmt.Errorf("get 2 back: got %q", got)
	}

	if err := p.Put(id1, []byte("hello, world!")); err != nil {
		return fmt.Errorf("expanding put of 1: %w", err)
	}
	got, ok = p.Get(id2)
	if !ok || string(got) != "there!" {
		return fmt.Errorf("get 2 back after expanding put of 1: got %q", got)
	}
	got, ok = p.Get(id1)
	if !ok || string(got) != "hello, world!" {
		return fmt.Errorf("get 1 back after expanding put of 1: got %q", got)
	}

	if err := p.Put(id1, []byte("hi!")); err != nil {
		return fmt.Errorf("contracting put of 1: %w", err)
	}
	got, ok = p.Get(id2)
	if !ok || string(got) != "there!" {
		return fmt.Errorf("get 2 back after contracting put of 1: got %q", got)
	}
	got, ok = p.Get(id1)
	if !ok || string(got) != "hi!" {
		return fmt.Errorf("get 1 back after contracting put of 1: got %q", got)
	}

	if ids := p.IDs(); len(ids) != 2 {
		return fmt.Errorf("ids() with 2 records: got %v", ids)
	}
	p.Del(id1)
	if ids := p.IDs(); len(ids) != 1 {
		return fmt.Errorf("ids() with 1 record remaining: got %v", ids)
	}
	if _, ok := p.Get(id1); ok {
		return fmt.Errorf("get of deleted record was not empty")
	}

	if _, err := p.Add(make([]byte, page.BlockSize)); err == nil {
		return fmt.Errorf("expected failure when add too big")
	}
	return nil
}

// checkHeapStorage mirrors test_heap_storage(): create/drop, create, insert,
// select, project.
func checkHeapStorage(dir string) error {
	schema := value.Schema{
		{Name: "a", Type: value.TypeInt},
		{Name: "b", Type: value.TypeText},
	}

	dropMe := heap.New(filepath.Join(dir, "_test_create_drop.db"), "_test_create_drop", schema)
	if err := dropMe.Create(); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := dropMe.Drop(); err != nil {
		return fmt.Errorf("drop: %w", err)
	}

	table := heap.New(filepath.Join(dir, "_test_data.db"), "_test_data", schema)
	if err := table.CreateIfNotExists(); err != nil {
		return fmt.Errorf("create_if_not_exists: %w", err)
	}
	defer table.Close()

	handle, err := table.Insert(value.Row{"a": value.NewInt(12), "b": value.NewText("Hello!")})
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	handles, err := table.Select()
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if len(handles) != 1 || handles[0] != handle {
		return fmt.Errorf("select: got %v, want [%v]", handles, handle)
	}
	row, err := table.Project(handle, nil)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	if row["a"].Int() != 12 {
		return fmt.Errorf("project a: got %d, want 12", row["a"].Int())
	}
	if row["b"].Text() != "Hello!" {
		return fmt.Errorf("project b: got %q, want \"Hello!\"", row["b"].Text())
	}
	return nil
}

// checkBTree exercises a catalog-backed index end to end: create a table,
// insert rows, build a BTREE index, and confirm lookup finds every key.
func checkBTree(dir string) error {
	cat, err := catalog.Open(dir)
	if err != nil {
		return fmt.Errorf("catalog.Open: %w", err)
	}
	defer cat.Close()

	schema := value.Schema{
		{Name: "id", Type: value.TypeInt},
		{Name: "name", Type: value.TypeText},
	}
	if err := cat.CreateTable("_test_btree", schema); err != nil {
		return fmt.Errorf("CreateTable: %w", err)
	}
	rel, err := cat.GetTable("_test_btree")
	if err != nil {
		return fmt.Errorf("GetTable: %w", err)
	}
	for i := int32(0); i < 200; i++ {
		if _, err := rel.Insert(value.Row{"id": value.NewInt(i), "name": value.NewText(fmt.Sprintf("row%d", i))}); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := cat.CreateIndex("_test_btree", "ix_id", []string{"id"}, "BTREE"); err != nil {
		return fmt.Errorf("CreateIndex: %w", err)
	}
	idx, err := cat.GetIndex("_test_btree", "ix_id")
	if err != nil {
		return fmt.Errorf("GetIndex: %w", err)
	}
	for i := int32(0); i < 200; i++ {
		handles, err := idx.Lookup(value.KeyValue{value.NewInt(i)})
		if err != nil {
			return fmt.Errorf("lookup %d: %w", i, err)
		}
		if len(handles) != 1 {
			return fmt.Errorf("lookup %d: got %d handles, want 1", i, len(handles))
		}
		row, err := rel.Project(handles[0], nil)
		if err != nil {
			return fmt.Errorf("project handle for key %d: %w", i, err)
		}
		if row["id"].Int() != i {
			return fmt.Errorf("lookup %d: got row id %d", i, row["id"].Int())
		}
	}
	return nil
}
