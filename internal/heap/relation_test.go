package heap

import (
	"path/filepath"
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

func newTestRelation(t *testing.T) *Relation {
	t.Helper()
	schema := value.Schema{
		{Name: "id", Type: value.TypeInt},
		{Name: "name", Type: value.TypeText},
	}
	r := New(filepath.Join(t.TempDir(), "foo.db"), "foo", schema)
	if err := r.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestInsertSelectProject(t *testing.T) {
	r := newTestRelation(t)

	rows := []value.Row{
		{"id": value.NewInt(1), "name": value.NewText("a")},
		{"id": value.NewInt(2), "name": value.NewText("b")},
		{"id": value.NewInt(3), "name": value.NewText("c")},
	}
	var handles []value.Handle
	for _, row := range rows {
		h, err := r.Insert(row)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		handles = append(handles, h)
	}

	all, err := r.Select()
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Select() returned %d handles, want 3", len(all))
	}

	for i, h := range handles {
		got, err := r.Project(h, nil)
		if err != nil {
			t.Fatalf("Project: %v", err)
		}
		if !got["id"].Equal(rows[i]["id"]) || !got["name"].Equal(rows[i]["name"]) {
			t.Fatalf("Project(%v) = %v, want %v", h, got, rows[i])
		}
	}
}

func TestHandleStabilityAcrossOtherMutations(t *testing.T) {
	r := newTestRelation(t)

	h, err := r.Insert(value.Row{"id": value.NewInt(1), "name": value.NewText("stable")})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	for i := 0; i < 5; i++ {
		other, err := r.Insert(value.Row{"id": value.NewInt(int32(i + 100)), "name": value.NewText("noise")})
		if err != nil {
			t.Fatalf("Insert noise: %v", err)
		}
		if i%2 == 0 {
			if err := r.Del(other); err != nil {
				t.Fatalf("Del noise: %v", err)
			}
		}
	}

	got, err := r.Project(h, nil)
	if err != nil {
		t.Fatalf("Project after noise: %v", err)
	}
	if got["id"].Int() != 1 || got["name"].Text() != "stable" {
		t.Fatalf("handle contents changed: %v", got)
	}
}

func TestDelRemovesFromSelect(t *testing.T) {
	r := newTestRelation(t)

	h1, _ := r.Insert(value.Row{"id": value.NewInt(1), "name": value.NewText("a")})
	h2, _ := r.Insert(value.Row{"id": value.NewInt(2), "name": value.NewText("b")})

	if err := r.Del(h1); err != nil {
		t.Fatalf("Del: %v", err)
	}

	all, err := r.Select()
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(all) != 1 || all[0] != h2 {
		t.Fatalf("Select() after Del = %v, want [%v]", all, h2)
	}
}

func TestUpdateChangesProjectedRow(t *testing.T) {
	r := newTestRelation(t)

	h, _ := r.Insert(value.Row{"id": value.NewInt(1), "name": value.NewText("short")})
	if err := r.Update(h, value.Row{"name": value.NewText("a much longer replacement name")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := r.Project(h, nil)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got["name"].Text() != "a much longer replacement name" {
		t.Fatalf("Update did not take effect: %v", got)
	}
	if got["id"].Int() != 1 {
		t.Fatalf("Update clobbered unrelated column: %v", got)
	}
}

func TestInsertAllocatesNewBlockOnNoRoom(t *testing.T) {
	r := newTestRelation(t)

	longText := make([]byte, 2000)
	for i := range longText {
		longText[i] = 'x'
	}
	var last value.Handle
	for i := 0; i < 5; i++ {
		h, err := r.Insert(value.Row{"id": value.NewInt(int32(i)), "name": value.NewText(string(longText))})
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		last = h
	}
	if last.Block < 2 {
		t.Fatalf("expected insert to spill into a second block, last handle = %v", last)
	}
}

func TestProjectRestrictsColumns(t *testing.T) {
	r := newTestRelation(t)
	h, _ := r.Insert(value.Row{"id": value.NewInt(7), "name": value.NewText("only-name")})

	got, err := r.Project(h, []string{"name"})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if _, ok := got["id"]; ok {
		t.Fatal("Project with explicit column list should not include id")
	}
	if got["name"].Text() != "only-name" {
		t.Fatalf("got %v", got)
	}
}
