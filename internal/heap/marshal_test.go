package heap

import (
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	schema := value.Schema{
		{Name: "id", Type: value.TypeInt},
		{Name: "name", Type: value.TypeText},
	}
	row := value.Row{
		"id":   value.NewInt(42),
		"name": value.NewText("hello, world"),
	}

	buf, err := marshal(schema, row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := unmarshal(schema, buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got["id"].Equal(row["id"]) || !got["name"].Equal(row["name"]) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, row)
	}
}

func TestMarshalEmptyText(t *testing.T) {
	schema := value.Schema{{Name: "s", Type: value.TypeText}}
	row := value.Row{"s": value.NewText("")}

	buf, err := marshal(schema, row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := unmarshal(schema, buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["s"].Text() != "" {
		t.Fatalf("got %q, want empty string", got["s"].Text())
	}
}

func TestMarshalBoolRoundTrip(t *testing.T) {
	schema := value.Schema{
		{Name: "flag", Type: value.TypeBool},
		{Name: "name", Type: value.TypeText},
	}
	row := value.Row{"flag": value.NewBool(true), "name": value.NewText("x")}

	buf, err := marshal(schema, row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := unmarshal(schema, buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["flag"].Bool() != true {
		t.Fatalf("got %v, want true", got["flag"].Bool())
	}
	if got["name"].Text() != "x" {
		t.Fatalf("got %q, want %q", got["name"].Text(), "x")
	}
}

func TestMarshalMissingColumnFails(t *testing.T) {
	schema := value.Schema{{Name: "id", Type: value.TypeInt}}
	if _, err := marshal(schema, value.Row{}); err == nil {
		t.Fatal("marshal should fail when a schema column is missing")
	}
}
