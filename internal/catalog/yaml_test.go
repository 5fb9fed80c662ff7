package catalog

import (
	"strings"
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

func TestFormatResultYAMLRoundTripsScalars(t *testing.T) {
	columns := []string{"id", "name", "active"}
	rows := []value.Row{
		{"id": value.NewInt(1), "name": value.NewText("alice"), "active": value.NewBool(true)},
		{"id": value.NewInt(2), "name": value.NewText("bob"), "active": value.NewBool(false)},
	}

	out, err := FormatResultYAML(columns, rows)
	if err != nil {
		t.Fatalf("FormatResultYAML: %v", err)
	}
	for _, want := range []string{"columns:", "- id", "- name", "- active", "name: alice", "active: true", "active: false"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatResultYAMLEmptyRows(t *testing.T) {
	out, err := FormatResultYAML([]string{"table_name"}, nil)
	if err != nil {
		t.Fatalf("FormatResultYAML: %v", err)
	}
	if !strings.Contains(out, "columns:") {
		t.Errorf("expected columns key in output, got:\n%s", out)
	}
}
