package selftest

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunAllPasses(t *testing.T) {
	var buf bytes.Buffer
	if ok := RunAll(&buf, t.TempDir()); !ok {
		t.Fatalf("RunAll reported failure, output:\n%s", buf.String())
	}
	out := buf.String()
	for _, name := range []string{"slotted_page", "heap_storage", "btree"} {
		if !strings.Contains(out, name+" ok") {
			t.Fatalf("output missing %q ok line:\n%s", name, out)
		}
	}
}

func TestChecksRunInIsolatedDirs(t *testing.T) {
	checks := Checks()
	if len(checks) != 3 {
		t.Fatalf("got %d checks, want 3", len(checks))
	}
	seen := make(map[string]bool, len(checks))
	for _, c := range checks {
		if seen[c.Name] {
			t.Fatalf("check name %q is used twice, so two checks would share a directory", c.Name)
		}
		seen[c.Name] = true
	}
}
