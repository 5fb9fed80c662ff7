package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

func TestRunREPLCreateInsertSelectQuit(t *testing.T) {
	configPath = ""
	dir := t.TempDir()
	t.Setenv("GIRAFFESQL_DATA_DIR", dir)

	script := strings.Join([]string{
		`CREATE TABLE foo (id INT, name TEXT)`,
		`INSERT INTO foo (id, name) VALUES (1, 'alice')`,
		`SELECT * FROM foo`,
		`quit`,
	}, "\n")

	var out bytes.Buffer
	if err := runREPL(strings.NewReader(script), &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"CREATE TABLE foo (id INT, name TEXT)",
		"INSERT INTO foo (id, name) VALUES (1, 'alice')",
		"SELECT * FROM foo",
		"id name ",
		"+----------+----------+",
		`1 "alice" `,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q; full output:\n%s", want, got)
		}
	}
}

func TestRunREPLYAMLFormat(t *testing.T) {
	configPath = ""
	outputFormat = "yaml"
	defer func() { outputFormat = "text" }()
	dir := t.TempDir()
	t.Setenv("GIRAFFESQL_DATA_DIR", dir)

	script := strings.Join([]string{
		`CREATE TABLE foo (id INT, name TEXT)`,
		`INSERT INTO foo (id, name) VALUES (1, 'alice')`,
		`SELECT * FROM foo`,
		`quit`,
	}, "\n")

	var out bytes.Buffer
	if err := runREPL(strings.NewReader(script), &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	got := out.String()
	for _, want := range []string{"columns:", "- id", "- name", "name: alice"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q; full output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "+----------+") {
		t.Fatalf("expected no text-table separator in yaml format output, got:\n%s", got)
	}
}

func TestRunREPLInvalidSQLContinues(t *testing.T) {
	configPath = ""
	dir := t.TempDir()
	t.Setenv("GIRAFFESQL_DATA_DIR", dir)

	script := strings.Join([]string{
		`this is not sql`,
		`SHOW TABLES`,
		`quit`,
	}, "\n")

	var out bytes.Buffer
	if err := runREPL(strings.NewReader(script), &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}
	if !strings.Contains(out.String(), "Invalid SQL:") {
		t.Fatalf("expected an Invalid SQL line, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "SHOW TABLES") {
		t.Fatalf("expected the loop to continue past the bad line, got:\n%s", out.String())
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		v    value.Value
		want string
	}{
		{value.NewInt(42), "42"},
		{value.NewInt(-7), "-7"},
		{value.NewText("hi"), `"hi"`},
		{value.NewBool(true), "true"},
		{value.NewBool(false), "false"},
	}
	for _, c := range cases {
		if got := formatValue(c.v); got != c.want {
			t.Errorf("formatValue(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}
