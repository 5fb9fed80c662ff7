package sqlparse

import (
	"testing"

	"github.com/ruoyangqiu/5300-Giraffe/internal/ast"
)

func TestLexerTokenTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
		values   []string
	}{
		{
			name:     "create table",
			input:    "CREATE TABLE foo (id INT)",
			expected: []TokenType{TokenCreate, TokenTable, TokenIdent, TokenLParen, TokenIdent, TokenIdent, TokenRParen, TokenEOF},
			values:   []string{"CREATE", "TABLE", "foo", "(", "id", "INT", ")", ""},
		},
		{
			name:     "quoted string literal",
			input:    "'hello world'",
			expected: []TokenType{TokenString, TokenEOF},
			values:   []string{"hello world", ""},
		},
		{
			name:     "negative number",
			input:    "-42",
			expected: []TokenType{TokenNumber, TokenEOF},
			values:   []string{"-42", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			var types []TokenType
			var values []string
			for {
				tok, err := l.NextToken()
				if err != nil {
					t.Fatalf("NextToken: %v", err)
				}
				types = append(types, tok.Type)
				values = append(values, tok.Value)
				if tok.Type == TokenEOF {
					break
				}
			}
			if len(types) != len(tt.expected) {
				t.Fatalf("got %d tokens, want %d: %v", len(types), len(tt.expected), types)
			}
			for i := range types {
				if types[i] != tt.expected[i] || values[i] != tt.values[i] {
					t.Fatalf("token %d = (%v,%q), want (%v,%q)", i, types[i], values[i], tt.expected[i], tt.values[i])
				}
			}
		})
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE foo (id INT, name TEXT)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ct, ok := stmt.(*ast.CreateTableStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.CreateTableStmt", stmt)
	}
	if ct.Table != "foo" || len(ct.Columns) != 2 {
		t.Fatalf("got %+v", ct)
	}
	if ct.Columns[0].Name != "id" || ct.Columns[0].Type != "INT" {
		t.Fatalf("got column[0] = %+v", ct.Columns[0])
	}
}

func TestParseCreateTableIfNotExists(t *testing.T) {
	stmt, err := Parse("CREATE TABLE IF NOT EXISTS foo (id INT)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ct := stmt.(*ast.CreateTableStmt)
	if !ct.IfNotExists {
		t.Fatal("IfNotExists = false, want true")
	}
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX idx_id ON foo (id) USING BTREE")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ci, ok := stmt.(*ast.CreateIndexStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.CreateIndexStmt", stmt)
	}
	if ci.IndexName != "idx_id" || ci.Table != "foo" || ci.IndexType != "BTREE" || len(ci.Columns) != 1 {
		t.Fatalf("got %+v", ci)
	}
}

func TestParseDropTableAndIndex(t *testing.T) {
	stmt, err := Parse("DROP TABLE foo")
	if err != nil || stmt.(*ast.DropTableStmt).Table != "foo" {
		t.Fatalf("Parse DROP TABLE: %v %+v", err, stmt)
	}
	stmt, err = Parse("DROP INDEX idx_id ON foo")
	if err != nil {
		t.Fatalf("Parse DROP INDEX: %v", err)
	}
	di := stmt.(*ast.DropIndexStmt)
	if di.IndexName != "idx_id" || di.Table != "foo" {
		t.Fatalf("got %+v", di)
	}
}

func TestParseShowVariants(t *testing.T) {
	stmt, err := Parse("SHOW TABLES")
	if err != nil || stmt.(*ast.ShowStmt).Kind != ast.ShowTables {
		t.Fatalf("SHOW TABLES: %v %+v", err, stmt)
	}
	stmt, err = Parse("SHOW COLUMNS FROM foo")
	if err != nil {
		t.Fatalf("SHOW COLUMNS: %v", err)
	}
	if s := stmt.(*ast.ShowStmt); s.Kind != ast.ShowColumns || s.Table != "foo" {
		t.Fatalf("got %+v", s)
	}
	stmt, err = Parse("SHOW INDEX FROM foo")
	if err != nil {
		t.Fatalf("SHOW INDEX: %v", err)
	}
	if s := stmt.(*ast.ShowStmt); s.Kind != ast.ShowIndex || s.Table != "foo" {
		t.Fatalf("got %+v", s)
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("INSERT INTO foo (id, name) VALUES (1, 'bob')")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ins := stmt.(*ast.InsertStmt)
	if ins.Table != "foo" || len(ins.Columns) != 2 || len(ins.Values) != 2 {
		t.Fatalf("got %+v", ins)
	}
	if ins.Values[0].Int() != 1 || ins.Values[1].Text() != "bob" {
		t.Fatalf("got values %+v", ins.Values)
	}
}

func TestParseInsertColumnValueMismatch(t *testing.T) {
	if _, err := Parse("INSERT INTO foo (id, name) VALUES (1)"); err == nil {
		t.Fatal("expected error for mismatched column/value counts")
	}
}

func TestParseDeleteWithWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM foo WHERE id = 1 AND name = 'bob'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	del := stmt.(*ast.DeleteStmt)
	if del.Table != "foo" || len(del.Where) != 2 {
		t.Fatalf("got %+v", del)
	}
	if del.Where["id"].Int() != 1 || del.Where["name"].Text() != "bob" {
		t.Fatalf("got where %+v", del.Where)
	}
}

func TestParseSelectStarNoWhere(t *testing.T) {
	stmt, err := Parse("SELECT * FROM foo")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*ast.SelectStmt)
	if sel.Table != "foo" || sel.Columns != nil || sel.Where != nil {
		t.Fatalf("got %+v", sel)
	}
}

func TestParseSelectColumnsWithWhere(t *testing.T) {
	stmt, err := Parse("SELECT id, name FROM foo WHERE id = 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sel := stmt.(*ast.SelectStmt)
	if len(sel.Columns) != 2 || sel.Columns[0] != "id" || sel.Columns[1] != "name" {
		t.Fatalf("got columns %+v", sel.Columns)
	}
	if len(sel.Where) != 1 || sel.Where["id"].Int() != 2 {
		t.Fatalf("got where %+v", sel.Where)
	}
}

func TestParseTrailingGarbageFails(t *testing.T) {
	if _, err := Parse("SHOW TABLES extra"); err == nil {
		t.Fatal("expected error for trailing tokens")
	}
}

func TestStringifyRoundTrips(t *testing.T) {
	cases := []string{
		"CREATE TABLE foo (id INT, name TEXT)",
		"DROP TABLE foo",
		"SHOW TABLES",
		"SELECT * FROM foo",
	}
	for _, in := range cases {
		stmt, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if out := Stringify(stmt); out != in {
			t.Fatalf("Stringify(Parse(%q)) = %q, want %q", in, out, in)
		}
	}
}
