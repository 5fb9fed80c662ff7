package sqlparse

import (
	"fmt"
	"strings"

	"github.com/ruoyangqiu/5300-Giraffe/internal/ast"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// Stringify renders stmt back to SQL text, the way original_source/sql5300.cpp
// echoes the parsed hsql AST before executing it. The REPL prints this line
// before running a statement.
func Stringify(stmt ast.Stmt) string {
	switch s := stmt.(type) {
	case *ast.CreateTableStmt:
		cols := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			cols[i] = c.Name + " " + c.Type
		}
		ine := ""
		if s.IfNotExists {
			ine = "IF NOT EXISTS "
		}
		return fmt.Sprintf("CREATE TABLE %s%s (%s)", ine, s.Table, strings.Join(cols, ", "))
	case *ast.CreateIndexStmt:
		return fmt.Sprintf("CREATE INDEX %s ON %s (%s) USING %s",
			s.IndexName, s.Table, strings.Join(s.Columns, ", "), s.IndexType)
	case *ast.DropTableStmt:
		return fmt.Sprintf("DROP TABLE %s", s.Table)
	case *ast.DropIndexStmt:
		return fmt.Sprintf("DROP INDEX %s ON %s", s.IndexName, s.Table)
	case *ast.ShowStmt:
		switch s.Kind {
		case ast.ShowTables:
			return "SHOW TABLES"
		case ast.ShowColumns:
			return fmt.Sprintf("SHOW COLUMNS FROM %s", s.Table)
		case ast.ShowIndex:
			return fmt.Sprintf("SHOW INDEX FROM %s", s.Table)
		default:
			return "SHOW ?"
		}
	case *ast.InsertStmt:
		vals := make([]string, len(s.Values))
		for i, v := range s.Values {
			vals[i] = literalString(v)
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			s.Table, strings.Join(s.Columns, ", "), strings.Join(vals, ", "))
	case *ast.DeleteStmt:
		return fmt.Sprintf("DELETE FROM %s%s", s.Table, whereString(s.Where))
	case *ast.SelectStmt:
		cols := "*"
		if s.Columns != nil {
			cols = strings.Join(s.Columns, ", ")
		}
		return fmt.Sprintf("SELECT %s FROM %s%s", cols, s.Table, whereString(s.Where))
	default:
		return fmt.Sprintf("<unknown statement %T>", stmt)
	}
}

func whereString(where map[string]value.Value) string {
	if len(where) == 0 {
		return ""
	}
	var parts []string
	for col, v := range where {
		parts = append(parts, fmt.Sprintf("%s = %s", col, literalString(v)))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func literalString(v value.Value) string {
	switch v.Kind() {
	case value.KindText:
		return "'" + v.Text() + "'"
	case value.KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%d", v.Int())
	}
}
