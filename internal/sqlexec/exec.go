// Package sqlexec dispatches internal/ast statements against a
// internal/catalog.Catalog, building and running internal/plan trees for
// queries. It takes statements as internal/ast values and never imports
// internal/sqlparse, keeping "parse text into a statement" a separate
// concern from "run a statement", per spec.md §1/§9.
package sqlexec

import (
	"fmt"

	"github.com/ruoyangqiu/5300-Giraffe/internal/ast"
	"github.com/ruoyangqiu/5300-Giraffe/internal/btree"
	"github.com/ruoyangqiu/5300-Giraffe/internal/catalog"
	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/heap"
	"github.com/ruoyangqiu/5300-Giraffe/internal/plan"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// Result is what Execute returns for any statement: zero or more rows with
// their column order, plus a trailing human-readable message — the same
// two-part shape original_source/SQLExec.cpp's QueryResult carries.
type Result struct {
	Columns []string
	Rows    []value.Row
	Message string
}

// Engine runs statements against one Catalog.
type Engine struct {
	cat *catalog.Catalog
}

// New wraps cat in an Engine.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Execute dispatches stmt by concrete type and returns its Result.
func (e *Engine) Execute(stmt ast.Stmt) (Result, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStmt:
		return e.execCreateTable(s)
	case *ast.CreateIndexStmt:
		return e.execCreateIndex(s)
	case *ast.DropTableStmt:
		return e.execDropTable(s)
	case *ast.DropIndexStmt:
		return e.execDropIndex(s)
	case *ast.ShowStmt:
		return e.execShow(s)
	case *ast.InsertStmt:
		return e.execInsert(s)
	case *ast.DeleteStmt:
		return e.execDelete(s)
	case *ast.SelectStmt:
		return e.execSelect(s)
	default:
		return Result{}, dberrors.New(fmt.Sprintf("sqlexec: unsupported statement type %T", stmt), dberrors.ErrNotSupported)
	}
}

func (e *Engine) execCreateTable(s *ast.CreateTableStmt) (Result, error) {
	if s.IfNotExists {
		exists, err := e.cat.TableExists(s.Table)
		if err != nil {
			return Result{}, err
		}
		if exists {
			return Result{Message: "Created " + s.Table}, nil
		}
	}
	schema, err := columnsToSchema(s.Columns)
	if err != nil {
		return Result{}, err
	}
	if err := e.cat.CreateTable(s.Table, schema); err != nil {
		return Result{}, err
	}
	return Result{Message: "Created " + s.Table}, nil
}

func columnsToSchema(cols []ast.ColumnDef) (value.Schema, error) {
	schema := make(value.Schema, len(cols))
	for i, c := range cols {
		dt, ok := value.ParseDataType(c.Type)
		if !ok {
			return nil, dberrors.New(fmt.Sprintf("sqlexec: unsupported column type %q for %q", c.Type, c.Name), dberrors.ErrSchema)
		}
		schema[i] = value.Column{Name: c.Name, Type: dt}
	}
	return schema, nil
}

func (e *Engine) execCreateIndex(s *ast.CreateIndexStmt) (Result, error) {
	indexType := s.IndexType
	if indexType == "" {
		indexType = "BTREE"
	}
	if indexType == "HASH" {
		return Result{}, dberrors.New("sqlexec: HASH indexes are not supported", dberrors.ErrNotSupported)
	}
	if err := e.cat.CreateIndex(s.Table, s.IndexName, s.Columns, indexType); err != nil {
		return Result{}, err
	}
	return Result{Message: "Created index " + s.IndexName}, nil
}

func (e *Engine) execDropTable(s *ast.DropTableStmt) (Result, error) {
	if err := e.cat.DropTable(s.Table); err != nil {
		return Result{}, err
	}
	return Result{Message: "Dropped " + s.Table}, nil
}

func (e *Engine) execDropIndex(s *ast.DropIndexStmt) (Result, error) {
	if err := e.cat.DropIndex(s.Table, s.IndexName); err != nil {
		return Result{}, err
	}
	return Result{Message: "Dropped index " + s.IndexName}, nil
}

func (e *Engine) execShow(s *ast.ShowStmt) (Result, error) {
	switch s.Kind {
	case ast.ShowTables:
		names, err := e.cat.ListTables()
		if err != nil {
			return Result{}, err
		}
		rows := make([]value.Row, len(names))
		for i, n := range names {
			rows[i] = value.Row{"table_name": value.NewText(n)}
		}
		return Result{Columns: []string{"table_name"}, Rows: rows, Message: fmt.Sprintf("Returned %d rows", len(rows))}, nil
	case ast.ShowColumns:
		rows, err := e.cat.ListColumns(s.Table)
		if err != nil {
			return Result{}, err
		}
		out := make([]value.Row, len(rows))
		for i, r := range rows {
			out[i] = value.Row{
				"table_name":  r["table_name"],
				"column_name": r["column_name"],
				"data_type":   r["data_type"],
			}
		}
		return Result{Columns: []string{"table_name", "column_name", "data_type"}, Rows: out, Message: fmt.Sprintf("Returned %d rows", len(out))}, nil
	case ast.ShowIndex:
		rows, err := e.cat.ListIndexRows(s.Table)
		if err != nil {
			return Result{}, err
		}
		cols := []string{"table_name", "index_name", "column_name", "seq_in_index", "index_type", "is_unique"}
		return Result{Columns: cols, Rows: rows, Message: fmt.Sprintf("Returned %d rows", len(rows))}, nil
	default:
		return Result{}, dberrors.New("sqlexec: unknown SHOW kind", dberrors.ErrSchema)
	}
}

func (e *Engine) execInsert(s *ast.InsertStmt) (Result, error) {
	rel, err := e.cat.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}
	row := make(value.Row, len(s.Columns))
	for i, col := range s.Columns {
		row[col] = s.Values[i]
	}
	handle, err := rel.Insert(row)
	if err != nil {
		return Result{}, err
	}
	complete, err := rel.Project(handle, nil)
	if err != nil {
		return Result{}, err
	}

	names, err := e.cat.GetIndexNames(s.Table)
	if err != nil {
		return Result{}, err
	}
	for _, name := range names {
		idx, err := e.cat.GetIndex(s.Table, name)
		if err != nil {
			return Result{}, err
		}
		key := indexKey(complete, idx)
		if err := idx.Insert(key, handle); err != nil {
			return Result{}, err
		}
	}
	return Result{Message: "successfully inserted 1 rows into " + s.Table}, nil
}

func indexKey(row value.Row, idx *btree.Index) value.KeyValue {
	cols := idx.KeyColumns()
	key := make(value.KeyValue, len(cols))
	for i, c := range cols {
		key[i] = row[c]
	}
	return key
}

func (e *Engine) execDelete(s *ast.DeleteStmt) (Result, error) {
	rel, err := e.cat.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}
	handles, err := deleteHandles(rel, plan.Where(s.Where))
	if err != nil {
		return Result{}, err
	}

	names, err := e.cat.GetIndexNames(s.Table)
	if err != nil {
		return Result{}, err
	}
	// Per spec.md §4.7/§5: for each handle, every index's Del runs before
	// the relation's Del, and an index.Del failure (ErrNotSupported, since
	// internal/btree never implements it) does not block the relation
	// delete — a documented limitation, not a bug: the index goes stale.
	for _, h := range handles {
		for _, name := range names {
			idx, err := e.cat.GetIndex(s.Table, name)
			if err != nil {
				return Result{}, err
			}
			_ = idx.Del(h)
		}
		if err := rel.Del(h); err != nil {
			return Result{}, err
		}
	}
	return Result{Message: fmt.Sprintf("successfully deleted %d rows from %s", len(handles), s.Table)}, nil
}

// deleteHandles resolves where against rel's live handles, the same
// equality-conjunction filter plan.Evaluate uses — DELETE needs the raw
// handles rather than materialized rows, so it filters directly instead of
// going through plan.Evaluate/Project.
func deleteHandles(rel *heap.Relation, where plan.Where) ([]value.Handle, error) {
	handles, err := rel.Select()
	if err != nil {
		return nil, err
	}
	if len(where) == 0 {
		return handles, nil
	}
	var out []value.Handle
	for _, h := range handles {
		row, err := rel.Project(h, nil)
		if err != nil {
			return nil, err
		}
		if rowMatches(row, where) {
			out = append(out, h)
		}
	}
	return out, nil
}

func rowMatches(row value.Row, where plan.Where) bool {
	for col, want := range where {
		got, ok := row[col]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

func (e *Engine) execSelect(s *ast.SelectStmt) (Result, error) {
	rel, err := e.cat.GetTable(s.Table)
	if err != nil {
		return Result{}, err
	}

	var node plan.Node = &plan.TableScan{Relation: rel}
	if len(s.Where) > 0 {
		node = &plan.Select{Where: plan.Where(s.Where), Child: node}
	}
	if s.Columns != nil {
		node = &plan.Project{Columns: s.Columns, Child: node}
	}

	candidates, err := e.indexCandidates(s.Table)
	if err != nil {
		return Result{}, err
	}
	node = plan.Rewrite(node, candidates)

	rows, err := plan.Evaluate(node)
	if err != nil {
		return Result{}, err
	}
	cols := s.Columns
	if cols == nil {
		cols = columnNames(rel.Schema())
	}
	return Result{Columns: cols, Rows: rows, Message: fmt.Sprintf("successfully returned %d rows", len(rows))}, nil
}

// indexCandidates builds plan.IndexCandidate for every index defined on
// table, for Rewrite to consider.
func (e *Engine) indexCandidates(table string) ([]plan.IndexCandidate, error) {
	names, err := e.cat.GetIndexNames(table)
	if err != nil {
		return nil, err
	}
	candidates := make([]plan.IndexCandidate, 0, len(names))
	for _, name := range names {
		idx, err := e.cat.GetIndex(table, name)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, plan.IndexCandidate{Index: idx, KeyColumns: idx.KeyColumns()})
	}
	return candidates, nil
}

func columnNames(schema value.Schema) []string {
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.Name
	}
	return names
}
