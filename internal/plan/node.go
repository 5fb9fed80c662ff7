// Package plan implements the engine's evaluation-plan tree: TableScan,
// Select, Project, and IndexLookup nodes, a rewriter that substitutes an
// index lookup for a full scan when an equality predicate covers an
// index's key-column prefix, and the pipeline/evaluate walk that turns a
// plan into materialized rows. Grounded on the shape of
// internal/query's Node/Evaluator split (a tagged interface walked by type
// switch, not virtual dispatch through per-node methods).
package plan

import (
	"github.com/ruoyangqiu/5300-Giraffe/internal/btree"
	"github.com/ruoyangqiu/5300-Giraffe/internal/heap"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// Node is the tagged variant of every plan node. node() is an unexported
// marker method, mirroring internal/query's Node interface — callers
// always type-switch rather than invoking per-node behavior methods.
type Node interface {
	node()
}

// Where is an equality-conjunction predicate: column name to the Value it
// must equal. An empty or nil Where matches every row.
type Where map[string]value.Value

// TableScan yields every live handle in Relation, unfiltered.
type TableScan struct {
	Relation *heap.Relation
}

func (*TableScan) node() {}

// Select filters Child's handles by Where, a conjunction of col = value
// equalities.
type Select struct {
	Where Where
	Child Node
}

func (*Select) node() {}

// Project restricts evaluated rows to Columns; a nil Columns means every
// schema column.
type Project struct {
	Columns []string
	Child   Node
}

func (*Project) node() {}

// IndexLookup replaces a Select(Where, TableScan) when Index's key columns
// are a prefix of Where; it is produced only by Rewrite, never written
// directly by a caller building a plan from an AST. Relation is the same
// base relation the replaced TableScan pointed at — an index never owns
// the relation it indexes, it only holds a read reference (spec.md §3).
type IndexLookup struct {
	Index    *btree.Index
	Key      value.KeyValue
	Relation *heap.Relation
}

func (*IndexLookup) node() {}
