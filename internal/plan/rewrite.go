package plan

import (
	"github.com/ruoyangqiu/5300-Giraffe/internal/btree"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// IndexCandidate describes one index available on the relation a TableScan
// reads, for Rewrite to consider substituting in.
type IndexCandidate struct {
	Index      *btree.Index
	KeyColumns []string
}

// Rewrite walks n and, for every Select(where, TableScan(R)) it finds,
// checks every candidate in indices: if a candidate's key columns are a
// prefix of where (every key column present in where), it replaces the
// node with Select(residual, IndexLookup(index, key)) — or with the bare
// IndexLookup if the residual predicate is empty. Per spec.md §4.6, this
// is the only rewrite Rewrite performs; every other node shape is walked
// unchanged except for recursing into children.
func Rewrite(n Node, indices []IndexCandidate) Node {
	switch t := n.(type) {
	case *Select:
		if scan, ok := t.Child.(*TableScan); ok {
			if cand, key, residual, ok := matchIndex(t.Where, indices); ok {
				lookup := &IndexLookup{Index: cand.Index, Key: key, Relation: scan.Relation}
				if len(residual) == 0 {
					return lookup
				}
				return &Select{Where: residual, Child: lookup}
			}
		}
		return &Select{Where: t.Where, Child: Rewrite(t.Child, indices)}
	case *Project:
		return &Project{Columns: t.Columns, Child: Rewrite(t.Child, indices)}
	default:
		return n
	}
}

// matchIndex returns the first candidate whose key columns are all present
// in where, the key extracted from where in key-column order, and the
// residual predicate (where entries not covered by the index).
func matchIndex(where Where, indices []IndexCandidate) (IndexCandidate, value.KeyValue, Where, bool) {
	for _, cand := range indices {
		covered := true
		for _, col := range cand.KeyColumns {
			if _, ok := where[col]; !ok {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		key := make(value.KeyValue, len(cand.KeyColumns))
		isKeyCol := make(map[string]bool, len(cand.KeyColumns))
		for i, col := range cand.KeyColumns {
			key[i] = where[col]
			isKeyCol[col] = true
		}
		residual := make(Where)
		for col, v := range where {
			if !isKeyCol[col] {
				residual[col] = v
			}
		}
		return cand, key, residual, true
	}
	return IndexCandidate{}, nil, nil, false
}
