package plan

import (
	"fmt"

	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/heap"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// pipeline returns the base relation a plan ultimately reads from and the
// concrete set of handles that satisfy every Select filter above the
// TableScan/IndexLookup leaf, per spec.md §4.6. Project nodes do not
// affect which handles are selected; they are applied in evaluate.
func pipeline(n Node) (*heap.Relation, []value.Handle, error) {
	switch t := n.(type) {
	case *TableScan:
		handles, err := t.Relation.Select()
		if err != nil {
			return nil, nil, err
		}
		return t.Relation, handles, nil
	case *IndexLookup:
		handles, err := t.Index.Lookup(t.Key)
		if err != nil {
			return nil, nil, err
		}
		// Index.Del is unsupported, so an index entry can outlive the row it
		// points at; keep only handles still live in the relation.
		live, err := t.Relation.Select()
		if err != nil {
			return nil, nil, err
		}
		isLive := make(map[value.Handle]bool, len(live))
		for _, h := range live {
			isLive[h] = true
		}
		var out []value.Handle
		for _, h := range handles {
			if isLive[h] {
				out = append(out, h)
			}
		}
		return t.Relation, out, nil
	case *Select:
		rel, handles, err := pipeline(t.Child)
		if err != nil {
			return nil, nil, err
		}
		filtered, err := filter(rel, handles, t.Where)
		if err != nil {
			return nil, nil, err
		}
		return rel, filtered, nil
	case *Project:
		return pipeline(t.Child)
	default:
		return nil, nil, dberrors.New(fmt.Sprintf("plan: unknown node type %T", n), dberrors.ErrSchema)
	}
}

// filter keeps only the handles whose projected row satisfies every
// column = value equality in where.
func filter(rel *heap.Relation, handles []value.Handle, where Where) ([]value.Handle, error) {
	if len(where) == 0 {
		return handles, nil
	}
	var out []value.Handle
	for _, h := range handles {
		row, err := rel.Project(h, nil)
		if err != nil {
			return nil, err
		}
		if matches(row, where) {
			out = append(out, h)
		}
	}
	return out, nil
}

func matches(row value.Row, where Where) bool {
	for col, want := range where {
		got, ok := row[col]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// projectColumns finds the Project node (if any) governing n, or nil if
// the plan has no Project — meaning every schema column is returned.
func projectColumns(n Node) ([]string, bool) {
	if p, ok := n.(*Project); ok {
		return p.Columns, true
	}
	return nil, false
}

// Evaluate fully materializes n into rows: it runs pipeline to get the
// base relation and qualifying handles, then projects each one according
// to the outermost Project node (or every column, if there is none).
func Evaluate(n Node) ([]value.Row, error) {
	rel, handles, err := pipeline(n)
	if err != nil {
		return nil, err
	}
	cols, _ := projectColumns(n)
	rows := make([]value.Row, 0, len(handles))
	for _, h := range handles {
		row, err := rel.Project(h, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
