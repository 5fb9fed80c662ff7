// Package catalog implements the engine's self-describing schema: the
// _tables, _columns, and _indices system relations, plus the lazy
// bootstrap, relation/index caching, and compensating-delete DDL logic
// described in spec.md §4.4.
package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ruoyangqiu/5300-Giraffe/internal/btree"
	"github.com/ruoyangqiu/5300-Giraffe/internal/dberrors"
	"github.com/ruoyangqiu/5300-Giraffe/internal/heap"
	"github.com/ruoyangqiu/5300-Giraffe/internal/lockfile"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// TablesName, ColumnsName, and IndicesName are the reserved system-relation
// names. They are excluded from SHOW TABLES and cannot be DROPped.
const (
	TablesName  = "_tables"
	ColumnsName = "_columns"
	IndicesName = "_indices"
)

var tablesSchema = value.Schema{
	{Name: "table_name", Type: value.TypeText},
}

var columnsSchema = value.Schema{
	{Name: "table_name", Type: value.TypeText},
	{Name: "column_name", Type: value.TypeText},
	{Name: "data_type", Type: value.TypeText},
}

var indicesSchema = value.Schema{
	{Name: "table_name", Type: value.TypeText},
	{Name: "index_name", Type: value.TypeText},
	{Name: "column_name", Type: value.TypeText},
	{Name: "seq_in_index", Type: value.TypeInt},
	{Name: "index_type", Type: value.TypeText},
	{Name: "is_unique", Type: value.TypeBool},
}

// isCatalogTable reports whether name is one of the three system relations.
func isCatalogTable(name string) bool {
	return name == TablesName || name == ColumnsName || name == IndicesName
}

// Catalog is process-wide schema state: the three system relations, plus
// caches of the user relations and indices built from their rows. The zero
// value is not usable; construct with Open.
type Catalog struct {
	dir       string
	lock      *lockfile.Handle
	sessionID string
	tables    *heap.Relation
	columns   *heap.Relation
	indices   *heap.Relation

	relCache map[string]*heap.Relation
	idxCache map[string]map[string]*btree.Index
}

// SessionID returns the random id minted for this Open call. It has no
// bearing on any on-disk key or file name; it exists only so logs and
// diagnostics from concurrent short-lived processes pointed at the same
// data directory can be told apart.
func (c *Catalog) SessionID() string {
	return c.sessionID
}

// tablePath returns the on-disk path for a relation named name.
func (c *Catalog) tablePath(name string) string {
	return filepath.Join(c.dir, name+".db")
}

// indexPath returns the on-disk path for an index, per spec.md §7's
// "<table>-<index>" naming.
func (c *Catalog) indexPath(table, index string) string {
	return filepath.Join(c.dir, table+"-"+index)
}

// Open takes an exclusive lock on dir (spec.md's Non-goals rule out
// in-process concurrency control, so cross-process exclusivity is enforced
// here instead) and lazily bootstraps _tables, _columns, and _indices in
// it, creating them on first use and opening them on subsequent calls.
// Open fails with lockfile.ErrLocked if another process already holds dir.
func Open(dir string) (*Catalog, error) {
	lock, err := lockfile.AcquireDataDir(dir)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		dir:       dir,
		lock:      lock,
		sessionID: uuid.NewString(),
		relCache:  make(map[string]*heap.Relation),
		idxCache:  make(map[string]map[string]*btree.Index),
	}

	c.tables, err = openOrBootstrap(c.tablePath(TablesName), TablesName, tablesSchema)
	if err != nil {
		lock.Release()
		return nil, err
	}
	c.columns, err = openOrBootstrap(c.tablePath(ColumnsName), ColumnsName, columnsSchema)
	if err != nil {
		lock.Release()
		return nil, err
	}
	c.indices, err = openOrBootstrap(c.tablePath(IndicesName), IndicesName, indicesSchema)
	if err != nil {
		lock.Release()
		return nil, err
	}

	c.relCache[TablesName] = c.tables
	c.relCache[ColumnsName] = c.columns
	c.relCache[IndicesName] = c.indices
	return c, nil
}

// openOrBootstrap opens path if it already exists as a relation file, or
// creates it fresh. Presence is detected the same way spec.md §4.4
// describes: by attempting to open the underlying file.
func openOrBootstrap(path, name string, schema value.Schema) (*heap.Relation, error) {
	r := heap.New(path, name, schema)
	if err := r.Open(); err != nil {
		if !dberrors.IsIO(err) {
			return nil, err
		}
		if err := r.Create(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Close releases every cached relation and index's file handle, then
// releases dir's lock.
func (c *Catalog) Close() error {
	var first error
	for _, r := range c.relCache {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, byName := range c.idxCache {
		for _, idx := range byName {
			if err := idx.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	c.relCache = make(map[string]*heap.Relation)
	c.idxCache = make(map[string]map[string]*btree.Index)
	if err := c.lock.Release(); err != nil && first == nil {
		first = err
	}
	return first
}

// TableExists reports whether name has a row in _tables.
func (c *Catalog) TableExists(name string) (bool, error) {
	handles, err := c.tables.Select()
	if err != nil {
		return false, err
	}
	for _, h := range handles {
		row, err := c.tables.Project(h, []string{"table_name"})
		if err != nil {
			return false, err
		}
		if row["table_name"].Text() == name {
			return true, nil
		}
	}
	return false, nil
}

// schemaFromColumns rebuilds a Schema by projecting _columns rows for table,
// in insertion order (the order columns were written, which _columns
// preserves because it is never reordered).
func (c *Catalog) schemaFromColumns(table string) (value.Schema, error) {
	handles, err := c.columns.Select()
	if err != nil {
		return nil, err
	}
	var schema value.Schema
	for _, h := range handles {
		row, err := c.columns.Project(h, nil)
		if err != nil {
			return nil, err
		}
		if row["table_name"].Text() != table {
			continue
		}
		dt, ok := value.ParseDataType(row["data_type"].Text())
		if !ok {
			return nil, dberrors.New(fmt.Sprintf("catalog: table %q has unrecognized column type %q", table, row["data_type"].Text()), dberrors.ErrSchema)
		}
		schema = append(schema, value.Column{Name: row["column_name"].Text(), Type: dt})
	}
	if len(schema) == 0 {
		return nil, dberrors.New(fmt.Sprintf("catalog: table %q not found", table), dberrors.ErrSchema)
	}
	return schema, nil
}

// GetTable returns the cached relation for name, opening it from disk (and
// rebuilding its schema from _columns) on first access.
func (c *Catalog) GetTable(name string) (*heap.Relation, error) {
	if r, ok := c.relCache[name]; ok {
		return r, nil
	}
	schema, err := c.schemaFromColumns(name)
	if err != nil {
		return nil, err
	}
	r := heap.New(c.tablePath(name), name, schema)
	if err := r.Open(); err != nil {
		return nil, err
	}
	c.relCache[name] = r
	return r, nil
}

// CreateTable registers name with schema in _tables/_columns and creates its
// backing relation file. On any failure every catalog row already inserted
// is deleted, in reverse order, before the original error is returned —
// spec.md §4.4's reversibility invariant.
func (c *Catalog) CreateTable(name string, schema value.Schema) error {
	if isCatalogTable(name) {
		return dberrors.New(fmt.Sprintf("catalog: %q is a reserved system table", name), dberrors.ErrSchema)
	}
	if exists, err := c.TableExists(name); err != nil {
		return err
	} else if exists {
		return dberrors.New(fmt.Sprintf("catalog: table %q already exists", name), dberrors.ErrSchema)
	}

	tableHandle, err := c.tables.Insert(value.Row{"table_name": value.NewText(name)})
	if err != nil {
		return err
	}

	var colHandles []value.Handle
	rollback := func() {
		for i := len(colHandles) - 1; i >= 0; i-- {
			_ = c.columns.Del(colHandles[i])
		}
		_ = c.tables.Del(tableHandle)
	}

	for _, col := range schema {
		h, err := c.columns.Insert(value.Row{
			"table_name":  value.NewText(name),
			"column_name": value.NewText(col.Name),
			"data_type":   value.NewText(col.Type.String()),
		})
		if err != nil {
			rollback()
			return err
		}
		colHandles = append(colHandles, h)
	}

	r := heap.New(c.tablePath(name), name, schema)
	if err := r.Create(); err != nil {
		rollback()
		return err
	}
	c.relCache[name] = r
	return nil
}

// GetIndexNames returns the distinct index names defined on table.
func (c *Catalog) GetIndexNames(table string) ([]string, error) {
	rows, err := c.ListIndexRows(table)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		n := row["index_name"].Text()
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

// ListIndexRows returns every _indices row for table, in seq_in_index order
// per index (the order they were inserted, which _indices preserves).
func (c *Catalog) ListIndexRows(table string) ([]value.Row, error) {
	handles, err := c.indices.Select()
	if err != nil {
		return nil, err
	}
	var rows []value.Row
	for _, h := range handles {
		row, err := c.indices.Project(h, nil)
		if err != nil {
			return nil, err
		}
		if row["table_name"].Text() == table {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// indexColumns extracts the key column names for table/indexName from
// _indices, in seq_in_index order.
func (c *Catalog) indexColumns(table, indexName string) ([]string, bool, error) {
	rows, err := c.ListIndexRows(table)
	if err != nil {
		return nil, false, err
	}
	type seqCol struct {
		seq int32
		col string
	}
	var pairs []seqCol
	var unique bool
	found := false
	for _, row := range rows {
		if row["index_name"].Text() != indexName {
			continue
		}
		found = true
		pairs = append(pairs, seqCol{seq: row["seq_in_index"].Int(), col: row["column_name"].Text()})
		unique = row["is_unique"].Bool()
	}
	if !found {
		return nil, false, dberrors.New(fmt.Sprintf("catalog: index %q not found on table %q", indexName, table), dberrors.ErrSchema)
	}
	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			if pairs[j].seq < pairs[i].seq {
				pairs[i], pairs[j] = pairs[j], pairs[i]
			}
		}
	}
	cols := make([]string, len(pairs))
	for i, p := range pairs {
		cols[i] = p.col
	}
	return cols, unique, nil
}

// GetIndex returns the cached b-tree index for table/indexName, constructing
// and opening it from disk on first access.
func (c *Catalog) GetIndex(table, indexName string) (*btree.Index, error) {
	if byName, ok := c.idxCache[table]; ok {
		if idx, ok := byName[indexName]; ok {
			return idx, nil
		}
	}
	cols, unique, err := c.indexColumns(table, indexName)
	if err != nil {
		return nil, err
	}
	rel, err := c.GetTable(table)
	if err != nil {
		return nil, err
	}
	keySchema := make(value.Schema, len(cols))
	for i, col := range cols {
		cd, ok := rel.Schema().Column(col)
		if !ok {
			return nil, dberrors.New(fmt.Sprintf("catalog: index column %q not found on table %q", col, table), dberrors.ErrSchema)
		}
		keySchema[i] = cd
	}
	idx := btree.New(c.indexPath(table, indexName), cols, keySchema, unique)
	if err := idx.Open(); err != nil {
		return nil, err
	}
	if c.idxCache[table] == nil {
		c.idxCache[table] = make(map[string]*btree.Index)
	}
	c.idxCache[table][indexName] = idx
	return idx, nil
}

// CreateIndex registers indexName on table's cols (in order) in _indices,
// then creates and bulk-builds the backing b-tree from the table's current
// rows. On failure every _indices row inserted for this index is deleted
// before the error is returned.
func (c *Catalog) CreateIndex(table, indexName string, cols []string, indexType string) error {
	rel, err := c.GetTable(table)
	if err != nil {
		return err
	}
	for _, col := range cols {
		if !rel.Schema().Has(col) {
			return dberrors.New(fmt.Sprintf("catalog: column %q not found in table %q", col, table), dberrors.ErrSchema)
		}
	}

	isUnique := indexType == "BTREE"
	var handles []value.Handle
	rollback := func() {
		for i := len(handles) - 1; i >= 0; i-- {
			_ = c.indices.Del(handles[i])
		}
	}

	for i, col := range cols {
		h, err := c.indices.Insert(value.Row{
			"table_name":   value.NewText(table),
			"index_name":   value.NewText(indexName),
			"column_name":  value.NewText(col),
			"seq_in_index": value.NewInt(int32(i + 1)),
			"index_type":   value.NewText(indexType),
			"is_unique":    value.NewBool(isUnique),
		})
		if err != nil {
			rollback()
			return err
		}
		handles = append(handles, h)
	}

	keySchema := make(value.Schema, len(cols))
	for i, col := range cols {
		keySchema[i], _ = rel.Schema().Column(col)
	}
	idx := btree.New(c.indexPath(table, indexName), cols, keySchema, isUnique)
	if err := idx.Create(rel); err != nil {
		rollback()
		return err
	}
	if c.idxCache[table] == nil {
		c.idxCache[table] = make(map[string]*btree.Index)
	}
	c.idxCache[table][indexName] = idx
	return nil
}

// DropIndex removes indexName from table: drops the backing b-tree file and
// deletes its _indices rows.
func (c *Catalog) DropIndex(table, indexName string) error {
	idx, err := c.GetIndex(table, indexName)
	if err != nil {
		return err
	}
	if err := idx.Drop(); err != nil {
		return err
	}
	if byName, ok := c.idxCache[table]; ok {
		delete(byName, indexName)
	}

	handles, err := c.indices.Select()
	if err != nil {
		return err
	}
	for _, h := range handles {
		row, err := c.indices.Project(h, []string{"table_name", "index_name"})
		if err != nil {
			return err
		}
		if row["table_name"].Text() == table && row["index_name"].Text() == indexName {
			if err := c.indices.Del(h); err != nil {
				return err
			}
		}
	}
	return nil
}

// DropTable drops every index on table, then removes its _indices,
// _columns, and _tables rows and its relation file. Refuses for any system
// relation.
func (c *Catalog) DropTable(name string) error {
	if isCatalogTable(name) {
		return dberrors.New(fmt.Sprintf("catalog: %q is a reserved system table and cannot be dropped", name), dberrors.ErrSchema)
	}

	rel, err := c.GetTable(name)
	if err != nil {
		return err
	}

	names, err := c.GetIndexNames(name)
	if err != nil {
		return err
	}
	for _, idxName := range names {
		if err := c.DropIndex(name, idxName); err != nil {
			return err
		}
	}

	idxHandles, err := c.indices.Select()
	if err != nil {
		return err
	}
	for _, h := range idxHandles {
		row, err := c.indices.Project(h, []string{"table_name"})
		if err != nil {
			return err
		}
		if row["table_name"].Text() == name {
			if err := c.indices.Del(h); err != nil {
				return err
			}
		}
	}

	colHandles, err := c.columns.Select()
	if err != nil {
		return err
	}
	for _, h := range colHandles {
		row, err := c.columns.Project(h, []string{"table_name"})
		if err != nil {
			return err
		}
		if row["table_name"].Text() == name {
			if err := c.columns.Del(h); err != nil {
				return err
			}
		}
	}

	if err := rel.Drop(); err != nil {
		return err
	}
	delete(c.relCache, name)

	tableHandles, err := c.tables.Select()
	if err != nil {
		return err
	}
	for _, h := range tableHandles {
		row, err := c.tables.Project(h, []string{"table_name"})
		if err != nil {
			return err
		}
		if row["table_name"].Text() == name {
			if err := c.tables.Del(h); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListTables returns every user table name in _tables, excluding the three
// system relations.
func (c *Catalog) ListTables() ([]string, error) {
	handles, err := c.tables.Select()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, h := range handles {
		row, err := c.tables.Project(h, []string{"table_name"})
		if err != nil {
			return nil, err
		}
		name := row["table_name"].Text()
		if !isCatalogTable(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// ListColumns returns every _columns row for table, in insertion order.
func (c *Catalog) ListColumns(table string) ([]value.Row, error) {
	handles, err := c.columns.Select()
	if err != nil {
		return nil, err
	}
	var rows []value.Row
	for _, h := range handles {
		row, err := c.columns.Project(h, nil)
		if err != nil {
			return nil, err
		}
		if row["table_name"].Text() == table {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
