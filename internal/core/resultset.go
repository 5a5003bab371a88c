package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Table is one result set: ordered column names and rows of driver values.
// Numeric values are expected as int64, float64 or decimal.Decimal; data
// sources convert driver-specific numeric types before returning.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows. A nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) Record {
	row := t.Rows[i]
	r := make(Record, len(t.Columns))
	for j, c := range t.Columns {
		if j < len(row) {
			r[c] = row[j]
		}
	}
	return r
}

// First returns the first row, if any.
func (t *Table) First() (Record, bool) {
	if t.Len() == 0 {
		return nil, false
	}
	return t.Record(0), true
}

// Records returns every row keyed by column name.
func (t *Table) Records() []Record {
	out := make([]Record, t.Len())
	for i := range out {
		out[i] = t.Record(i)
	}
	return out
}

// Without returns a copy of the table without the named columns. Unknown
// names are ignored.
func (t *Table) Without(columns ...string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	var keep []int
	out := &Table{Name: t.Name}
	for i, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}
	out.Rows = make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]any, len(keep))
		for j, i := range keep {
			if i < len(row) {
				nr[j] = row[i]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// Record is a single row keyed by column name. Accessors return zero
// values for absent or null columns.
type Record map[string]any

// String returns the column as text.
func (r Record) String(col string) string {
	return toText(r[col])
}

// Int returns the column as an integer.
func (r Record) Int(col string) int64 {
	n, _ := toInt(r[col])
	return n
}

// NullInt returns the column as an integer and whether it was set.
func (r Record) NullInt(col string) (int64, bool) {
	return toInt(r[col])
}

// Decimal returns the column as a decimal.
func (r Record) Decimal(col string) decimal.Decimal {
	d, _ := toDecimal(r[col])
	return d
}

// Float returns the column as a float64.
func (r Record) Float(col string) float64 {
	d, _ := toDecimal(r[col])
	return d.InexactFloat64()
}

// Time returns the column as a time, nil when null or unparseable.
func (r Record) Time(col string) *time.Time {
	t, ok := toTime(r[col])
	if !ok {
		return nil
	}
	return &t
}

// Bool returns the column as a boolean.
func (r Record) Bool(col string) bool {
	b, _ := toBool(r[col])
	return b
}

// ResultSets holds the named result sets of one fetch.
type ResultSets map[string]*Table

// Table returns the named set, nil when absent.
func (rs ResultSets) Table(name string) *Table {
	return rs[name]
}

// Lookup returns the first row of the named set.
func (rs ResultSets) Lookup(name string) (Record, bool) {
	return rs[name].First()
}

// LookupSource resolves lookup rows for filter descriptions.
type LookupSource interface {
	Lookup(name string) (Record, bool)
}

// ResultSetSpec declares one expected result set of a fetch.
type ResultSetSpec struct {
	Name     string
	Single   bool // at most one row is meaningful
	Optional bool // the procedure may omit the set
}

// Schema declares how a report fetches its data. The first set is always
// the master.
type Schema struct {
	Procedure string
	Sets      []ResultSetSpec

	// Remove lists caller bookkeeping keys that must not reach the procedure.
	Remove []string

	// InjectManifest echoes the request manifest id as the ManifestID
	// parameter.
	InjectManifest bool
}

// Master returns the name of the master result set.
func (s Schema) Master() string {
	if len(s.Sets) == 0 {
		return ""
	}
	return s.Sets[0].Name
}

// FetchSpec is one call to a data source.
type FetchSpec struct {
	Procedure string
	Params    Params
	Sets      []ResultSetSpec
}

// DataSource executes fetches against one store.
type DataSource interface {
	Fetch(ctx context.Context, spec FetchSpec) (ResultSets, error)
	Close() error
}

// Connector opens a data source for a locator.
type Connector interface {
	Connect(ctx context.Context, locator string) (DataSource, error)
}

// AssignSets names positional result sets after the declared specs. A
// table whose Name already matches a declared set keeps it; the others
// take the remaining names in declaration order. Extra tables are
// dropped and missing trailing sets stay absent.
func AssignSets(specs []ResultSetSpec, tables []*Table) ResultSets {
	out := make(ResultSets, len(specs))
	declared := make(map[string]bool, len(specs))
	for _, s := range specs {
		declared[s.Name] = true
	}

	var positional []*Table
	for _, t := range tables {
		if t != nil && declared[t.Name] && out[t.Name] == nil {
			out[t.Name] = t
			continue
		}
		positional = append(positional, t)
	}

	i := 0
	for _, s := range specs {
		if out[s.Name] != nil {
			continue
		}
		if i >= len(positional) {
			break
		}
		t := positional[i]
		i++
		if t == nil {
			continue
		}
		t.Name = s.Name
		out[s.Name] = t
	}
	return out
}
