package dataset

import (
	"strconv"
	"strings"
)

// Table is an ordered sequence of rows sharing one header.
// Every row has exactly len(Columns) cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	// Source holds the 1-based data row of each row in the input file.
	// Nil means rows are still in file order.
	Source []int
}

// NewTable builds a Table, padding short rows with empty cells.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: append([]string(nil), columns...)}
	t.Rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		t.Rows = append(t.Rows, normalizeRow(r, len(columns)))
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// SourceRow returns the 1-based data row in the input file that row i came
// from. The header is not counted.
func (t *Table) SourceRow(i int) int {
	if t.Source != nil {
		return t.Source[i]
	}
	return i + 1
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, &SchemaError{Column: name, Op: "column"}
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Head returns a table with at most n leading rows. Rows are shared.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	h := &Table{Name: t.Name, Columns: t.Columns, Rows: t.Rows[:n]}
	if t.Source != nil {
		h.Source = t.Source[:n]
	}
	return h
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	out.Source = append([]int(nil), t.Source...)
	return out
}

// Deduplicate returns a table without rows that exactly repeat an earlier
// row across all columns. First occurrences keep their relative order.
func Deduplicate(t *Table) *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	seen := make(map[string]struct{}, len(t.Rows))
	for i, r := range t.Rows {
		k := rowKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Rows = append(out.Rows, append([]string(nil), r...))
		out.Source = append(out.Source, t.SourceRow(i))
	}
	return out
}

// DropColumns returns a table without the named columns. Every name must
// exist; the first absent one is reported as a SchemaError.
func DropColumns(t *Table, names ...string) (*Table, error) {
	drop := make(map[int]struct{}, len(names))
	for _, n := range names {
		idx := t.Index(n)
		if idx < 0 {
			return nil, &SchemaError{Column: n, Op: "drop columns"}
		}
		drop[idx] = struct{}{}
	}
	out := &Table{Name: t.Name, Source: append([]int(nil), t.Source...)}
	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := drop[i]; ok {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, c)
	}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		nr := make([]string, len(keep))
		for j, k := range keep {
			nr[j] = r[k]
		}
		out.Rows[i] = nr
	}
	return out, nil
}

// rowKey length-prefixes every cell so that no two distinct rows collide.
func rowKey(r []string) string {
	var b strings.Builder
	for _, c := range r {
		b.WriteString(strconv.Itoa(len(c)))
		b.WriteByte(':')
		b.WriteString(c)
	}
	return b.String()
}

func normalizeRow(r []string, n int) []string {
	row := make([]string, n)
	copy(row, r)
	return row
}
