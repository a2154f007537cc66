package table

import "strings"

// Row is one spreadsheet record keyed by trimmed header name.
type Row map[string]string

// Get returns the trimmed value of key, or "" when the column is absent.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Table is a loaded input: a header in source order plus its rows.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

func New(name string, header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Name: name, Header: h}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Has(col string) bool {
	if t == nil {
		return false
	}
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// HasAll returns the first missing column, or "" when every column exists.
func (t *Table) HasAll(cols ...string) string {
	for _, c := range cols {
		if !t.Has(c) {
			return c
		}
	}
	return ""
}

// Filter returns a new table with the same header and the rows keep accepts.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.Name, t.Header)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Concat stacks same-shaped sources into one table. The header is the
// union of all headers in first-seen order; missing cells read as blank.
func Concat(name string, parts ...*Table) *Table {
	out := &Table{Name: name}
	seen := make(map[string]bool)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, h := range p.Header {
			if !seen[h] {
				seen[h] = true
				out.Header = append(out.Header, h)
			}
		}
		out.Rows = append(out.Rows, p.Rows...)
	}
	return out
}

// Sheet is a named, ordered output table ready for a workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

func (s Sheet) Empty() bool { return len(s.Rows) == 0 }

// Column returns the values of col in row order, or nil when col is absent.
func (s Sheet) Column(col string) []any {
	idx := -1
	for i, h := range s.Header {
		if h == col {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		if idx < len(r) {
			out = append(out, r[idx])
		} else {
			out = append(out, nil)
		}
	}
	return out
}
