package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableHelpers(t *testing.T) {
	var missing *Table
	require.Equal(t, 0, missing.Len())
	require.False(t, missing.Has("A"))
	require.Equal(t, "A", missing.HasAll("A"))

	tbl := New("t", []string{"A", "B"})
	tbl.Rows = []Row{{"A": " 1 ", "B": "x"}, {"A": "2", "B": "y"}}
	require.Equal(t, "", tbl.HasAll("A", "B"))
	require.Equal(t, "C", tbl.HasAll("A", "C"))
	require.Equal(t, "1", tbl.Rows[0].Get("A"))
	require.Equal(t, "", tbl.Rows[0].Get("Z"))

	f := tbl.Filter(func(r Row) bool { return r.Get("B") == "y" })
	require.Equal(t, 1, f.Len())
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, tbl.Header, f.Header)
}

func TestConcatUnionsHeaders(t *testing.T) {
	a := New("a", []string{"CIF", "NGAY"})
	a.Rows = []Row{{"CIF": "C1", "NGAY": "2024-01-01"}}
	b := New("b", []string{"CIF", "SO_TIEN"})
	b.Rows = []Row{{"CIF": "C2", "SO_TIEN": "5"}}

	out := Concat("all", a, nil, b)
	require.Equal(t, "all", out.Name)
	require.Equal(t, []string{"CIF", "NGAY", "SO_TIEN"}, out.Header)
	require.Equal(t, 2, out.Len())
	require.Equal(t, "", out.Rows[1].Get("NGAY"))
}

func TestSheetColumn(t *testing.T) {
	s := Sheet{Name: "s", Header: []string{"A", "B"}, Rows: [][]any{{1, "x"}, {2}}}
	require.False(t, s.Empty())
	require.Equal(t, []any{"x", nil}, s.Column("B"))
	require.Nil(t, s.Column("C"))
	require.True(t, Sheet{}.Empty())
}
