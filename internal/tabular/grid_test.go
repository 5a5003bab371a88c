package tabular

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reports/internal/core"
)

var testNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func testInput(t *core.Table) Input {
	return Input{
		Sheet: "Test",
		Title: "ריכוז",
		Manifest: &core.Manifest{
			ManifestID: "1234",
			GroupName:  "North",
			TermName:   "Haifa",
		},
		User:  "dana",
		Now:   testNow,
		Table: t,
	}
}

func entriesTable() *core.Table {
	return &core.Table{
		Name:    "rows",
		Columns: []string{"גוש", "יבואן", "כמות"},
		Rows: [][]any{
			{"A", "x", int64(10)},
			{"B", "y", int64(5)},
			{"A", "z", int64(7)},
			{"C", "w", int64(1)},
			{"B", "v", int64(2)},
		},
	}
}

func TestBuild_Identity(t *testing.T) {
	in := testInput(entriesTable())
	in.Clauses = []string{"מתאריך 01/03/24 עד 15/03/24", "יבואן: Acme"}

	g, err := Build(in, Layout{})
	require.NoError(t, err)

	assert.Equal(t, MinWidth, g.Width)
	assert.Equal(t, "North, בונדד 1234 (Haifa)", g.Cell(IdentityRow, 1).Value)
	assert.Equal(t, "ריכוז", g.Cell(IdentityRow, 5).Value)
	assert.True(t, g.Cell(IdentityRow, 5).Style.Bold)
	assert.Equal(t, "15/03/2024 09:30, dana", g.Cell(IdentityRow, 6).Value)
	assert.Equal(t, "מתאריך 01/03/24 עד 15/03/24, יבואן: Acme", g.Cell(FilterRow, 1).Value)

	for c := 1; c <= g.Width; c++ {
		assert.True(t, g.Cell(BorderRow, c).Style.BorderTop, "column %d", c)
	}

	assert.Contains(t, g.Merges(), Merge{Row: IdentityRow, FromCol: 1, ToCol: 4})
	assert.Contains(t, g.Merges(), Merge{Row: IdentityRow, FromCol: 6, ToCol: 9})
	assert.Contains(t, g.Merges(), Merge{Row: FilterRow, FromCol: 1, ToCol: 9})
}

func TestBuild_NoClausesLeavesFilterRowEmpty(t *testing.T) {
	g, err := Build(testInput(entriesTable()), Layout{})
	require.NoError(t, err)
	assert.Nil(t, g.Cell(FilterRow, 1).Value)
}

func TestBuild_HeaderWrapsWords(t *testing.T) {
	table := &core.Table{Columns: []string{"כמות מוצהרת"}, Rows: [][]any{{int64(1)}}}
	g, err := Build(testInput(table), Layout{})
	require.NoError(t, err)

	h := g.Cell(HeaderRow, 1)
	assert.Equal(t, "כמות\nמוצהרת", h.Value)
	assert.True(t, h.Style.Wrap)
	assert.True(t, h.Style.BorderBottom)
	assert.Equal(t, rowHeader, g.kind(HeaderRow))
}

func TestBuild_FlatTotals(t *testing.T) {
	g, err := Build(testInput(entriesTable()), Layout{
		Sums:   []string{"כמות"},
		Counts: []string{"גוש"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{6, 7, 8, 9, 10}, g.rowsOf(rowData))
	require.Equal(t, []int{11}, g.rowsOf(rowTotals))

	count := g.Cell(11, 1)
	assert.Equal(t, "COUNTA(A6:A10)", count.Formula)
	assert.True(t, decimal.NewFromInt(5).Equal(count.Value.(decimal.Decimal)))

	label := g.Cell(11, 2)
	assert.Equal(t, TotalLabel, label.Value)
	assert.True(t, label.Style.BorderTop)

	sum := g.Cell(11, 3)
	assert.Equal(t, "SUM(C6:C10)", sum.Formula)
	assert.True(t, decimal.NewFromInt(25).Equal(sum.Value.(decimal.Decimal)))
	assert.True(t, sum.Style.Number)
	assert.Equal(t, 11, g.LastRow())
}

func TestBuild_NoAggregatesNoTotals(t *testing.T) {
	g, err := Build(testInput(entriesTable()), Layout{})
	require.NoError(t, err)

	assert.Empty(t, g.rowsOf(rowTotals))
	assert.Equal(t, 10, g.LastRow())
}

func TestBuild_EmptyTableNoTotals(t *testing.T) {
	table := &core.Table{Columns: []string{"כמות"}}
	g, err := Build(testInput(table), Layout{Sums: []string{"כמות"}})
	require.NoError(t, err)

	assert.Empty(t, g.rowsOf(rowData))
	assert.Empty(t, g.rowsOf(rowTotals))
}

func TestBuild_GroupedOrder(t *testing.T) {
	in := testInput(entriesTable())
	in.GroupBy = "גוש"

	g, err := Build(in, Layout{Sums: []string{"כמות"}})
	require.NoError(t, err)

	// A: rows 6-7, subtotal 8; B: 9-10, subtotal 11; C: 12, subtotal 13.
	var kinds []rowKind
	for r := FirstRow; r <= g.LastRow(); r++ {
		kinds = append(kinds, g.kind(r))
	}
	assert.Equal(t, []rowKind{
		rowData, rowData, rowSubtotal,
		rowData, rowData, rowSubtotal,
		rowData, rowSubtotal,
		rowGrandTotal,
	}, kinds)

	assert.Equal(t, "A", g.Cell(6, 1).Value)
	assert.Equal(t, "A", g.Cell(7, 1).Value)
	assert.Equal(t, "z", g.Cell(7, 2).Value)
	assert.Equal(t, "B", g.Cell(9, 1).Value)
	assert.Equal(t, "C", g.Cell(12, 1).Value)

	assert.Equal(t, `סה"כ A`, g.Cell(8, 1).Value)
	assert.Equal(t, "SUM(C6:C7)", g.Cell(8, 3).Formula)
	assert.False(t, g.Cell(8, 3).Style.BorderTop)
	assert.Equal(t, "SUM(C9:C10)", g.Cell(11, 3).Formula)
	assert.Equal(t, "SUM(C12:C12)", g.Cell(13, 3).Formula)

	grand := g.Cell(14, 3)
	assert.Equal(t, GrandTotalLabel, g.Cell(14, 1).Value)
	assert.Equal(t, "SUM(C8,C11,C13)", grand.Formula)
	assert.True(t, grand.Style.BorderTop)
}

func TestBuild_GrandTotalIsSumOfSubtotals(t *testing.T) {
	in := testInput(entriesTable())
	in.GroupBy = "גוש"

	g, err := Build(in, Layout{Sums: []string{"כמות"}, Counts: []string{"יבואן"}})
	require.NoError(t, err)

	subtotals := g.rowsOf(rowSubtotal)
	require.Len(t, subtotals, 3)
	grand := g.rowsOf(rowGrandTotal)
	require.Len(t, grand, 1)

	for _, col := range []int{2, 3} {
		total := decimal.Zero
		for _, r := range subtotals {
			total = total.Add(g.Cell(r, col).Value.(decimal.Decimal))
		}
		assert.True(t, total.Equal(g.Cell(grand[0], col).Value.(decimal.Decimal)), "column %d", col)
	}
	assert.True(t, decimal.NewFromInt(25).Equal(g.Cell(grand[0], 3).Value.(decimal.Decimal)))
	assert.True(t, decimal.NewFromInt(5).Equal(g.Cell(grand[0], 2).Value.(decimal.Decimal)))
}

func TestBuild_LayoutGroupByOverriddenByInput(t *testing.T) {
	in := testInput(entriesTable())
	in.GroupBy = "יבואן"

	g, err := Build(in, Layout{GroupBy: "גוש", Sums: []string{"כמות"}})
	require.NoError(t, err)
	assert.Len(t, g.rowsOf(rowSubtotal), 5)
}

func TestBuild_UnknownGroupColumn(t *testing.T) {
	in := testInput(entriesTable())
	in.GroupBy = "missing"

	_, err := Build(in, Layout{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownColumn))
}

func TestBuild_PrintPrunesColumns(t *testing.T) {
	layout := Layout{PrintPrune: []string{"יבואן"}, Sums: []string{"כמות"}}

	in := testInput(entriesTable())
	g, err := Build(in, layout)
	require.NoError(t, err)
	assert.Equal(t, "יבואן", g.Cell(HeaderRow, 2).Value)

	in.Print = true
	g, err = Build(in, layout)
	require.NoError(t, err)
	assert.Equal(t, "כמות", g.Cell(HeaderRow, 2).Value)
	assert.Nil(t, g.Cell(HeaderRow, 3).Value)
	assert.Equal(t, "SUM(B6:B10)", g.Cell(11, 2).Formula)
}

func TestBuild_PrintPruneKeepsGroupColumnCheck(t *testing.T) {
	in := testInput(entriesTable())
	in.Print = true
	in.GroupBy = "יבואן"

	_, err := Build(in, Layout{PrintPrune: []string{"יבואן"}})
	assert.True(t, errors.Is(err, ErrUnknownColumn))
}

func TestBuild_Secondary(t *testing.T) {
	in := testInput(entriesTable())
	in.Sets = core.ResultSets{
		"summary": {
			Columns: []string{"מטבע", "כמות"},
			Rows: [][]any{
				{"USD", int64(3)},
				{"EUR", int64(4)},
			},
		},
	}

	g, err := Build(in, Layout{
		Sums: []string{"כמות"},
		Secondary: []Secondary{
			{Set: "summary", Title: "לפי מטבע", Column: 9},
			{Set: "absent", Title: "none", Column: 1},
		},
	})
	require.NoError(t, err)

	// Totals at row 11, secondary title three rows below.
	title := g.Cell(14, 9)
	assert.Equal(t, "לפי מטבע", title.Value)
	assert.True(t, title.Style.Bold)
	assert.True(t, title.Style.Underline)
	assert.Contains(t, g.Merges(), Merge{Row: 14, FromCol: 9, ToCol: 11})

	assert.Equal(t, "מטבע", g.Cell(15, 9).Value)
	assert.True(t, g.Cell(15, 9).Style.Underline)
	assert.Equal(t, "USD", g.Cell(16, 9).Value)
	assert.True(t, g.Cell(16, 9).Style.Bold)
	assert.Equal(t, int64(4), g.Cell(17, 10).Value)
	assert.Equal(t, 17, g.LastRow())
}

func TestBuild_ValueConversion(t *testing.T) {
	table := &core.Table{
		Columns: []string{"a", "b", "c", "d"},
		Rows: [][]any{
			{decimal.RequireFromString("1.5"), nil, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		},
	}
	g, err := Build(testInput(table), Layout{})
	require.NoError(t, err)

	assert.True(t, g.Cell(FirstRow, 1).Style.Number)
	assert.Nil(t, g.Cell(FirstRow, 2).Value)
	assert.Equal(t, core.Text(table.Rows[0][2]), g.Cell(FirstRow, 3).Value)
	assert.Equal(t, core.Text(true), g.Cell(FirstRow, 4).Value)
}

func TestBuild_ColumnWidths(t *testing.T) {
	table := &core.Table{
		Columns: []string{"x"},
		Rows:    [][]any{{"a very long value that goes on and on and on and on and on and on"}},
	}
	g, err := Build(testInput(table), Layout{})
	require.NoError(t, err)

	assert.Equal(t, 50.0, g.ColumnWidth(1))
	assert.Equal(t, 8.0, g.ColumnWidth(2))
}

func TestSumOf(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{"single", 1, "SUM(A1)"},
		{"three", 3, "SUM(A1,A2,A3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := make([]string, tt.n)
			for i := range refs {
				refs[i] = "A" + strconv.Itoa(i+1)
			}
			assert.Equal(t, tt.want, sumOf(refs))
		})
	}
}

func TestSumOf_NestsBeyondArgumentLimit(t *testing.T) {
	refs := make([]string, maxSumArgs+10)
	for i := range refs {
		refs[i] = "A" + strconv.Itoa(i+1)
	}

	got := sumOf(refs)
	assert.Regexp(t, `^SUM\(SUM\(A1,.*,A255\),SUM\(A256,.*,A265\)\)$`, got)
}

func TestRowKindString(t *testing.T) {
	assert.Equal(t, "grand_total", rowGrandTotal.String())
	assert.Equal(t, "plain", rowPlain.String())
}
