// Package tabular lays out result sets as spreadsheet grids and writes them
// as xlsx workbooks.
//
// Build produces a Grid, an in-memory model of cells, merges and column
// widths that knows nothing about the file format. WriteXLSX turns a Grid
// into a workbook with excelize. Keeping the two apart lets the layout be
// tested cell by cell without reading a file back.
//
// Sheet layout, top to bottom:
//
//	row 1   identity header: manifest | report name | timestamp, user
//	row 2   top border
//	row 3   filter line
//	row 5   column headers
//	row 6+  data, then totals (flat) or group subtotals and a grand total
//	        secondary lookup tables three rows below the last total
package tabular

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/reports/internal/core"
)

// Fixed rows of the sheet layout.
const (
	IdentityRow = 1
	BorderRow   = 2
	FilterRow   = 3
	HeaderRow   = 5
	FirstRow    = 6

	// MinWidth is the narrowest grid; the identity header needs nine columns.
	MinWidth = 9

	// secondaryGap is the number of rows between the last total and a
	// secondary table.
	secondaryGap = 3

	// maxSumArgs is the spreadsheet limit on function arguments.
	maxSumArgs = 255
)

// Labels written into total rows.
const (
	TotalLabel      = `סה"כ`
	SubtotalLabel   = `סה"כ %s`
	GrandTotalLabel = `סה"כ כללי`
	bondedLabel     = "בונדד"
)

// TimestampLayout formats the print timestamp in the identity header.
const TimestampLayout = "02/01/2006 15:04"

// DefaultFontSize is used when Input.FontSize is zero.
const DefaultFontSize = 10

// ErrUnknownColumn is returned when the group column is not in the table.
var ErrUnknownColumn = errors.New("unknown column")

// Layout is the static, per-report part of a tabular document.
type Layout struct {
	// Sums and Counts name the columns that get SUM and COUNTA totals.
	Sums   []string
	Counts []string

	// PrintPrune names the columns removed when the document is printed.
	PrintPrune []string

	// GroupBy is the default group column. Empty means flat mode unless
	// the request asks for grouping.
	GroupBy string

	Secondary []Secondary
}

// Secondary is a small lookup table placed below the primary table.
type Secondary struct {
	Set    string // result set name
	Title  string
	Column int // 1-based anchor column
}

// Input is the per-request part of a tabular document.
type Input struct {
	Sheet    string
	Title    string
	Manifest *core.Manifest
	User     string
	Now      time.Time
	Clauses  []string

	Table *core.Table

	// Sets resolves secondary tables by name. May be nil.
	Sets core.ResultSets

	// GroupBy overrides Layout.GroupBy when set.
	GroupBy string

	// Print removes Layout.PrintPrune columns.
	Print bool

	FontSize float64
}

// Style is the visual treatment of one cell. Styles are comparable so the
// writer can share one workbook style per distinct value.
type Style struct {
	Bold         bool
	Underline    bool
	Center       bool
	Wrap         bool
	BorderTop    bool
	BorderBottom bool
	Number       bool
}

// Cell is one grid cell. Formula cells carry the computed value too, so
// callers can check totals without a spreadsheet engine.
type Cell struct {
	Value   any
	Formula string // without the leading '='
	Style   Style
}

// Merge is a merged cell range, 1-based and inclusive.
type Merge struct {
	Row, FromCol, ToCol int
}

type rowKind int

const (
	rowPlain rowKind = iota
	rowHeader
	rowData
	rowSubtotal
	rowGrandTotal
	rowTotals
)

func (k rowKind) String() string {
	switch k {
	case rowHeader:
		return "header"
	case rowData:
		return "data"
	case rowSubtotal:
		return "subtotal"
	case rowGrandTotal:
		return "grand_total"
	case rowTotals:
		return "totals"
	}
	return "plain"
}

type gridRow struct {
	kind  rowKind
	cells map[int]Cell
}

// Grid is a laid-out sheet.
type Grid struct {
	Sheet    string
	Width    int
	FontSize float64

	rows    map[int]*gridRow
	lastRow int
	merges  []Merge
	widths  map[int]float64
}

func newGrid(sheet string, width int, fontSize float64) *Grid {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return &Grid{
		Sheet:    sheet,
		Width:    width,
		FontSize: fontSize,
		rows:     make(map[int]*gridRow),
		widths:   make(map[int]float64),
	}
}

func (g *Grid) row(r int) *gridRow {
	gr, ok := g.rows[r]
	if !ok {
		gr = &gridRow{cells: make(map[int]Cell)}
		g.rows[r] = gr
	}
	if r > g.lastRow {
		g.lastRow = r
	}
	return gr
}

func (g *Grid) set(r, c int, cell Cell) {
	g.row(r).cells[c] = cell
}

func (g *Grid) setKind(r int, k rowKind) {
	g.row(r).kind = k
}

func (g *Grid) merge(r, from, to int) {
	if to > from {
		g.merges = append(g.merges, Merge{Row: r, FromCol: from, ToCol: to})
	}
}

// Cell returns the cell at row r, column c (1-based).
func (g *Grid) Cell(r, c int) Cell {
	if gr, ok := g.rows[r]; ok {
		return gr.cells[c]
	}
	return Cell{}
}

// LastRow returns the last row holding a cell.
func (g *Grid) LastRow() int { return g.lastRow }

// Merges returns the merged ranges in layout order.
func (g *Grid) Merges() []Merge { return g.merges }

// ColumnWidth returns the approximate width of column c in characters.
func (g *Grid) ColumnWidth(c int) float64 { return g.widths[c] }

func (g *Grid) kind(r int) rowKind {
	if gr, ok := g.rows[r]; ok {
		return gr.kind
	}
	return rowPlain
}

// rowsOf returns the row numbers of kind k in ascending order.
func (g *Grid) rowsOf(k rowKind) []int {
	var out []int
	for r, gr := range g.rows {
		if gr.kind == k {
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}

// Build lays out in according to layout.
func Build(in Input, layout Layout) (*Grid, error) {
	table := in.Table
	if table == nil {
		table = &core.Table{}
	}
	if in.Print && len(layout.PrintPrune) > 0 {
		table = table.Without(layout.PrintPrune...)
	}

	group := layout.GroupBy
	if in.GroupBy != "" {
		group = in.GroupBy
	}
	groupCol := -1
	if group != "" {
		if groupCol = table.ColumnIndex(group); groupCol < 0 {
			return nil, fmt.Errorf("group by %q: %w", group, ErrUnknownColumn)
		}
	}

	width := len(table.Columns)
	if width < MinWidth {
		width = MinWidth
	}
	sheet := in.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}

	g := newGrid(sheet, width, in.FontSize)
	g.identity(in)
	g.filterLine(in.Clauses)
	g.header(table.Columns)

	aggs := aggregates(table, layout)

	var last int
	if groupCol >= 0 {
		last = g.grouped(table, groupCol, aggs)
	} else {
		last = g.flat(table, aggs)
	}

	next := last + secondaryGap
	for _, sec := range layout.Secondary {
		t := in.Sets.Table(sec.Set)
		if t.Len() == 0 {
			continue
		}
		next = g.secondary(next, sec, t) + secondaryGap
	}

	g.autoWidth()
	return g, nil
}

func (g *Grid) identity(in Input) {
	var left string
	if m := in.Manifest; m != nil {
		left = fmt.Sprintf("%s, %s %s (%s)", m.GroupName, bondedLabel, m.ManifestID, m.TermName)
	}
	g.set(IdentityRow, 1, Cell{Value: left})
	g.merge(IdentityRow, 1, 4)

	g.set(IdentityRow, 5, Cell{Value: in.Title, Style: Style{Bold: true, Center: true}})
	g.merge(IdentityRow, 5, g.Width-4)

	right := in.Now.Format(TimestampLayout)
	if in.User != "" {
		right += ", " + in.User
	}
	g.set(IdentityRow, g.Width-3, Cell{Value: right})
	g.merge(IdentityRow, g.Width-3, g.Width)

	for c := 1; c <= g.Width; c++ {
		g.set(BorderRow, c, Cell{Style: Style{BorderTop: true}})
	}
}

func (g *Grid) filterLine(clauses []string) {
	if len(clauses) == 0 {
		return
	}
	g.set(FilterRow, 1, Cell{Value: strings.Join(clauses, ", "), Style: Style{Bold: true}})
	g.merge(FilterRow, 1, g.Width)
}

func (g *Grid) header(columns []string) {
	g.setKind(HeaderRow, rowHeader)
	style := Style{Bold: true, Wrap: true, BorderBottom: true, Center: true}
	for i, c := range columns {
		g.set(HeaderRow, i+1, Cell{Value: strings.ReplaceAll(c, " ", "\n"), Style: style})
	}
}

type aggKind int

const (
	aggSum aggKind = iota + 1
	aggCount
)

// aggregates maps table column index to its aggregate. Columns absent
// from the table are ignored.
func aggregates(t *core.Table, layout Layout) map[int]aggKind {
	out := make(map[int]aggKind)
	for _, name := range layout.Sums {
		if i := t.ColumnIndex(name); i >= 0 {
			out[i] = aggSum
		}
	}
	for _, name := range layout.Counts {
		if i := t.ColumnIndex(name); i >= 0 {
			out[i] = aggCount
		}
	}
	return out
}

func (g *Grid) writeData(r int, row []any) {
	g.setKind(r, rowData)
	for i, v := range row {
		g.set(r, i+1, dataCell(v, Style{}))
	}
}

func dataCell(v any, style Style) Cell {
	switch t := v.(type) {
	case nil:
		return Cell{Style: style}
	case int, int16, int32, int64, float32, float64:
		style.Number = true
		return Cell{Value: t, Style: style}
	case decimal.Decimal:
		style.Number = true
		return Cell{Value: t, Style: style}
	case string:
		return Cell{Value: t, Style: style}
	}
	return Cell{Value: core.Text(v), Style: style}
}

// flat writes the data rows and one totals row. It returns the last row
// written.
func (g *Grid) flat(t *core.Table, aggs map[int]aggKind) int {
	r := FirstRow
	for _, row := range t.Rows {
		g.writeData(r, row)
		r++
	}
	last := r - 1
	if len(aggs) == 0 || t.Len() == 0 {
		if last < HeaderRow {
			return HeaderRow
		}
		return last
	}

	g.totalRow(r, rowTotals, TotalLabel, t, aggs, func(col int, kind aggKind) (string, decimal.Decimal) {
		rng := rangeRef(col, FirstRow, last)
		return formula(kind, rng), aggregate(kind, t.Rows, col)
	})
	return r
}

// grouped writes rows partitioned by the group column in first-occurrence
// order, each group followed by a subtotal, then a grand total. It returns
// the last row written.
func (g *Grid) grouped(t *core.Table, groupCol int, aggs map[int]aggKind) int {
	var order []string
	groups := make(map[string][][]any)
	for _, row := range t.Rows {
		var key string
		if groupCol < len(row) {
			key = core.Text(row[groupCol])
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	r := FirstRow
	var subtotalRows []int
	subtotals := make(map[int][]decimal.Decimal)
	for _, key := range order {
		rows := groups[key]
		start := r
		for _, row := range rows {
			g.writeData(r, row)
			r++
		}
		end := r - 1

		label := fmt.Sprintf(SubtotalLabel, key)
		g.totalRow(r, rowSubtotal, label, t, aggs, func(col int, kind aggKind) (string, decimal.Decimal) {
			v := aggregate(kind, rows, col)
			subtotals[col] = append(subtotals[col], v)
			return formula(kind, rangeRef(col, start, end)), v
		})
		subtotalRows = append(subtotalRows, r)
		r++
	}

	if len(order) == 0 {
		return HeaderRow
	}

	g.totalRow(r, rowGrandTotal, GrandTotalLabel, t, aggs, func(col int, _ aggKind) (string, decimal.Decimal) {
		refs := make([]string, len(subtotalRows))
		for i, sr := range subtotalRows {
			refs[i] = cellRef(col, sr)
		}
		return sumOf(refs), decimal.Sum(decimal.Zero, subtotals[col]...)
	})
	return r
}

// totalRow writes a bold total row. The label goes into the first column
// that carries no aggregate.
func (g *Grid) totalRow(r int, kind rowKind, label string, t *core.Table, aggs map[int]aggKind, value func(col int, kind aggKind) (string, decimal.Decimal)) {
	g.setKind(r, kind)
	style := Style{Bold: true, BorderTop: kind != rowSubtotal}

	labelled := false
	for i := range t.Columns {
		if agg, ok := aggs[i]; ok {
			f, v := value(i+1, agg)
			numeric := style
			numeric.Number = true
			g.set(r, i+1, Cell{Value: v, Formula: f, Style: numeric})
			continue
		}
		cell := Cell{Style: style}
		if !labelled {
			cell.Value = label
			labelled = true
		}
		g.set(r, i+1, cell)
	}
}

// aggregate computes the value of a total over column col (1-based).
func aggregate(kind aggKind, rows [][]any, col int) decimal.Decimal {
	total := decimal.Zero
	idx := col - 1
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		switch kind {
		case aggSum:
			if d, ok := core.Decimal(row[idx]); ok {
				total = total.Add(d)
			}
		case aggCount:
			if core.Text(row[idx]) != "" {
				total = total.Add(decimal.NewFromInt(1))
			}
		}
	}
	return total
}

func formula(kind aggKind, rng string) string {
	if kind == aggCount {
		return "COUNTA(" + rng + ")"
	}
	return "SUM(" + rng + ")"
}

// sumOf returns a SUM over refs, nesting when refs exceed the argument
// limit of one function call.
func sumOf(refs []string) string {
	if len(refs) <= maxSumArgs {
		return "SUM(" + strings.Join(refs, ",") + ")"
	}
	var parts []string
	for i := 0; i < len(refs); i += maxSumArgs {
		end := i + maxSumArgs
		if end > len(refs) {
			end = len(refs)
		}
		parts = append(parts, "SUM("+strings.Join(refs[i:end], ",")+")")
	}
	return sumOf(parts)
}

// secondary writes a titled lookup table starting at row r and returns
// the last row written.
func (g *Grid) secondary(r int, sec Secondary, t *core.Table) int {
	col := sec.Column
	if col < 1 {
		col = 1
	}

	g.set(r, col, Cell{Value: sec.Title, Style: Style{Bold: true, Underline: true}})
	g.merge(r, col, col+2)
	r++

	for i, c := range t.Columns {
		g.set(r, col+i, Cell{Value: c, Style: Style{Underline: true}})
	}
	for _, row := range t.Rows {
		r++
		for i, v := range row {
			g.set(r, col+i, dataCell(v, Style{Bold: true}))
		}
	}
	return r
}

// autoWidth approximates column widths from the longest line of text in
// each column. Merged identity and filter cells are ignored.
func (g *Grid) autoWidth() {
	for r, gr := range g.rows {
		if r < HeaderRow {
			continue
		}
		for c, cell := range gr.cells {
			text := displayText(cell)
			for _, line := range strings.Split(text, "\n") {
				w := float64(utf8.RuneCountInString(line))*1.1 + 2
				if w > g.widths[c] {
					g.widths[c] = w
				}
			}
		}
	}
	for c := 1; c <= g.Width; c++ {
		switch w := g.widths[c]; {
		case w < 8:
			g.widths[c] = 8
		case w > 50:
			g.widths[c] = 50
		}
	}
}

func displayText(c Cell) string {
	if d, ok := c.Value.(decimal.Decimal); ok {
		return core.FormatThousands(d)
	}
	if c.Style.Number {
		if d, ok := core.Decimal(c.Value); ok {
			return core.FormatThousands(d)
		}
	}
	return core.Text(c.Value)
}
