package tabular

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// numFmtThousands is the built-in "#,##0" number format.
const numFmtThousands = 3

const pageMargin = 0.5 // inches

// cellRef returns the A1 reference of column col, row r.
func cellRef(col, r int) string {
	name, err := excelize.CoordinatesToCellName(col, r)
	if err != nil {
		// col and r come from the layout and are always positive.
		panic(err)
	}
	return name
}

// rangeRef returns the A1 range of column col from row r1 to r2.
func rangeRef(col, r1, r2 int) string {
	return cellRef(col, r1) + ":" + cellRef(col, r2)
}

// WriteXLSX writes the grid as a single-sheet workbook.
func (g *Grid) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", g.Sheet); err != nil {
		return fmt.Errorf("sheet name: %w", err)
	}

	xw := &xlsxWriter{f: f, sheet: g.Sheet, fontSize: g.FontSize, styles: make(map[Style]int)}
	if err := xw.sheetSettings(); err != nil {
		return err
	}

	rows := make([]int, 0, len(g.rows))
	for r := range g.rows {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	for _, r := range rows {
		for c, cell := range g.rows[r].cells {
			if err := xw.cell(c, r, cell); err != nil {
				return fmt.Errorf("cell %s: %w", cellRef(c, r), err)
			}
		}
	}

	for _, m := range g.merges {
		if err := f.MergeCell(g.Sheet, cellRef(m.FromCol, m.Row), cellRef(m.ToCol, m.Row)); err != nil {
			return fmt.Errorf("merge row %d: %w", m.Row, err)
		}
	}

	for c := 1; c <= g.Width; c++ {
		name, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(g.Sheet, name, name, g.widths[c]); err != nil {
			return fmt.Errorf("column width %s: %w", name, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type xlsxWriter struct {
	f        *excelize.File
	sheet    string
	fontSize float64
	styles   map[Style]int
}

func (xw *xlsxWriter) sheetSettings() error {
	rtl := true
	if err := xw.f.SetSheetView(xw.sheet, -1, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("sheet view: %w", err)
	}

	fit := true
	if err := xw.f.SetSheetProps(xw.sheet, &excelize.SheetPropsOptions{FitToPage: &fit}); err != nil {
		return fmt.Errorf("sheet props: %w", err)
	}

	orientation := "landscape"
	wide, tall := 1, 0
	if err := xw.f.SetPageLayout(xw.sheet, &excelize.PageLayoutOptions{
		Orientation: &orientation,
		FitToWidth:  &wide,
		FitToHeight: &tall,
	}); err != nil {
		return fmt.Errorf("page layout: %w", err)
	}

	margin, center := pageMargin, true
	if err := xw.f.SetPageMargins(xw.sheet, &excelize.PageLayoutMarginsOptions{
		Top:          &margin,
		Bottom:       &margin,
		Left:         &margin,
		Right:        &margin,
		Horizontally: &center,
	}); err != nil {
		return fmt.Errorf("page margins: %w", err)
	}

	fullCalc := true
	if err := xw.f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return fmt.Errorf("calc props: %w", err)
	}
	return nil
}

func (xw *xlsxWriter) cell(c, r int, cell Cell) error {
	ref := cellRef(c, r)

	if cell.Formula != "" {
		if err := xw.f.SetCellFormula(xw.sheet, ref, cell.Formula); err != nil {
			return err
		}
	} else if cell.Value != nil {
		if err := xw.f.SetCellValue(xw.sheet, ref, cellValue(cell.Value)); err != nil {
			return err
		}
	}

	id, err := xw.style(cell.Style)
	if err != nil {
		return err
	}
	return xw.f.SetCellStyle(xw.sheet, ref, ref, id)
}

// cellValue converts decimals, which excelize would write as text.
func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

func (xw *xlsxWriter) style(s Style) (int, error) {
	if id, ok := xw.styles[s]; ok {
		return id, nil
	}

	st := &excelize.Style{
		Font:      &excelize.Font{Bold: s.Bold, Size: xw.fontSize},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: s.Wrap},
	}
	if s.Underline {
		st.Font.Underline = "single"
	}
	if s.Center {
		st.Alignment.Horizontal = "center"
	}
	if s.BorderTop {
		st.Border = append(st.Border, excelize.Border{Type: "top", Color: "000000", Style: 1})
	}
	if s.BorderBottom {
		st.Border = append(st.Border, excelize.Border{Type: "bottom", Color: "000000", Style: 1})
	}
	if s.Number {
		st.NumFmt = numFmtThousands
	}

	id, err := xw.f.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	xw.styles[s] = id
	return id, nil
}
