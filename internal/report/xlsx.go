package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/studentlens/internal/analysis"
	"github.com/KaramelBytes/studentlens/internal/student"
	"github.com/KaramelBytes/studentlens/internal/utils"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	SheetProcessed = "Processed"
	SheetSummary   = "Summary"
	SheetTop       = "TopK"
	SheetOutliers  = "Outliers"
)

// WriteXLSX writes a workbook with the processed rows, the group summary, the
// top-k ranking and the outlier bounds.
func WriteXLSX(path string, res *analysis.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetSheetName(f.GetSheetName(0), SheetProcessed); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, s := range []string{SheetSummary, SheetTop, SheetOutliers} {
		if _, err := f.NewSheet(s); err != nil {
			return fmt.Errorf("create sheet %s: %w", s, err)
		}
	}

	w := sheetWriter{f: f, bold: bold}
	w.processed(res.Data)
	w.summary(res)
	w.top(res)
	w.outliers(res)
	if w.err != nil {
		return w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// sheetWriter keeps the first error so the sheet builders stay linear.
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) row(sheet string, n int, vals []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err == nil {
		err = w.f.SetSheetRow(sheet, cell, &vals)
	}
	if err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) header(sheet string, cols []string) {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	w.row(sheet, 1, vals)
	if w.err != nil {
		return
	}
	if err := w.f.SetRowStyle(sheet, 1, 1, w.bold); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
		return
	}
	err := w.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	if err != nil {
		w.err = fmt.Errorf("freeze %s header: %w", sheet, err)
	}
}

func (w *sheetWriter) processed(ds *student.Dataset) {
	if ds == nil {
		return
	}
	header := Header(ds)
	w.header(SheetProcessed, header)
	numeric := map[string]student.Column{
		"gpa": student.ColGPA, "credits": student.ColCredits,
		"height_cm": student.ColHeightCm, "weight_kg": student.ColWeightKg,
	}
	for _, c := range ds.DerivedColumns() {
		numeric[string(c)] = c
	}
	for i, r := range ds.Rows() {
		cells := Cells(ds, r)
		vals := make([]any, len(cells))
		for j, name := range header {
			switch {
			case j == 0:
				vals[j] = r.ID
			case numeric[name] != "":
				if v, ok := r.Value(numeric[name]); ok {
					vals[j] = v
				}
			default:
				vals[j] = cells[j]
			}
		}
		w.row(SheetProcessed, i+2, vals)
	}
}

func (w *sheetWriter) summary(res *analysis.Result) {
	cols := []string{string(res.Options.GroupBy), "n"}
	for _, c := range analysis.SummaryColumns {
		cols = append(cols, string(c)+"_mean", string(c)+"_median")
	}
	w.header(SheetSummary, cols)
	for i, g := range res.Summary {
		vals := []any{g.Key, g.Count}
		for _, c := range analysis.SummaryColumns {
			m := g.Metrics[c]
			if m.Valid() {
				vals = append(vals, m.Mean, m.Median)
			} else {
				vals = append(vals, "no data", "no data")
			}
		}
		w.row(SheetSummary, i+2, vals)
	}
}

func (w *sheetWriter) top(res *analysis.Result) {
	w.header(SheetTop, []string{string(res.Options.GroupBy), "rank", "student_id", "full_name", "gpa", "credits"})
	n := 2
	for _, g := range res.Top {
		for rank, r := range g.Rows {
			gpa, _ := r.Value(student.ColGPA)
			var credits any
			if c, ok := r.Value(student.ColCredits); ok {
				credits = c
			}
			w.row(SheetTop, n, []any{g.Key, rank + 1, r.ID, r.FullName, gpa, credits})
			n++
		}
	}
}

func (w *sheetWriter) outliers(res *analysis.Result) {
	w.header(SheetOutliers, []string{"column", "n", "q1", "q3", "iqr", "lower", "upper", "count", "student_ids"})
	for i, o := range res.Outliers {
		b := o.Bounds
		ids := make([]string, len(o.IDs))
		for j, id := range o.IDs {
			ids[j] = fmt.Sprint(id)
		}
		vals := []any{string(b.Column), b.N}
		if b.N > 0 {
			vals = append(vals, b.Q1, b.Q3, b.IQR, b.Lower, b.Upper)
		} else {
			vals = append(vals, nil, nil, nil, nil, nil)
		}
		vals = append(vals, len(o.IDs), strings.Join(ids, ", "))
		w.row(SheetOutliers, i+2, vals)
	}
}
