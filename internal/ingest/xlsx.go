package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSXFile reads student rows from a worksheet. opt.Sheet picks the sheet
// by name (case-insensitive); otherwise the first sheet is used.
func ReadXLSXFile(path string, opt Options) (*Batch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(opt.Sheet)) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.Sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %s is empty", filepath.Base(path), sheet)
	}
	dec, err := newDecoder(filepath.Base(path)+":"+sheet, rows[0])
	if err != nil {
		return nil, err
	}
	for i, row := range rows[1:] {
		if opt.MaxRows > 0 && len(dec.batch.Records)+len(dec.batch.Rejected) >= opt.MaxRows {
			break
		}
		dec.add(i+2, row)
	}
	return dec.batch, nil
}
