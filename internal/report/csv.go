package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/studentlens/internal/student"
	"github.com/KaramelBytes/studentlens/internal/utils"
)

// utf8BOM lets spreadsheet tools detect the encoding of Vietnamese names.
const utf8BOM = "\ufeff"

// WriteCSV writes the processed table to w.
func WriteCSV(w io.Writer, ds *student.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(ds)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range ds.Rows() {
		if err := cw.Write(Cells(ds, r)); err != nil {
			return fmt.Errorf("write row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the processed table to path atomically, BOM first.
func WriteCSVFile(path string, ds *student.Dataset) error {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	if err := WriteCSV(&buf, ds); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
