package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/studentlens/internal/analysis"
	"github.com/KaramelBytes/studentlens/internal/utils"
)

// Write exports res to path. The format follows the extension: .csv writes
// the processed table, .xlsx the full workbook, anything else Markdown.
func Write(path string, res *analysis.Result) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if res.Data == nil {
			return fmt.Errorf("no processed data to export")
		}
		err = WriteCSVFile(path, res.Data)
	case ".xlsx":
		err = WriteXLSX(path, res)
	default:
		err = utils.SafeWriteFile(path, []byte(res.Markdown()))
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}
	return nil
}
