package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSVFile reads a delimited student file.
func ReadCSVFile(path string, opt Options) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), opt)
}

// ReadCSV reads delimited student rows from r. The first row is the header.
func ReadCSV(r io.Reader, source string, opt Options) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", source)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dec, err := newDecoder(source, header)
	if err != nil {
		return nil, err
	}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				dec.batch.Rejected = append(dec.batch.Rejected, RowError{Line: line, Err: err})
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if opt.MaxRows > 0 && len(dec.batch.Records)+len(dec.batch.Rejected) >= opt.MaxRows {
			break
		}
		dec.add(line, row)
	}
	return dec.batch, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
