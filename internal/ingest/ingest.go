package ingest

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// ErrUnsupportedFormat is returned for files that are neither CSV/TSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Options controls how input files are read.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// RowError describes a rejected input row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// Batch is the typed result of reading one input file.
type Batch struct {
	Source   string
	Records  []student.Record
	Rejected []RowError
}

// Dataset builds a validated dataset from the accepted records.
func (b *Batch) Dataset() (*student.Dataset, error) {
	return student.NewDataset(b.Records)
}

// ReadFile reads a student file, choosing the parser by extension.
func ReadFile(path string, opt Options) (*Batch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return ReadCSVFile(path, opt)
	case ".xlsx", ".xlsm":
		return ReadXLSXFile(path, opt)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// decoder turns raw string rows into validated records.
type decoder struct {
	cols  []field
	batch *Batch
	seen  map[int64]int
}

func newDecoder(source string, header []string) (*decoder, error) {
	cols, err := mapHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &decoder{cols: cols, batch: &Batch{Source: source}, seen: map[int64]int{}}, nil
}

func (d *decoder) add(line int, row []string) {
	if blankRow(row) {
		return
	}
	rec, err := d.decode(row)
	if err == nil {
		err = rec.Validate()
	}
	if err == nil {
		if first, dup := d.seen[rec.ID]; dup {
			err = fmt.Errorf("%w: student_id %d already on line %d", student.ErrDuplicateID, rec.ID, first)
		}
	}
	if err != nil {
		d.batch.Rejected = append(d.batch.Rejected, RowError{Line: line, Err: err})
		return
	}
	d.seen[rec.ID] = line
	d.batch.Records = append(d.batch.Records, rec)
}

func (d *decoder) decode(row []string) (student.Record, error) {
	var r student.Record
	for i, f := range d.cols {
		if f < 0 || i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if isBlank(v) {
			if f == fID || f == fGender {
				return r, fmt.Errorf("%s is empty", fieldNames[f])
			}
			continue
		}
		if err := assign(&r, f, v); err != nil {
			return r, fmt.Errorf("%s: %w", fieldNames[f], err)
		}
	}
	return r, nil
}

func assign(r *student.Record, f field, v string) error {
	switch f {
	case fID:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		r.ID = id
	case fName:
		r.FullName = v
	case fGender:
		g, ok := parseGender(v)
		if !ok {
			return fmt.Errorf("unknown gender %q", v)
		}
		r.Gender = g
	case fMajor:
		r.Major = v
	case fClass:
		r.ClassID = v
	case fEmail:
		r.Email = v
	case fPhone:
		r.Phone = v
	case fProvince:
		r.Province = v
	case fDOB, fEnrolled:
		t, ok := parseDate(v)
		if !ok {
			return fmt.Errorf("not a date: %q", v)
		}
		if f == fDOB {
			r.DOB = t
		} else {
			r.EnrollmentDate = &t
		}
	case fCredits:
		x, ok := parseNumeric(v)
		if !ok || x != math.Trunc(x) {
			return fmt.Errorf("not a whole number: %q", v)
		}
		r.Credits = student.Int(int(x))
	case fGPA, fHeight, fWeight:
		x, ok := parseNumeric(v)
		if !ok {
			return fmt.Errorf("not a number: %q", v)
		}
		switch f {
		case fGPA:
			r.GPA = student.Float(x)
		case fHeight:
			r.HeightCm = student.Float(x)
		default:
			r.WeightKg = student.Float(x)
		}
	}
	return nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
