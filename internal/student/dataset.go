package student

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDuplicateID is returned when two records share a student_id.
var ErrDuplicateID = errors.New("duplicate student_id")

// Row is a record together with the features derived from it.
type Row struct {
	Record
	derived map[Column]float64
}

// Value returns the value of c for this row; ok is false when it is missing.
func (r Row) Value(c Column) (v float64, ok bool) {
	switch c {
	case ColGPA:
		return deref(r.GPA)
	case ColCredits:
		if r.Credits == nil {
			return 0, false
		}
		return float64(*r.Credits), true
	case ColHeightCm:
		return deref(r.HeightCm)
	case ColWeightKg:
		return deref(r.WeightKg)
	}
	v, ok = r.derived[c]
	return v, ok
}

// SetValue stores v under c. Whole-number columns are rounded.
func (r *Row) SetValue(c Column, v float64) {
	switch c {
	case ColGPA:
		r.GPA = Float(v)
	case ColCredits:
		r.Credits = Int(int(math.Round(v)))
	case ColHeightCm:
		r.HeightCm = Float(v)
	case ColWeightKg:
		r.WeightKg = Float(v)
	default:
		if r.derived == nil {
			r.derived = make(map[Column]float64)
		}
		r.derived[c] = v
	}
}

func (r Row) clone() Row {
	out := Row{Record: r.Record.Clone()}
	if len(r.derived) > 0 {
		out.derived = make(map[Column]float64, len(r.derived))
		for k, v := range r.derived {
			out.derived[k] = v
		}
	}
	return out
}

// Dataset is an ordered collection of rows keyed by student_id.
// A Dataset is never modified after construction; transformations go through Derive.
type Dataset struct {
	rows    []Row
	index   map[int64]int
	derived []Column
}

// NewDataset validates records and builds a dataset preserving their order.
func NewDataset(records []Record) (*Dataset, error) {
	ds := &Dataset{
		rows:  make([]Row, 0, len(records)),
		index: make(map[int64]int, len(records)),
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ds.index[rec.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		ds.index[rec.ID] = len(ds.rows)
		ds.rows = append(ds.rows, Row{Record: rec.Clone()})
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Row returns a copy of the i-th row.
func (d *Dataset) Row(i int) Row { return d.rows[i].clone() }

// Rows returns copies of all rows in order.
func (d *Dataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	for i := range d.rows {
		out[i] = d.rows[i].clone()
	}
	return out
}

// Get looks a row up by student_id.
func (d *Dataset) Get(id int64) (Row, bool) {
	i, ok := d.index[id]
	if !ok {
		return Row{}, false
	}
	return d.rows[i].clone(), true
}

// IDs returns student ids in dataset order.
func (d *Dataset) IDs() []int64 {
	out := make([]int64, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.ID
	}
	return out
}

// Records returns the plain records, without derived features.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Record.Clone()
	}
	return out
}

// DerivedColumns lists derived columns in the order they were added.
func (d *Dataset) DerivedColumns() []Column {
	return append([]Column(nil), d.derived...)
}

// HasColumn reports whether c is a base column or has been derived on d.
func (d *Dataset) HasColumn(c Column) bool {
	if c.IsBase() {
		return true
	}
	for _, dc := range d.derived {
		if dc == c {
			return true
		}
	}
	return false
}

// Values returns the non-missing values of c in dataset order with their ids.
func (d *Dataset) Values(c Column) (ids []int64, vals []float64) {
	for _, r := range d.rows {
		if v, ok := r.Value(c); ok {
			ids = append(ids, r.ID)
			vals = append(vals, v)
		}
	}
	return ids, vals
}

// Derive returns a new dataset where fn has been applied to a copy of every row.
// fn must not change the row's ID; the receiver is left untouched.
func (d *Dataset) Derive(fn func(r *Row)) *Dataset {
	out := &Dataset{
		rows:    make([]Row, len(d.rows)),
		index:   make(map[int64]int, len(d.rows)),
		derived: append([]Column(nil), d.derived...),
	}
	known := make(map[Column]bool, len(d.derived))
	for _, c := range d.derived {
		known[c] = true
	}
	var added []Column
	for i := range d.rows {
		r := d.rows[i].clone()
		id := r.ID
		fn(&r)
		r.ID = id
		out.rows[i] = r
		out.index[id] = i
		for c := range r.derived {
			if !known[c] {
				known[c] = true
				added = append(added, c)
			}
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	out.derived = append(out.derived, added...)
	return out
}

// Declare returns a dataset that lists cols as derived even when no row has a
// value for them. Rows are shared with d; both are read-only.
func (d *Dataset) Declare(cols ...Column) *Dataset {
	out := &Dataset{rows: d.rows, index: d.index, derived: d.DerivedColumns()}
	for _, c := range cols {
		if !c.IsBase() && !out.HasColumn(c) {
			out.derived = append(out.derived, c)
		}
	}
	return out
}

// Filter returns a dataset with the rows for which keep reports true, in order.
// Derived columns stay declared even if no kept row has a value for them.
func (d *Dataset) Filter(keep func(r Row) bool) *Dataset {
	out := &Dataset{index: make(map[int64]int), derived: d.DerivedColumns()}
	for i := range d.rows {
		r := d.rows[i].clone()
		if !keep(r) {
			continue
		}
		out.index[r.ID] = len(out.rows)
		out.rows = append(out.rows, r)
	}
	return out
}

// Partition groups row indexes by the value of field, keys sorted ascending.
func (d *Dataset) Partition(field GroupField) (keys []string, groups map[string][]int, err error) {
	groups = make(map[string][]int)
	for i, r := range d.rows {
		k, err := r.GroupValue(field)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	sort.Strings(keys)
	return keys, groups, nil
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
