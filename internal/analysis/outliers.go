package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// OutlierBounds is the IQR envelope of a column for one multiplier.
type OutlierBounds struct {
	Column     student.Column
	Multiplier float64
	Q1, Q3     float64
	IQR        float64
	Lower      float64
	Upper      float64
	N          int
}

// Contains reports whether v lies inside the bounds. Bounds are inclusive.
func (b OutlierBounds) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// OutlierReport lists the records of a column that fall outside its bounds.
type OutlierReport struct {
	Bounds      OutlierBounds
	IDs         []int64 // ascending
	Diagnostics []Diagnostic
}

// Bounds computes Q1/Q3 (linear interpolation) over the non-missing values of col
// and widens them by multiplier*IQR. It is recomputed on every call.
func Bounds(ds *student.Dataset, col student.Column, multiplier float64) (OutlierBounds, error) {
	if err := checkMultiplier(multiplier); err != nil {
		return OutlierBounds{}, err
	}
	if err := requireColumn(ds, col); err != nil {
		return OutlierBounds{}, err
	}
	_, vals := ds.Values(col)
	if len(vals) == 0 {
		return OutlierBounds{}, fmt.Errorf("quartiles of %s: %w", col, ErrInsufficientData)
	}
	sorted := sortedCopy(vals)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return OutlierBounds{
		Column:     col,
		Multiplier: multiplier,
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Lower:      q1 - multiplier*iqr,
		Upper:      q3 + multiplier*iqr,
		N:          len(vals),
	}, nil
}

func checkMultiplier(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidMultiplier, m)
	}
	return nil
}

// DetectOutliers returns the ids whose col value lies strictly outside the bounds.
// Rows missing col are ignored. An empty column is reported as a diagnostic.
func DetectOutliers(ds *student.Dataset, col student.Column, multiplier float64) (*OutlierReport, error) {
	b, err := Bounds(ds, col, multiplier)
	if err != nil {
		if !isInsufficient(err) {
			return nil, err
		}
		return &OutlierReport{
			Bounds: OutlierBounds{Column: col, Multiplier: multiplier},
			Diagnostics: []Diagnostic{{
				Step:    "outliers",
				Column:  col,
				Message: "no values; nothing to flag",
				Err:     ErrInsufficientData,
			}},
		}, nil
	}
	rep := &OutlierReport{Bounds: b}
	ids, vals := ds.Values(col)
	for i, v := range vals {
		if !b.Contains(v) {
			rep.IDs = append(rep.IDs, ids[i])
		}
	}
	sort.Slice(rep.IDs, func(i, j int) bool { return rep.IDs[i] < rep.IDs[j] })
	return rep, nil
}

// CapOutliers clamps col to its bounds (winsorization). Row count is unchanged.
// Whole-number columns are clamped to the nearest whole number inside the bounds.
func CapOutliers(ds *student.Dataset, col student.Column, multiplier float64) (*student.Dataset, *OutlierReport, error) {
	rep, err := DetectOutliers(ds, col, multiplier)
	if err != nil {
		return nil, nil, err
	}
	if len(rep.IDs) == 0 {
		return ds, rep, nil
	}
	lo, hi := rep.Bounds.Lower, rep.Bounds.Upper
	if col.IsWhole() {
		// With a zero IQR on a fractional quartile no whole number fits; keep the raw bounds.
		if l, h := math.Ceil(lo), math.Floor(hi); l <= h {
			lo, hi = l, h
		}
	}
	out := ds.Derive(func(r *student.Row) {
		v, ok := r.Value(col)
		if !ok || rep.Bounds.Contains(v) {
			return
		}
		r.SetValue(col, math.Min(math.Max(v, lo), hi))
	})
	return out, rep, nil
}

// RemoveOutliers drops the rows flagged on col. Rows missing col are kept.
func RemoveOutliers(ds *student.Dataset, col student.Column, multiplier float64) (*student.Dataset, *OutlierReport, error) {
	rep, err := DetectOutliers(ds, col, multiplier)
	if err != nil {
		return nil, nil, err
	}
	if len(rep.IDs) == 0 {
		return ds, rep, nil
	}
	drop := make(map[int64]bool, len(rep.IDs))
	for _, id := range rep.IDs {
		drop[id] = true
	}
	return ds.Filter(func(r student.Row) bool { return !drop[r.ID] }), rep, nil
}
