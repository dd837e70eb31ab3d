package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/KaramelBytes/studentlens/internal/student"
)

const daysPerYear = 365.25

// AddBMI derives bmi = weight_kg / (height_cm/100)^2. Rows missing either input get no bmi.
func AddBMI(ds *student.Dataset) *student.Dataset {
	out := ds.Derive(func(r *student.Row) {
		h, okH := r.Value(student.ColHeightCm)
		w, okW := r.Value(student.ColWeightKg)
		if !okH || !okW || h <= 0 {
			return
		}
		m := h / 100
		r.SetValue(student.ColBMI, w/(m*m))
	})
	return out.Declare(student.ColBMI)
}

// AddAge derives age in whole years at ref: floor(days/365.25). Rows without a
// date of birth get no age.
func AddAge(ds *student.Dataset, ref time.Time) *student.Dataset {
	refDay := civilDay(ref)
	out := ds.Derive(func(r *student.Row) {
		if r.DOB.IsZero() {
			return
		}
		days := refDay.Sub(civilDay(r.DOB)).Hours() / 24
		r.SetValue(student.ColAge, math.Floor(math.Round(days)/daysPerYear))
	})
	return out.Declare(student.ColAge)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddZScore derives z_<col> = (x - mean) / sd over the non-missing values of col.
// A constant column (zero or undefined sd) yields 0 for every value.
func AddZScore(ds *student.Dataset, col student.Column) (*student.Dataset, []Diagnostic, error) {
	if err := requireColumn(ds, col); err != nil {
		return nil, nil, err
	}
	zc := student.ZColumn(col)
	_, vals := ds.Values(col)
	if len(vals) == 0 {
		return ds.Declare(zc), []Diagnostic{{
			Step:    "zscore",
			Column:  col,
			Message: "no values; z-scores left missing",
			Err:     ErrInsufficientData,
		}}, nil
	}
	m, sd := meanStd(vals)
	var diags []Diagnostic
	flat := math.IsNaN(sd) || sd == 0
	if flat {
		diags = append(diags, Diagnostic{
			Step:    "zscore",
			Column:  col,
			Message: fmt.Sprintf("standard deviation is zero over %d value(s); z-scores set to 0", len(vals)),
		})
	}
	out := ds.Derive(func(r *student.Row) {
		x, ok := r.Value(col)
		if !ok {
			return
		}
		if flat {
			r.SetValue(zc, 0)
			return
		}
		r.SetValue(zc, (x-m)/sd)
	})
	return out, diags, nil
}

// AddZScores applies AddZScore for each column in turn.
func AddZScores(ds *student.Dataset, cols ...student.Column) (*student.Dataset, []Diagnostic, error) {
	var diags []Diagnostic
	cur := ds
	for _, c := range cols {
		next, d, err := AddZScore(cur, c)
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, d...)
		cur = next
	}
	return cur, diags, nil
}
