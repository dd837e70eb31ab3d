package analysis

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// heights [10,10,10,12,13,14,15,16,100] on ids 1..9, plus id 10 without a height.
func skewedHeights(t *testing.T) *student.Dataset {
	t.Helper()
	vals := []float64{10, 10, 10, 12, 13, 14, 15, 16, 100}
	recs := make([]student.Record, 0, len(vals)+1)
	for i, v := range vals {
		recs = append(recs, withHeight(rec(int64(i+1), "F", "CS"), v))
	}
	recs = append(recs, rec(10, "M", "CS"))
	return mustDataset(t, recs...)
}

func TestBoundsLinearInterpolation(t *testing.T) {
	b, err := Bounds(skewedHeights(t), student.ColHeightCm, 1.5)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if b.Q1 != 10 || b.Q3 != 15 || b.IQR != 5 {
		t.Fatalf("quartiles = %v/%v iqr %v, want 10/15 iqr 5", b.Q1, b.Q3, b.IQR)
	}
	if b.Lower != 2.5 || b.Upper != 22.5 {
		t.Fatalf("bounds = [%v, %v], want [2.5, 22.5]", b.Lower, b.Upper)
	}
	if b.N != 9 {
		t.Fatalf("n = %d, want 9 (missing excluded)", b.N)
	}
}

func TestDetectOutliersFlagsExtremeValue(t *testing.T) {
	ds := skewedHeights(t)
	rep, err := DetectOutliers(ds, student.ColHeightCm, 1.5)
	if err != nil {
		t.Fatalf("DetectOutliers: %v", err)
	}
	if len(rep.IDs) != 1 || rep.IDs[0] != 9 {
		t.Fatalf("ids = %v, want [9]", rep.IDs)
	}
	// upper = 15 + 17*5 = 100: a value on the bound is not an outlier.
	rep, err = DetectOutliers(ds, student.ColHeightCm, 17)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.IDs) != 0 {
		t.Fatalf("ids = %v, want none at inclusive bound", rep.IDs)
	}
}

func TestDetectOutliersMonotoneInMultiplier(t *testing.T) {
	ds := skewedHeights(t)
	ms := []float64{0.1, 0.5, 1.0, 1.5, 2.0, 3.0, 10, 20}
	var prev map[int64]bool
	for _, m := range ms {
		rep, err := DetectOutliers(ds, student.ColHeightCm, m)
		if err != nil {
			t.Fatalf("m=%v: %v", m, err)
		}
		cur := map[int64]bool{}
		for _, id := range rep.IDs {
			cur[id] = true
			if prev != nil && !prev[id] {
				t.Fatalf("m=%v flags %d which a smaller multiplier did not", m, id)
			}
		}
		prev = cur
	}
}

func TestDetectOutliersRejectsBadMultiplier(t *testing.T) {
	for _, m := range []float64{0, -1.5} {
		if _, err := DetectOutliers(skewedHeights(t), student.ColHeightCm, m); !errors.Is(err, ErrInvalidMultiplier) {
			t.Fatalf("m=%v: err = %v, want ErrInvalidMultiplier", m, err)
		}
	}
}

func TestDetectOutliersEmptyColumn(t *testing.T) {
	ds := skewedHeights(t)
	if _, err := Bounds(ds, student.ColWeightKg, 1.5); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Bounds err = %v, want ErrInsufficientData", err)
	}
	rep, err := DetectOutliers(ds, student.ColWeightKg, 1.5)
	if err != nil {
		t.Fatalf("DetectOutliers: %v", err)
	}
	if len(rep.IDs) != 0 || len(rep.Diagnostics) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if _, err := DetectOutliers(ds, student.ColBMI, 1.5); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn before bmi is derived", err)
	}
}

func TestCapOutliersClampsToBounds(t *testing.T) {
	ds := skewedHeights(t)
	out, rep, err := CapOutliers(ds, student.ColHeightCm, 1.5)
	if err != nil {
		t.Fatalf("CapOutliers: %v", err)
	}
	if len(rep.IDs) != 1 {
		t.Fatalf("ids = %v", rep.IDs)
	}
	if v, _ := value(t, out, 9, student.ColHeightCm); v != 22.5 {
		t.Fatalf("capped = %v, want 22.5", v)
	}
	if v, _ := value(t, ds, 9, student.ColHeightCm); v != 100 {
		t.Fatalf("input changed to %v", v)
	}
	if out.Len() != ds.Len() {
		t.Fatalf("capping changed row count")
	}
}

func withCredits(r student.Record, c int) student.Record {
	r.Credits = student.Int(c)
	return r
}

func creditsDataset(t *testing.T, vals ...int) *student.Dataset {
	t.Helper()
	recs := make([]student.Record, len(vals))
	for i, v := range vals {
		recs[i] = withCredits(rec(int64(i+1), "F", "CS"), v)
	}
	return mustDataset(t, recs...)
}

func TestCapOutliersKeepsWholeNumbersInsideBounds(t *testing.T) {
	// Q1 10.75, Q3 12.25: bounds [8.5, 14.5] at m = 1.5.
	ds := creditsDataset(t, 10, 10, 11, 11, 12, 12, 13, 100)
	out, rep, err := CapOutliers(ds, student.ColCredits, 1.5)
	if err != nil {
		t.Fatalf("CapOutliers: %v", err)
	}
	if rep.Bounds.Lower != 8.5 || rep.Bounds.Upper != 14.5 {
		t.Fatalf("bounds = [%v, %v], want [8.5, 14.5]", rep.Bounds.Lower, rep.Bounds.Upper)
	}
	if v, _ := value(t, out, 8, student.ColCredits); v != 14 {
		t.Fatalf("capped credits = %v, want 14", v)
	}
	if !rep.Bounds.Contains(14) {
		t.Fatalf("capped value outside bounds")
	}
	again, err := DetectOutliers(out, student.ColCredits, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.IDs) != 0 {
		t.Fatalf("still flagged after capping: %v", again.IDs)
	}

	// Q1 10, Q3 12: bounds [7.5, 14.5] at m = 1.25.
	low := creditsDataset(t, 1, 10, 10, 11, 11, 12, 12, 13)
	out, rep, err = CapOutliers(low, student.ColCredits, 1.25)
	if err != nil {
		t.Fatalf("CapOutliers: %v", err)
	}
	if len(rep.IDs) != 1 || rep.IDs[0] != 1 {
		t.Fatalf("ids = %v, want [1]", rep.IDs)
	}
	if v, _ := value(t, out, 1, student.ColCredits); v != 8 {
		t.Fatalf("capped credits = %v, want 8", v)
	}
}

func TestRemoveOutliersDropsFlaggedRows(t *testing.T) {
	ds := skewedHeights(t)
	out, rep, err := RemoveOutliers(ds, student.ColHeightCm, 1.5)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if len(rep.IDs) != 1 || rep.IDs[0] != 9 {
		t.Fatalf("ids = %v, want [9]", rep.IDs)
	}
	if out.Len() != ds.Len()-1 {
		t.Fatalf("len = %d, want %d", out.Len(), ds.Len()-1)
	}
	if _, ok := out.Get(9); ok {
		t.Fatalf("row 9 kept")
	}
	if _, ok := out.Get(10); !ok {
		t.Fatalf("row without a height was dropped")
	}
	if ds.Len() != 10 {
		t.Fatalf("input changed")
	}

	same, rep, err := RemoveOutliers(ds, student.ColHeightCm, 17)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.IDs) != 0 || same.Len() != ds.Len() {
		t.Fatalf("nothing should be removed at m = 17: %v", rep.IDs)
	}
}
