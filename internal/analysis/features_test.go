package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/KaramelBytes/studentlens/internal/student"
)

func TestAddBMI(t *testing.T) {
	a := withHeight(rec(1, "F", "CS"), 170)
	a.WeightKg = student.Float(65)
	b := withHeight(rec(2, "M", "CS"), 180)
	ds := mustDataset(t, a, b)

	out := AddBMI(ds)
	v, ok := value(t, out, 1, student.ColBMI)
	if !ok || math.Abs(v-65/(1.7*1.7)) > 1e-9 {
		t.Fatalf("bmi[1] = %v,%v", v, ok)
	}
	if _, ok := value(t, out, 2, student.ColBMI); ok {
		t.Fatalf("bmi fabricated without weight")
	}
	if h, _ := value(t, out, 1, student.ColHeightCm); h != 170 {
		t.Fatalf("base field altered: %v", h)
	}
}

func TestAddAgeFloorsWholeYears(t *testing.T) {
	a := rec(1, "F", "CS")
	a.DOB = student.Date(2000, 1, 1)
	b := rec(2, "M", "CS")
	b.DOB = student.Date(2000, 10, 2)
	c := rec(3, "M", "CS")
	c.DOB = time.Time{}
	ds := mustDataset(t, a, b, c)

	out := AddAge(ds, student.Date(2025, 10, 1))
	if v, _ := value(t, out, 1, student.ColAge); v != 25 {
		t.Fatalf("age[1] = %v, want 25", v)
	}
	if v, _ := value(t, out, 2, student.ColAge); v != 24 {
		t.Fatalf("age[2] = %v, want 24 (one day short)", v)
	}
	if _, ok := value(t, out, 3, student.ColAge); ok {
		t.Fatalf("age derived without date of birth")
	}
}

func TestAddZScore(t *testing.T) {
	var recs []student.Record
	for i, g := range []float64{1, 2, 3} {
		r := rec(int64(i+1), "F", "CS")
		r.GPA = student.Float(g)
		recs = append(recs, r)
	}
	recs = append(recs, rec(4, "M", "CS"))
	ds := mustDataset(t, recs...)

	out, diags, err := AddZScore(ds, student.ColGPA)
	if err != nil {
		t.Fatalf("AddZScore: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	want := map[int64]float64{1: -1, 2: 0, 3: 1}
	for id, w := range want {
		if v, ok := value(t, out, id, student.ZColumn(student.ColGPA)); !ok || math.Abs(v-w) > 1e-9 {
			t.Fatalf("z[%d] = %v,%v, want %v", id, v, ok, w)
		}
	}
	if _, ok := value(t, out, 4, student.ZColumn(student.ColGPA)); ok {
		t.Fatalf("z-score for missing gpa")
	}
}

func TestAddZScoreConstantColumnIsZero(t *testing.T) {
	var recs []student.Record
	for i := 1; i <= 4; i++ {
		r := rec(int64(i), "F", "CS")
		r.GPA = student.Float(3.0)
		recs = append(recs, r)
	}
	ds := mustDataset(t, recs...)
	out, diags, err := AddZScore(ds, student.ColGPA)
	if err != nil {
		t.Fatalf("AddZScore: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("diags = %v, want one zero-deviation note", diags)
	}
	for _, id := range out.IDs() {
		if v, ok := value(t, out, id, student.ZColumn(student.ColGPA)); !ok || v != 0 {
			t.Fatalf("z[%d] = %v,%v, want 0", id, v, ok)
		}
	}
}

func TestAddZScoreNoValues(t *testing.T) {
	ds := mustDataset(t, rec(1, "F", "CS"))
	out, diags, err := AddZScore(ds, student.ColGPA)
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || !errors.Is(diags[0].Err, ErrInsufficientData) {
		t.Fatalf("diags = %v", diags)
	}
	zc := student.ZColumn(student.ColGPA)
	if !out.HasColumn(zc) {
		t.Fatalf("z column not declared")
	}
	if _, ok := value(t, out, 1, zc); ok {
		t.Fatalf("z value set without input values")
	}
}
