package report

import (
	"strconv"
	"time"

	"github.com/KaramelBytes/studentlens/internal/student"
)

const dateLayout = "2006-01-02"

// BMICategory buckets a BMI value using the WHO adult cut-offs.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// Header returns the export columns for ds: the 14 student fields, then the
// derived columns in dataset order, then bmi_category when bmi is present.
func Header(ds *student.Dataset) []string {
	h := []string{
		"student_id", "full_name", "dob", "gender", "major", "class_id", "email",
		"phone", "gpa", "credits", "height_cm", "weight_kg", "province", "enrollment_date",
	}
	for _, c := range ds.DerivedColumns() {
		h = append(h, string(c))
	}
	if ds.HasColumn(student.ColBMI) {
		h = append(h, "bmi_category")
	}
	return h
}

// Cells renders one row in Header order. Missing values are empty strings.
func Cells(ds *student.Dataset, r student.Row) []string {
	out := []string{
		strconv.FormatInt(r.ID, 10),
		r.FullName,
		formatDate(r.DOB),
		r.Gender,
		r.Major,
		r.ClassID,
		r.Email,
		r.Phone,
		cell(r, student.ColGPA),
		cell(r, student.ColCredits),
		cell(r, student.ColHeightCm),
		cell(r, student.ColWeightKg),
		r.Province,
		"",
	}
	if r.EnrollmentDate != nil {
		out[13] = formatDate(*r.EnrollmentDate)
	}
	for _, c := range ds.DerivedColumns() {
		out = append(out, cell(r, c))
	}
	if ds.HasColumn(student.ColBMI) {
		cat := ""
		if v, ok := r.Value(student.ColBMI); ok {
			cat = BMICategory(v)
		}
		out = append(out, cat)
	}
	return out
}

func cell(r student.Row, c student.Column) string {
	v, ok := r.Value(c)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
