package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// Plausibility ranges for physical measurements. Values outside are counted, not rejected.
const (
	MinHeightCm = 100.0
	MaxHeightCm = 250.0
	MinWeightKg = 30.0
	MaxWeightKg = 200.0
)

// AuditReport counts suspicious and missing values in a dataset.
type AuditReport struct {
	Rows          int
	Missing       map[student.Column]int
	HeightOutside []int64
	WeightOutside []int64
	NoDOB         []int64
}

// Audit checks a dataset against plausibility ranges.
func Audit(ds *student.Dataset) AuditReport {
	rep := AuditReport{Rows: ds.Len(), Missing: MissingCounts(ds, student.BaseColumns)}
	for _, r := range ds.Rows() {
		if h, ok := r.Value(student.ColHeightCm); ok && (h < MinHeightCm || h > MaxHeightCm) {
			rep.HeightOutside = append(rep.HeightOutside, r.ID)
		}
		if w, ok := r.Value(student.ColWeightKg); ok && (w < MinWeightKg || w > MaxWeightKg) {
			rep.WeightOutside = append(rep.WeightOutside, r.ID)
		}
		if r.DOB.IsZero() {
			rep.NoDOB = append(rep.NoDOB, r.ID)
		}
	}
	return rep
}

// Clean reports whether nothing suspicious was found.
func (a AuditReport) Clean() bool {
	for _, n := range a.Missing {
		if n > 0 {
			return false
		}
	}
	return len(a.HeightOutside) == 0 && len(a.WeightOutside) == 0 && len(a.NoDOB) == 0
}

// Markdown renders the audit in the same section style as Result.
func (a AuditReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATA AUDIT]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", a.Rows))
	b.WriteString("\n[MISSING]\n")
	for _, c := range student.BaseColumns {
		pct := 0.0
		if a.Rows > 0 {
			pct = float64(a.Missing[c]) * 100 / float64(a.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", c, a.Missing[c], pct))
	}
	b.WriteString("\n[RANGE CHECKS]\n")
	b.WriteString(fmt.Sprintf("- height_cm outside [%.0f, %.0f]: %d\n", MinHeightCm, MaxHeightCm, len(a.HeightOutside)))
	b.WriteString(fmt.Sprintf("- weight_kg outside [%.0f, %.0f]: %d\n", MinWeightKg, MaxWeightKg, len(a.WeightOutside)))
	b.WriteString(fmt.Sprintf("- missing date of birth: %d\n", len(a.NoDOB)))
	return b.String()
}
