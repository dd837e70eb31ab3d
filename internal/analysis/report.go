package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Input))
	if !r.Options.ReferenceDate.IsZero() {
		b.WriteString(fmt.Sprintf("Reference date: %s\n", r.Options.ReferenceDate.Format("2006-01-02")))
	}
	if r.Data != nil {
		cols := r.Data.DerivedColumns()
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = string(c)
		}
		b.WriteString(fmt.Sprintf("Derived columns: %s\n", strings.Join(names, ", ")))
	}

	if len(r.Options.ImputeRules) > 0 {
		b.WriteString("\n[IMPUTATION]\n")
		for _, rule := range r.Options.ImputeRules {
			n, fb := r.Imputed[rule.Target], r.Fallback[rule.Target]
			b.WriteString(fmt.Sprintf("- %s: %d value(s) filled with %s median", rule.Target, n-fb, rule.GroupBy))
			if fb > 0 {
				b.WriteString(fmt.Sprintf(", %d with dataset median", fb))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Outliers) > 0 {
		b.WriteString(fmt.Sprintf("\n[OUTLIERS] (IQR x %.2f)\n", r.Options.IQRMultiplier))
		switch {
		case r.Options.CapOutliers:
			b.WriteString("Flagged values were capped to the bounds before later columns were derived.\n")
		case r.Options.RemoveOutliers:
			b.WriteString(fmt.Sprintf("Flagged rows were removed: %d of %d.\n", r.Removed, r.Input))
		}
		for _, o := range r.Outliers {
			if o.Bounds.N == 0 {
				b.WriteString(fmt.Sprintf("- %s: no data\n", o.Bounds.Column))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %d outlier(s), bounds [%.4g, %.4g] (Q1 %.4g, Q3 %.4g)",
				o.Bounds.Column, len(o.IDs), o.Bounds.Lower, o.Bounds.Upper, o.Bounds.Q1, o.Bounds.Q3))
			if len(o.IDs) > 0 {
				b.WriteString(" — ids: ")
				b.WriteString(joinIDs(o.IDs, 12))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Summary) > 0 {
		b.WriteString(fmt.Sprintf("\n[GROUP SUMMARY] by %s\n", r.Options.GroupBy))
		b.WriteString("| group | n |")
		for _, c := range SummaryColumns {
			b.WriteString(fmt.Sprintf(" %s mean | %s median |", c, c))
		}
		b.WriteString("\n|---|---|")
		for range SummaryColumns {
			b.WriteString("---|---|")
		}
		b.WriteString("\n")
		for _, g := range r.Summary {
			b.WriteString(fmt.Sprintf("| %s | %d |", safeVal(g.Key), g.Count))
			for _, c := range SummaryColumns {
				m := g.Metrics[c]
				b.WriteString(fmt.Sprintf(" %s | %s |", fmtMetric(m, m.Mean), fmtMetric(m, m.Median)))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Top) > 0 {
		b.WriteString(fmt.Sprintf("\n[TOP %d PER %s]\n", r.Options.TopK, strings.ToUpper(string(r.Options.GroupBy))))
		for _, g := range r.Top {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", safeVal(g.Key), len(g.Rows)))
			for i, row := range g.Rows {
				gpa, _ := row.Value(student.ColGPA)
				credits := "n/a"
				if c, ok := row.Value(student.ColCredits); ok {
					credits = fmt.Sprintf("%.0f", c)
				}
				b.WriteString(fmt.Sprintf("  %d. #%d %s — gpa %.2f, credits %s\n", i+1, row.ID, safeVal(row.FullName), gpa, credits))
			}
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func fmtMetric(m Metric, v float64) string {
	if !m.Valid() {
		return "no data"
	}
	return fmt.Sprintf("%.2f", v)
}

func joinIDs(ids []int64, limit int) string {
	parts := make([]string, 0, limit+1)
	for i, id := range ids {
		if i == limit {
			parts = append(parts, fmt.Sprintf("… (+%d)", len(ids)-limit))
			break
		}
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
