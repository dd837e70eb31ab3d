package analysis

import (
	"fmt"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// ImputeRule fills missing values of Target with the median of its GroupBy partition.
type ImputeRule struct {
	Target  student.Column     `mapstructure:"target" yaml:"target"`
	GroupBy student.GroupField `mapstructure:"group_by" yaml:"group_by"`
}

// DefaultImputeRules groups physical measurements by gender and academic ones by major.
func DefaultImputeRules() []ImputeRule {
	return []ImputeRule{
		{Target: student.ColHeightCm, GroupBy: student.GroupGender},
		{Target: student.ColWeightKg, GroupBy: student.GroupGender},
		{Target: student.ColGPA, GroupBy: student.GroupMajor},
		{Target: student.ColCredits, GroupBy: student.GroupMajor},
	}
}

// Impute returns a new dataset where, for every rule, missing Target values are
// replaced by the median of the non-missing values sharing the same GroupBy value.
// A group without any value falls back to the dataset-wide median; when the whole
// column is empty the values stay missing and a diagnostic is returned.
func Impute(ds *student.Dataset, rules []ImputeRule) (*student.Dataset, []Diagnostic, error) {
	var diags []Diagnostic
	cur := ds
	for _, rule := range rules {
		if err := requireColumn(cur, rule.Target); err != nil {
			return nil, nil, err
		}
		fills, d, err := groupMedians(cur, rule)
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, d...)
		if len(fills) == 0 {
			continue
		}
		target := rule.Target
		cur = cur.Derive(func(r *student.Row) {
			if _, ok := r.Value(target); ok {
				return
			}
			if v, ok := fills[r.ID]; ok {
				r.SetValue(target, v)
			}
		})
	}
	return cur, diags, nil
}

// groupMedians computes the fill value for every row missing rule.Target.
func groupMedians(ds *student.Dataset, rule ImputeRule) (map[int64]float64, []Diagnostic, error) {
	keys, groups, err := ds.Partition(rule.GroupBy)
	if err != nil {
		return nil, nil, err
	}
	_, all := ds.Values(rule.Target)
	global, hasGlobal := median(all)

	fills := make(map[int64]float64)
	var diags []Diagnostic
	for _, k := range keys {
		var vals []float64
		var missing []int64
		for _, i := range groups[k] {
			r := ds.Row(i)
			if v, ok := r.Value(rule.Target); ok {
				vals = append(vals, v)
			} else {
				missing = append(missing, r.ID)
			}
		}
		if len(missing) == 0 {
			continue
		}
		fill, ok := median(vals)
		if !ok {
			if !hasGlobal {
				diags = append(diags, Diagnostic{
					Step:    "impute",
					Column:  rule.Target,
					Message: fmt.Sprintf("no values in dataset; %d missing value(s) in %s=%s left as is", len(missing), rule.GroupBy, k),
					Err:     ErrInsufficientData,
				})
				continue
			}
			fill = global
			diags = append(diags, Diagnostic{
				Step:    "impute",
				Column:  rule.Target,
				Message: fmt.Sprintf("no values in %s=%s; %d missing value(s) filled with the dataset median", rule.GroupBy, k, len(missing)),
				Count:   len(missing),
				Err:     ErrGroupFallback,
			})
		}
		for _, id := range missing {
			fills[id] = fill
		}
	}
	return fills, diags, nil
}

// MissingCounts reports how many rows lack a value for each column.
func MissingCounts(ds *student.Dataset, cols []student.Column) map[student.Column]int {
	out := make(map[student.Column]int, len(cols))
	for _, c := range cols {
		ids, _ := ds.Values(c)
		out[c] = ds.Len() - len(ids)
	}
	return out
}
