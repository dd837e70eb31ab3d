package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// Options controls a full analytics pass.
type Options struct {
	// ImputeRules are applied in order before any feature is derived.
	ImputeRules []ImputeRule
	// ReferenceDate anchors age computation. Zero means today.
	ReferenceDate time.Time
	// ZScoreColumns get a z_<col> feature each.
	ZScoreColumns []student.Column
	// OutlierColumns are checked with the IQR rule.
	OutlierColumns []student.Column
	// IQRMultiplier widens the quartile envelope; must be positive.
	IQRMultiplier float64
	// CapOutliers clamps OutlierColumns to their bounds after detection.
	CapOutliers bool
	// RemoveOutliers drops the rows flagged on any OutlierColumn.
	RemoveOutliers bool
	// GroupBy partitions the summary and the top-k ranking.
	GroupBy student.GroupField
	// TopK is the number of ranked records per group.
	TopK int
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ImputeRules:    DefaultImputeRules(),
		ZScoreColumns:  []student.Column{student.ColGPA, student.ColCredits, student.ColBMI, student.ColAge},
		OutlierColumns: []student.Column{student.ColGPA, student.ColCredits, student.ColHeightCm, student.ColWeightKg, student.ColBMI},
		IQRMultiplier:  1.5,
		GroupBy:        student.GroupMajor,
		TopK:           3,
	}
}

// Result is everything a presentation layer needs from one pass.
type Result struct {
	Name      string
	Input     int
	Removed   int
	Data      *student.Dataset
	Imputed   map[student.Column]int // values filled, per target
	Fallback  map[student.Column]int // of which from the dataset median
	Outliers  []*OutlierReport
	Summary   []GroupSummary
	Top       []GroupTop
	Options   Options
	Warnings  []Diagnostic
	Generated time.Time
}

// Validate checks the settings Run cannot degrade around.
func (o Options) Validate() error {
	if err := checkMultiplier(o.IQRMultiplier); err != nil {
		return err
	}
	if o.TopK < 1 {
		return fmt.Errorf("top-k: %w, got %d", ErrInvalidK, o.TopK)
	}
	if o.CapOutliers && o.RemoveOutliers {
		return ErrOutlierMode
	}
	return nil
}

// Run executes impute -> outliers on base columns -> bmi, age -> outliers on
// bmi/age -> z-scores -> outliers on z columns -> summary -> top-k. Capping or
// removing at each stage happens before the next stage derives from it.
// Missing data never fails the pass; it shows up in Warnings instead.
func Run(ds *student.Dataset, opt Options) (*Result, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if opt.GroupBy == "" {
		opt.GroupBy = student.GroupMajor
	}
	ref := opt.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
		opt.ReferenceDate = ref
	}

	res := &Result{Input: ds.Len(), Options: opt, Generated: time.Now()}

	targets := make([]student.Column, 0, len(opt.ImputeRules))
	for _, r := range opt.ImputeRules {
		targets = append(targets, r.Target)
	}
	before := MissingCounts(ds, targets)
	cur, diags, err := Impute(ds, opt.ImputeRules)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	res.Warnings = append(res.Warnings, diags...)
	after := MissingCounts(cur, targets)
	res.Imputed = make(map[student.Column]int, len(targets))
	for _, c := range targets {
		res.Imputed[c] = before[c] - after[c]
	}
	res.Fallback = make(map[student.Column]int)
	for _, d := range diags {
		if errors.Is(d.Err, ErrGroupFallback) {
			res.Fallback[d.Column] += d.Count
		}
	}

	stages := outlierStages(opt.OutlierColumns)
	if cur, err = res.handleOutliers(cur, stages[0]); err != nil {
		return nil, err
	}
	cur = AddBMI(cur)
	cur = AddAge(cur, ref)
	if cur, err = res.handleOutliers(cur, stages[1]); err != nil {
		return nil, err
	}
	cur, diags, err = AddZScores(cur, opt.ZScoreColumns...)
	if err != nil {
		return nil, fmt.Errorf("zscore: %w", err)
	}
	res.Warnings = append(res.Warnings, diags...)
	if cur, err = res.handleOutliers(cur, stages[2]); err != nil {
		return nil, err
	}
	sortReports(res.Outliers, opt.OutlierColumns)

	if res.Summary, err = SummaryByGroup(cur, opt.GroupBy); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	if res.Top, err = TopKPerGroup(cur, opt.GroupBy, opt.TopK); err != nil {
		return nil, fmt.Errorf("top-k: %w", err)
	}
	res.Removed = res.Input - cur.Len()
	res.Data = cur
	return res, nil
}

// outlierStages splits cols into base fields, bmi/age, and everything derived later.
func outlierStages(cols []student.Column) [3][]student.Column {
	var st [3][]student.Column
	for _, c := range cols {
		switch {
		case c.IsBase():
			st[0] = append(st[0], c)
		case c == student.ColBMI || c == student.ColAge:
			st[1] = append(st[1], c)
		default:
			st[2] = append(st[2], c)
		}
	}
	return st
}

func (res *Result) handleOutliers(cur *student.Dataset, cols []student.Column) (*student.Dataset, error) {
	opt := res.Options
	for _, c := range cols {
		var rep *OutlierReport
		var err error
		switch {
		case opt.CapOutliers:
			cur, rep, err = CapOutliers(cur, c, opt.IQRMultiplier)
		case opt.RemoveOutliers:
			cur, rep, err = RemoveOutliers(cur, c, opt.IQRMultiplier)
		default:
			rep, err = DetectOutliers(cur, c, opt.IQRMultiplier)
		}
		if err != nil {
			return nil, fmt.Errorf("outliers: %w", err)
		}
		res.Warnings = append(res.Warnings, rep.Diagnostics...)
		res.Outliers = append(res.Outliers, rep)
	}
	return cur, nil
}

// sortReports restores the configured column order after the staged passes.
func sortReports(reps []*OutlierReport, order []student.Column) {
	pos := make(map[student.Column]int, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		pos[order[i]] = i
	}
	sort.SliceStable(reps, func(i, j int) bool {
		return pos[reps[i].Bounds.Column] < pos[reps[j].Bounds.Column]
	})
}
