package analysis

import (
	"sort"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// SummaryColumns are the columns reported per group.
var SummaryColumns = []student.Column{student.ColGPA, student.ColCredits, student.ColBMI, student.ColAge}

// Metric summarizes one column inside one group. N == 0 means "no data";
// Mean and Median are meaningless then and must not be read as zero.
type Metric struct {
	N      int
	Mean   float64
	Median float64
}

// Valid reports whether the metric was computed from at least one value.
func (m Metric) Valid() bool { return m.N > 0 }

// GroupSummary is one row of SummaryByGroup.
type GroupSummary struct {
	Key     string
	Count   int
	Metrics map[student.Column]Metric
}

// SummaryByGroup returns one summary per distinct value of field, sorted by key.
func SummaryByGroup(ds *student.Dataset, field student.GroupField) ([]GroupSummary, error) {
	keys, groups, err := ds.Partition(field)
	if err != nil {
		return nil, err
	}
	out := make([]GroupSummary, 0, len(keys))
	for _, k := range keys {
		idxs := groups[k]
		gs := GroupSummary{Key: k, Count: len(idxs), Metrics: make(map[student.Column]Metric, len(SummaryColumns))}
		for _, c := range SummaryColumns {
			var vals []float64
			for _, i := range idxs {
				if v, ok := ds.Row(i).Value(c); ok {
					vals = append(vals, v)
				}
			}
			m := Metric{N: len(vals)}
			if mu, ok := mean(vals); ok {
				m.Mean = mu
				m.Median, _ = median(vals)
			}
			gs.Metrics[c] = m
		}
		out = append(out, gs)
	}
	return out, nil
}

// GroupTop holds the best-ranked rows of one group.
type GroupTop struct {
	Key  string
	Rows []student.Row
}

// TopKPerGroup ranks rows with a GPA inside each group by GPA desc, credits desc
// (missing credits last) and student_id asc, keeping at most k per group.
func TopKPerGroup(ds *student.Dataset, field student.GroupField, k int) ([]GroupTop, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	keys, groups, err := ds.Partition(field)
	if err != nil {
		return nil, err
	}
	out := make([]GroupTop, 0, len(keys))
	for _, key := range keys {
		var rows []student.Row
		for _, i := range groups[key] {
			r := ds.Row(i)
			if _, ok := r.Value(student.ColGPA); ok {
				rows = append(rows, r)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool { return rankBefore(rows[i], rows[j]) })
		if len(rows) > k {
			rows = rows[:k]
		}
		out = append(out, GroupTop{Key: key, Rows: rows})
	}
	return out, nil
}

func rankBefore(a, b student.Row) bool {
	ga, _ := a.Value(student.ColGPA)
	gb, _ := b.Value(student.ColGPA)
	if ga != gb {
		return ga > gb
	}
	ca, okA := a.Value(student.ColCredits)
	cb, okB := b.Value(student.ColCredits)
	if okA != okB {
		return okA
	}
	if okA && ca != cb {
		return ca > cb
	}
	return a.ID < b.ID
}
