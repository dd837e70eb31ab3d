package analysis

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/studentlens/internal/student"
)

func ranked(id int64, major string, gpa *float64, credits *int) student.Record {
	r := rec(id, "F", major)
	r.GPA = gpa
	r.Credits = credits
	return r
}

func TestSummaryByGroupMarksNoData(t *testing.T) {
	ds := mustDataset(t,
		ranked(1, "CS", student.Float(3.0), nil),
		ranked(2, "CS", student.Float(4.0), nil),
		ranked(3, "EE", student.Float(2.0), student.Int(100)),
	)
	sum, err := SummaryByGroup(ds, student.GroupMajor)
	if err != nil {
		t.Fatalf("SummaryByGroup: %v", err)
	}
	if len(sum) != 2 || sum[0].Key != "CS" || sum[1].Key != "EE" {
		t.Fatalf("groups = %+v", sum)
	}
	cs := sum[0]
	if cs.Count != 2 {
		t.Fatalf("count = %d", cs.Count)
	}
	if m := cs.Metrics[student.ColGPA]; !m.Valid() || m.Mean != 3.5 || m.Median != 3.5 {
		t.Fatalf("gpa metric = %+v", m)
	}
	if m := cs.Metrics[student.ColCredits]; m.Valid() {
		t.Fatalf("credits should be no data, got %+v", m)
	}
	if m := cs.Metrics[student.ColBMI]; m.Valid() {
		t.Fatalf("bmi should be no data before derivation, got %+v", m)
	}
	if m := sum[1].Metrics[student.ColCredits]; !m.Valid() || m.Mean != 100 {
		t.Fatalf("EE credits = %+v", m)
	}
}

func TestTopKPerGroupOrdering(t *testing.T) {
	ds := mustDataset(t,
		ranked(1, "CS", student.Float(3.5), student.Int(100)),
		ranked(3, "CS", student.Float(3.5), student.Int(120)),
		ranked(2, "CS", student.Float(3.5), student.Int(120)),
		ranked(4, "CS", student.Float(3.9), nil),
		ranked(5, "CS", nil, student.Int(150)),
		ranked(6, "EE", student.Float(2.5), student.Int(60)),
	)
	top, err := TopKPerGroup(ds, student.GroupMajor, 3)
	if err != nil {
		t.Fatalf("TopKPerGroup: %v", err)
	}
	if got := ids(top[0].Rows); got != "4,2,3" {
		t.Fatalf("CS top = %s, want 4,2,3", got)
	}
	if got := ids(top[1].Rows); got != "6" {
		t.Fatalf("EE top = %s, want 6", got)
	}

	top, err = TopKPerGroup(ds, student.GroupMajor, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(top[0].Rows); got != "4,2,3,1" {
		t.Fatalf("CS top = %s, want all eligible without padding", got)
	}
}

func TestTopKRejectsZero(t *testing.T) {
	ds := mustDataset(t, ranked(1, "CS", student.Float(3), nil))
	if _, err := TopKPerGroup(ds, student.GroupMajor, 0); !errors.Is(err, ErrInvalidK) {
		t.Fatalf("err = %v, want ErrInvalidK", err)
	}
}

func ids(rows []student.Row) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.FormatInt(r.ID, 10)
	}
	return strings.Join(parts, ",")
}
