package student

import (
	"fmt"
	"strings"
)

// Column names a numeric column, either a base field or a derived feature.
type Column string

const (
	ColGPA      Column = "gpa"
	ColCredits  Column = "credits"
	ColHeightCm Column = "height_cm"
	ColWeightKg Column = "weight_kg"
	ColBMI      Column = "bmi"
	ColAge      Column = "age"
)

// BaseColumns are the numeric fields stored on Record.
var BaseColumns = []Column{ColGPA, ColCredits, ColHeightCm, ColWeightKg}

// ZColumn returns the derived column holding z-scores of c.
func ZColumn(c Column) Column { return Column("z_" + string(c)) }

// IsBase reports whether c is stored on Record rather than derived.
func (c Column) IsBase() bool {
	switch c {
	case ColGPA, ColCredits, ColHeightCm, ColWeightKg:
		return true
	}
	return false
}

// IsWhole reports whether c only holds whole numbers.
func (c Column) IsWhole() bool { return c == ColCredits }

// ParseColumn resolves a user-supplied column name. Derived names (bmi, age, z_*)
// are accepted; whether the dataset carries them is checked by the caller.
func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	if c.IsBase() || c == ColBMI || c == ColAge {
		return c, nil
	}
	if strings.HasPrefix(string(c), "z_") && len(c) > 2 {
		return c, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

// ParseColumns parses a list of names, stopping at the first bad one.
func ParseColumns(names []string) ([]Column, error) {
	out := make([]Column, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		c, err := ParseColumn(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GroupField names a categorical field used to partition a dataset.
type GroupField string

const (
	GroupGender   GroupField = "gender"
	GroupMajor    GroupField = "major"
	GroupClass    GroupField = "class_id"
	GroupProvince GroupField = "province"
)
