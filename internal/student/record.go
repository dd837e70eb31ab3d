package student

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidRecord is returned (wrapped) when a record carries a malformed value.
var ErrInvalidRecord = errors.New("invalid student record")

// Record is a single student row as stored by the backing store.
// Numeric fields are pointers; nil means the value is missing.
type Record struct {
	ID             int64      `json:"student_id"`
	FullName       string     `json:"full_name"`
	DOB            time.Time  `json:"dob"`
	Gender         string     `json:"gender"`
	Major          string     `json:"major"`
	ClassID        string     `json:"class_id"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	GPA            *float64   `json:"gpa,omitempty"`
	Credits        *int       `json:"credits,omitempty"`
	HeightCm       *float64   `json:"height_cm,omitempty"`
	WeightKg       *float64   `json:"weight_kg,omitempty"`
	Province       string     `json:"province,omitempty"`
	EnrollmentDate *time.Time `json:"enrollment_date,omitempty"`
}

// Validate rejects values the analytics core cannot work with. It never coerces.
func (r Record) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: student_id must be positive, got %d", ErrInvalidRecord, r.ID)
	}
	if r.Gender != "M" && r.Gender != "F" {
		return fmt.Errorf("%w: student %d: gender must be 'M' or 'F', got %q", ErrInvalidRecord, r.ID, r.Gender)
	}
	if r.GPA != nil {
		if g := *r.GPA; math.IsNaN(g) || g < 0 || g > 4 {
			return fmt.Errorf("%w: student %d: gpa must be between 0.0 and 4.0, got %v", ErrInvalidRecord, r.ID, g)
		}
	}
	if r.Credits != nil && *r.Credits < 0 {
		return fmt.Errorf("%w: student %d: credits must not be negative, got %d", ErrInvalidRecord, r.ID, *r.Credits)
	}
	if err := positive("height_cm", r.HeightCm); err != nil {
		return fmt.Errorf("%w: student %d: %v", ErrInvalidRecord, r.ID, err)
	}
	if err := positive("weight_kg", r.WeightKg); err != nil {
		return fmt.Errorf("%w: student %d: %v", ErrInvalidRecord, r.ID, err)
	}
	if !r.DOB.IsZero() && !IsDate(r.DOB) {
		return fmt.Errorf("%w: student %d: dob must be a UTC calendar date, got %s", ErrInvalidRecord, r.ID, r.DOB.Format(time.RFC3339))
	}
	if r.EnrollmentDate != nil && !IsDate(*r.EnrollmentDate) {
		return fmt.Errorf("%w: student %d: enrollment_date must be a UTC calendar date, got %s", ErrInvalidRecord, r.ID, r.EnrollmentDate.Format(time.RFC3339))
	}
	return nil
}

// IsDate reports whether t is midnight UTC, the only form dates are stored in.
func IsDate(t time.Time) bool {
	return t.Location() == time.UTC && t.Equal(Date(t.Year(), t.Month(), t.Day()))
}

func positive(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("%s must be a positive number, got %v", name, *v)
	}
	return nil
}

// Clone returns a deep copy so pointer fields are never shared between datasets.
func (r Record) Clone() Record {
	out := r
	out.GPA = copyFloat(r.GPA)
	out.HeightCm = copyFloat(r.HeightCm)
	out.WeightKg = copyFloat(r.WeightKg)
	if r.Credits != nil {
		c := *r.Credits
		out.Credits = &c
	}
	if r.EnrollmentDate != nil {
		d := *r.EnrollmentDate
		out.EnrollmentDate = &d
	}
	return out
}

// Equal reports whether two records hold the same 14 field values.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID &&
		r.FullName == o.FullName &&
		r.DOB.Equal(o.DOB) &&
		r.Gender == o.Gender &&
		r.Major == o.Major &&
		r.ClassID == o.ClassID &&
		r.Email == o.Email &&
		r.Phone == o.Phone &&
		eqFloat(r.GPA, o.GPA) &&
		eqInt(r.Credits, o.Credits) &&
		eqFloat(r.HeightCm, o.HeightCm) &&
		eqFloat(r.WeightKg, o.WeightKg) &&
		r.Province == o.Province &&
		eqTime(r.EnrollmentDate, o.EnrollmentDate)
}

// GroupValue returns the categorical value used to partition by field.
func (r Record) GroupValue(field GroupField) (string, error) {
	switch field {
	case GroupGender:
		return r.Gender, nil
	case GroupMajor:
		return r.Major, nil
	case GroupClass:
		return r.ClassID, nil
	case GroupProvince:
		return r.Province, nil
	default:
		return "", fmt.Errorf("unknown group field %q", field)
	}
}

// Float returns a pointer to v. Handy for building records in code and tests.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Date builds a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseGroupField resolves a user-supplied group field name.
func ParseGroupField(s string) (GroupField, error) {
	f := GroupField(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case GroupGender, GroupMajor, GroupClass, GroupProvince:
		return f, nil
	case "class":
		return GroupClass, nil
	}
	return "", fmt.Errorf("unknown group field %q (use gender|major|class_id|province)", s)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
