package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// field identifies one of the 14 student columns in an input header.
type field int

const (
	fID field = iota
	fName
	fDOB
	fGender
	fMajor
	fClass
	fEmail
	fPhone
	fGPA
	fCredits
	fHeight
	fWeight
	fProvince
	fEnrolled
	numFields
)

var fieldNames = [numFields]string{
	"student_id", "full_name", "dob", "gender", "major", "class_id", "email",
	"phone", "gpa", "credits", "height_cm", "weight_kg", "province", "enrollment_date",
}

// FieldNames returns the canonical header, in column order.
func FieldNames() []string {
	out := make([]string, numFields)
	copy(out, fieldNames[:])
	return out
}

var aliases = map[string]field{
	"student_id":      fID,
	"id":              fID,
	"studentid":       fID,
	"full_name":       fName,
	"name":            fName,
	"fullname":        fName,
	"dob":             fDOB,
	"date_of_birth":   fDOB,
	"birth_date":      fDOB,
	"birthday":        fDOB,
	"gender":          fGender,
	"sex":             fGender,
	"major":           fMajor,
	"class_id":        fClass,
	"class":           fClass,
	"email":           fEmail,
	"phone":           fPhone,
	"phone_number":    fPhone,
	"gpa":             fGPA,
	"credits":         fCredits,
	"credit":          fCredits,
	"height_cm":       fHeight,
	"height":          fHeight,
	"weight_kg":       fWeight,
	"weight":          fWeight,
	"province":        fProvince,
	"enrollment_date": fEnrolled,
	"enrolled":        fEnrolled,
	"enrolled_at":     fEnrolled,
}

var required = []field{fID, fName, fGender}

var (
	unitSuffix = regexp.MustCompile(`^(.*?)\s*[\(\[]\s*([^\)\]]+)\s*[\)\]]\s*$`) // Height (cm), Weight [kg]
	separators = regexp.MustCompile(`[\s\-\.]+`)
)

// normalizeHeader lower-cases a header cell, folds separators to '_' and
// merges a trailing unit such as "Height (cm)" into "height_cm".
func normalizeHeader(h string) string {
	s := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if m := unitSuffix.FindStringSubmatch(s); len(m) == 3 && m[1] != "" {
		s = m[1] + "_" + m[2]
	}
	s = strings.ToLower(separators.ReplaceAllString(s, "_"))
	return strings.Trim(s, "_")
}

// mapHeader returns, per input column, the field it carries (or -1).
func mapHeader(header []string) ([]field, error) {
	cols := make([]field, len(header))
	seen := map[field]int{}
	for i, h := range header {
		f, ok := aliases[normalizeHeader(h)]
		if !ok {
			cols[i] = -1
			continue
		}
		if prev, dup := seen[f]; dup {
			return nil, fmt.Errorf("columns %d and %d both map to %s", prev+1, i+1, fieldNames[f])
		}
		seen[f] = i
		cols[i] = f
	}
	var missing []string
	for _, f := range required {
		if _, ok := seen[f]; !ok {
			missing = append(missing, fieldNames[f])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "n/a", "nan", "null", "none", "-":
		return true
	}
	return false
}

// parseNumeric accepts both "1,234.5" and "1.234,5" style values.
func parseNumeric(s string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	dec, thou := '.', rune(0)
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		dec, thou = ',', '.'
	case cpos >= 0 && dpos >= 0:
		thou = ','
	case cpos >= 0:
		dec = ','
	}
	if thou != 0 {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	"2006-01-02", time.RFC3339, "2006/01/02", "02/01/2006", "2/1/2006",
	"2006-01-02 15:04:05", "2006-01-02 15:04", "02-01-2006",
}

// parseDate returns the civil date at UTC midnight. Day-first layouts win
// over month-first ones.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseGender(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "nam":
		return "M", true
	case "f", "female", "nữ", "nu":
		return "F", true
	}
	return "", false
}
