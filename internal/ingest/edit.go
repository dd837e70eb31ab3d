package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// SetField parses raw with the same rules as file import and stores it in the
// field named name (any header alias is accepted). A blank value clears an
// optional field. The student id cannot be changed. The caller validates the
// resulting record.
func SetField(rec *student.Record, name, raw string) error {
	f, ok := aliases[normalizeHeader(name)]
	if !ok {
		return fmt.Errorf("unknown field %q (use one of: %s)", name, strings.Join(fieldNames[1:], ", "))
	}
	if f == fID {
		return fmt.Errorf("student_id cannot be changed")
	}
	v := strings.TrimSpace(raw)
	if isBlank(v) {
		return clearField(rec, f)
	}
	if err := assign(rec, f, v); err != nil {
		return fmt.Errorf("%s: %w", fieldNames[f], err)
	}
	return nil
}

func clearField(rec *student.Record, f field) error {
	switch f {
	case fName, fGender, fMajor:
		return fmt.Errorf("%s cannot be empty", fieldNames[f])
	case fDOB:
		rec.DOB = time.Time{}
	case fClass:
		rec.ClassID = ""
	case fEmail:
		rec.Email = ""
	case fPhone:
		rec.Phone = ""
	case fProvince:
		rec.Province = ""
	case fEnrolled:
		rec.EnrollmentDate = nil
	case fGPA:
		rec.GPA = nil
	case fCredits:
		rec.Credits = nil
	case fHeight:
		rec.HeightCm = nil
	case fWeight:
		rec.WeightKg = nil
	}
	return nil
}
