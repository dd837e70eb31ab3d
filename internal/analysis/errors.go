package analysis

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/studentlens/internal/student"
)

var (
	// ErrInsufficientData means a statistic had no non-missing values to work from.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidMultiplier is returned for a non-positive or non-finite IQR multiplier.
	ErrInvalidMultiplier = errors.New("iqr multiplier must be a positive number")
	// ErrInvalidK is returned when top-k is asked for fewer than one record.
	ErrInvalidK = errors.New("k must be at least 1")
	// ErrUnknownColumn is returned when a column is neither a base field nor derived yet.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrGroupFallback marks imputations that used the dataset median because the
	// record's group had no values.
	ErrGroupFallback = errors.New("group has no values")
	// ErrOutlierMode is returned when outliers are asked to be both capped and removed.
	ErrOutlierMode = errors.New("cap_outliers and remove_outliers are mutually exclusive")
)

// Diagnostic is a warning-level note emitted when a step degrades instead of failing.
type Diagnostic struct {
	Step    string
	Column  student.Column
	Message string
	// Count is the number of values the note is about, when it is about some.
	Count int
	Err   error
}

func (d Diagnostic) String() string {
	if d.Column != "" {
		return fmt.Sprintf("%s(%s): %s", d.Step, d.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Step, d.Message)
}

func requireColumn(ds *student.Dataset, c student.Column) error {
	if !ds.HasColumn(c) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, c)
	}
	return nil
}

func isInsufficient(err error) bool { return errors.Is(err, ErrInsufficientData) }
