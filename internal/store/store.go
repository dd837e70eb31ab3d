package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/studentlens/internal/student"
)

var (
	// ErrNotFound means no student with the requested id exists.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a student with the same id already exists.
	ErrConflict = errors.New("conflict: student_id already exists")
)

// Error reports an infrastructure failure of the underlying store.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "store error"
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsStoreError reports whether err carries an infrastructure failure.
func IsStoreError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Store is the persistence collaborator consumed by the analytics core and the
// deletion coordinator.
type Store interface {
	// FetchAll returns every student in insertion order.
	FetchAll(ctx context.Context) (*student.Dataset, error)
	// FetchByID returns ErrNotFound when id is absent.
	FetchByID(ctx context.Context, id int64) (student.Record, error)
	// DeleteByID reports whether a row was removed.
	DeleteByID(ctx context.Context, id int64) (bool, error)
	// Insert returns ErrConflict when the id is already present.
	Insert(ctx context.Context, rec student.Record) error
}

// Updater is implemented by stores that can overwrite a stored student in place.
type Updater interface {
	// Update replaces every field of the student with rec.ID; ErrNotFound when absent.
	Update(ctx context.Context, rec student.Record) error
}
