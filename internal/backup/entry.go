package backup

import (
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// Entry is a snapshot of a deleted student, kept so the delete can be undone.
// Entries are created once by Coordinator.Delete and never modified.
type Entry struct {
	ID        string         `json:"id"`
	Record    student.Record `json:"record"`
	DeletedAt time.Time      `json:"deleted_at"`
}

func newEntry(rec student.Record, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Record:    rec.Clone(),
		DeletedAt: at,
	}
}

// StudentID returns the id of the snapshotted student.
func (e Entry) StudentID() int64 { return e.Record.ID }

func (e Entry) clone() Entry {
	e.Record = e.Record.Clone()
	return e
}
