package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KaramelBytes/studentlens/internal/store"
	"github.com/KaramelBytes/studentlens/internal/student"
)

// ErrEntryNotFound means the entry was never created, already undone, or evicted.
// It matches store.ErrNotFound under errors.Is.
var ErrEntryNotFound = fmt.Errorf("backup entry %w", store.ErrNotFound)

// Coordinator deletes students with a backup and restores them on undo.
// All calls on one Coordinator are serialized.
type Coordinator struct {
	mu     sync.Mutex
	store  store.Store
	stack  *Stack
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCapacity bounds the number of undoable deletions.
func WithCapacity(n int) Option {
	return func(c *Coordinator) { c.stack = NewStack(n) }
}

// WithClock overrides the clock used for DeletedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger; nil keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator returns a coordinator with an empty backup stack over s.
func NewCoordinator(s store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  s,
		stack:  NewStack(DefaultCapacity),
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Delete snapshots student id, removes it from the store and pushes the
// snapshot. The stack is untouched unless the store delete succeeds.
func (c *Coordinator) Delete(ctx context.Context, id int64) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.store.FetchByID(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("delete student %d: %w", id, storeErr("fetch_by_id", err))
	}
	entry := newEntry(rec, c.now())

	ok, err := c.store.DeleteByID(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("delete student %d: %w", id, storeErr("delete", err))
	}
	if !ok {
		// Removed by someone else between the read and the delete.
		return Entry{}, fmt.Errorf("delete student %d: %w", id, store.ErrNotFound)
	}

	if evicted, dropped := c.stack.Push(entry); dropped {
		c.logger.Warn("backup evicted",
			"entry_id", evicted.ID,
			"student_id", evicted.StudentID(),
			"capacity", c.stack.Cap())
	}
	c.logger.Info("student deleted", "student_id", id, "entry_id", entry.ID, "backups", c.stack.Len())
	return entry.clone(), nil
}

// Undo re-inserts the snapshot of entryID and drops the entry. On Conflict the
// entry stays so the caller can retry after resolving it.
func (c *Coordinator) Undo(ctx context.Context, entryID string) (student.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.stack.Find(entryID)
	if !ok {
		return student.Record{}, fmt.Errorf("undo %s: %w", entryID, ErrEntryNotFound)
	}
	if err := c.store.Insert(ctx, entry.Record); err != nil {
		return student.Record{}, fmt.Errorf("undo student %d: %w", entry.StudentID(), storeErr("insert", err))
	}
	c.stack.Remove(entryID)
	c.logger.Info("student restored", "student_id", entry.StudentID(), "entry_id", entryID, "backups", c.stack.Len())
	return entry.Record, nil
}

// Backups returns the current entries, oldest first.
func (c *Coordinator) Backups() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack.Entries()
}

// Capacity returns the stack bound.
func (c *Coordinator) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack.Cap()
}

// storeErr passes the documented error kinds through and classifies anything
// else as a store failure.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrConflict), store.IsStoreError(err):
		return err
	default:
		return &store.Error{Op: op, Err: err}
	}
}
