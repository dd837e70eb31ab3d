package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/studentlens/internal/logging"
	"github.com/KaramelBytes/studentlens/internal/store"
	"github.com/KaramelBytes/studentlens/internal/student"
)

func fixedNow() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

func rec(id int64) student.Record {
	return student.Record{
		ID:       id,
		FullName: "Student " + string(rune('A'+id%26)),
		DOB:      student.Date(2003, 5, 20),
		Gender:   "M",
		Major:    "CS",
		ClassID:  "K22",
		Email:    "s@example.edu",
		GPA:      student.Float(3.0),
		Credits:  student.Int(72),
		HeightCm: student.Float(171),
		WeightKg: student.Float(64.5),
		Province: "Da Nang",
	}
}

func seeded(t *testing.T, n int) *store.Memory {
	t.Helper()
	recs := make([]student.Record, n)
	for i := range recs {
		recs[i] = rec(int64(i + 1))
	}
	m, err := store.NewMemory(recs...)
	require.NoError(t, err)
	return m
}

func newTestCoordinator(s store.Store) *Coordinator {
	return NewCoordinator(s, WithClock(fixedNow), WithLogger(logging.Discard()))
}

func TestDeleteThenUndoRestoresStudent(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, 10)
	c := newTestCoordinator(mem)
	before, err := mem.FetchByID(ctx, 7)
	require.NoError(t, err)

	e, err := c.Delete(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.StudentID())
	assert.Equal(t, fixedNow(), e.DeletedAt)
	assert.NotEmpty(t, e.ID)

	_, err = mem.FetchByID(ctx, 7)
	assert.ErrorIs(t, err, store.ErrNotFound)
	backups := c.Backups()
	require.Len(t, backups, 1)
	assert.Equal(t, int64(7), backups[0].StudentID())

	restored, err := c.Undo(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, restored.Equal(before))

	after, err := mem.FetchByID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, after.Equal(before), "restored record differs: %+v", after)
	assert.Empty(t, c.Backups())
}

func TestDeleteMissingStudent(t *testing.T) {
	c := newTestCoordinator(seeded(t, 2))
	_, err := c.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, store.IsStoreError(err))
	assert.Empty(t, c.Backups())
}

func TestElevenDeletesEvictFirst(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(seeded(t, 11))

	var entries []Entry
	for id := int64(1); id <= 11; id++ {
		e, err := c.Delete(ctx, id)
		require.NoError(t, err)
		entries = append(entries, e)
	}

	backups := c.Backups()
	require.Len(t, backups, DefaultCapacity)
	for i, b := range backups {
		assert.Equal(t, int64(i+2), b.StudentID())
	}

	_, err := c.Undo(ctx, entries[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.Equal(t, ids(backups), ids(c.Backups()), "failed undo changed the stack")
}

func TestUndoTwiceFails(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(seeded(t, 3))
	e, err := c.Delete(ctx, 2)
	require.NoError(t, err)
	_, err = c.Undo(ctx, e.ID)
	require.NoError(t, err)
	_, err = c.Undo(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUndoFromMiddleOfStack(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(seeded(t, 5))
	var mid Entry
	for id := int64(1); id <= 3; id++ {
		e, err := c.Delete(ctx, id)
		require.NoError(t, err)
		if id == 2 {
			mid = e
		}
	}
	_, err := c.Undo(ctx, mid.ID)
	require.NoError(t, err)
	got := c.Backups()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].StudentID())
	assert.Equal(t, int64(3), got[1].StudentID())
}

func TestUndoConflictKeepsEntry(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, 3)
	c := newTestCoordinator(mem)
	e, err := c.Delete(ctx, 3)
	require.NoError(t, err)

	// Someone re-creates the student before the undo.
	require.NoError(t, mem.Insert(ctx, rec(3)))

	_, err = c.Undo(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrConflict)
	require.Len(t, c.Backups(), 1)
	assert.Equal(t, e.ID, c.Backups()[0].ID)

	_, err = mem.DeleteByID(ctx, 3)
	require.NoError(t, err)
	_, err = c.Undo(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Backups())
}

// flakyStore fails selected operations with an infrastructure error.
type flakyStore struct {
	*store.Memory
	failFetch, failDelete, failInsert bool
	vanish                            bool
}

var errDisk = errors.New("disk I/O error")

func (f *flakyStore) FetchByID(ctx context.Context, id int64) (student.Record, error) {
	if f.failFetch {
		return student.Record{}, errDisk
	}
	return f.Memory.FetchByID(ctx, id)
}

func (f *flakyStore) DeleteByID(ctx context.Context, id int64) (bool, error) {
	if f.failDelete {
		return false, &store.Error{Op: "delete", Err: errDisk}
	}
	if f.vanish {
		return false, nil
	}
	return f.Memory.DeleteByID(ctx, id)
}

func (f *flakyStore) Insert(ctx context.Context, r student.Record) error {
	if f.failInsert {
		return errDisk
	}
	return f.Memory.Insert(ctx, r)
}

func TestStoreFailuresLeaveStackUntouched(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch", func(t *testing.T) {
		c := newTestCoordinator(&flakyStore{Memory: seeded(t, 2), failFetch: true})
		_, err := c.Delete(ctx, 1)
		assert.True(t, store.IsStoreError(err))
		assert.ErrorIs(t, err, errDisk)
		assert.Empty(t, c.Backups())
	})

	t.Run("delete", func(t *testing.T) {
		fs := &flakyStore{Memory: seeded(t, 2), failDelete: true}
		c := newTestCoordinator(fs)
		_, err := c.Delete(ctx, 1)
		assert.True(t, store.IsStoreError(err))
		assert.Empty(t, c.Backups())
		assert.Equal(t, 2, fs.Len())
	})

	t.Run("vanished between read and delete", func(t *testing.T) {
		c := newTestCoordinator(&flakyStore{Memory: seeded(t, 2), vanish: true})
		_, err := c.Delete(ctx, 1)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Empty(t, c.Backups())
	})

	t.Run("insert", func(t *testing.T) {
		fs := &flakyStore{Memory: seeded(t, 2)}
		c := newTestCoordinator(fs)
		e, err := c.Delete(ctx, 1)
		require.NoError(t, err)
		fs.failInsert = true
		_, err = c.Undo(ctx, e.ID)
		assert.True(t, store.IsStoreError(err))
		assert.Len(t, c.Backups(), 1)
	})
}

func TestConcurrentDeletesRespectCapacity(t *testing.T) {
	ctx := context.Background()
	mem := seeded(t, 40)
	c := NewCoordinator(mem, WithCapacity(5), WithLogger(logging.Discard()))

	var wg sync.WaitGroup
	for id := int64(1); id <= 40; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := c.Delete(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 0, mem.Len())
	assert.Len(t, c.Backups(), 5)
	assert.Equal(t, 5, c.Capacity())
}
