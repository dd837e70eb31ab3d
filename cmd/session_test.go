package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/studentlens/internal/backup"
	"github.com/KaramelBytes/studentlens/internal/logging"
	"github.com/KaramelBytes/studentlens/internal/store"
	"github.com/KaramelBytes/studentlens/internal/student"
)

func newTestSession(t *testing.T, n int, opts ...backup.Option) (*session, *store.Memory, *bytes.Buffer) {
	t.Helper()
	recs := make([]student.Record, n)
	for i := range recs {
		recs[i] = student.Record{
			ID:       int64(i + 1),
			FullName: "Student " + string(rune('A'+i)),
			Gender:   "F",
			Major:    "CS",
			GPA:      student.Float(3.0),
		}
	}
	mem, err := store.NewMemory(recs...)
	require.NoError(t, err)
	var out bytes.Buffer
	opts = append(opts, backup.WithLogger(logging.Discard()))
	return newSession(context.Background(), mem, &out, opts...), mem, &out
}

func runLine(t *testing.T, s *session, line string) error {
	t.Helper()
	quit, err := s.exec(line)
	require.False(t, quit, line)
	return err
}

func TestSessionDeleteUndo(t *testing.T) {
	s, mem, out := newTestSession(t, 10)
	require.NoError(t, runLine(t, s, "delete 7"))
	assert.Contains(t, out.String(), "✓ Deleted #7 Student G")
	assert.Equal(t, 9, mem.Len())

	require.NoError(t, runLine(t, s, "backups"))
	assert.Contains(t, out.String(), "student 7")

	require.NoError(t, runLine(t, s, "undo"))
	assert.Contains(t, out.String(), "✓ Restored #7")
	assert.Equal(t, 10, mem.Len())

	err := runLine(t, s, "undo")
	assert.EqualError(t, err, "nothing to undo")
}

func TestSessionUndoByPositionAndPrefix(t *testing.T) {
	s, _, _ := newTestSession(t, 5)
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, runLine(t, s, "delete "+id))
	}
	require.NoError(t, runLine(t, s, "undo #2"))
	entries := s.coord.Backups()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].StudentID())
	assert.Equal(t, int64(3), entries[1].StudentID())

	require.NoError(t, runLine(t, s, "undo "+entries[0].ID[:8]))
	assert.Len(t, s.coord.Backups(), 1)

	assert.Error(t, runLine(t, s, "undo #9"))
}

func TestSessionEvictedUndoIsNotFound(t *testing.T) {
	s, _, _ := newTestSession(t, 3, backup.WithCapacity(2))
	require.NoError(t, runLine(t, s, "delete 1"))
	first := s.coord.Backups()[0].ID
	require.NoError(t, runLine(t, s, "delete 2"))
	require.NoError(t, runLine(t, s, "delete 3"))

	err := runLine(t, s, "undo "+first)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "undo history")
	assert.Len(t, s.coord.Backups(), 2)
}

func TestSessionErrors(t *testing.T) {
	s, mem, _ := newTestSession(t, 2)
	assert.ErrorIs(t, runLine(t, s, "delete 42"), store.ErrNotFound)
	assert.Error(t, runLine(t, s, "delete abc"))
	assert.Error(t, runLine(t, s, "frobnicate"))

	require.NoError(t, runLine(t, s, "delete 1"))
	require.NoError(t, mem.Insert(context.Background(), student.Record{ID: 1, FullName: "Again", Gender: "M"}))
	err := runLine(t, s, "undo")
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Len(t, s.coord.Backups(), 1)
}

func TestSessionShowAndQuit(t *testing.T) {
	s, _, out := newTestSession(t, 2)
	require.NoError(t, runLine(t, s, "show 2"))
	assert.Contains(t, out.String(), `"student_id": 2`)

	require.NoError(t, runLine(t, s, "delete 1"))
	quit, err := s.exec("quit")
	require.NoError(t, err)
	assert.True(t, quit)
	assert.True(t, strings.Contains(out.String(), "1 deletion(s) can no longer be undone"))
}

func TestSessionUpdate(t *testing.T) {
	s, mem, out := newTestSession(t, 3)
	require.NoError(t, runLine(t, s, "update 2 gpa=3.75 major=EE"))
	assert.Contains(t, out.String(), "✓ Updated #2")

	got, err := mem.FetchByID(context.Background(), 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.75, *got.GPA, 1e-9)
	assert.Equal(t, "EE", got.Major)

	// A rejected edit leaves the stored record alone.
	assert.Error(t, runLine(t, s, "update 2 gpa=3.9 gender=X"))
	assert.Error(t, runLine(t, s, "update 2 gpa=4.5"))
	got, err = mem.FetchByID(context.Background(), 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.75, *got.GPA, 1e-9)

	assert.ErrorIs(t, runLine(t, s, "update 9 gpa=3"), store.ErrNotFound)
	assert.Error(t, runLine(t, s, "update 2"))
}
