package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/backup"
	"github.com/KaramelBytes/studentlens/internal/store"
	"github.com/KaramelBytes/studentlens/internal/utils"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive shell for deleting students with undo",
	Long: `Opens an interactive shell on the database. Deleted students are kept in an
undo history (backup_capacity entries, oldest dropped first) for the lifetime of
the session. Type "help" for commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		s := newSession(cmd.Context(), st, os.Stdout, backup.WithCapacity(c.BackupCapacity), backup.WithLogger(logger))
		n, _ := st.Count(cmd.Context())
		fmt.Printf("StudentLens session on %s (%d students, undo history %d). Type help or quit.\n",
			st.Path(), n, s.coord.Capacity())
		return s.loop()
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

// session owns one coordinator; its undo history ends with the session.
type session struct {
	ctx   context.Context
	store store.Store
	coord *backup.Coordinator
	out   io.Writer
}

var sessionCommands = []string{"delete", "undo", "update", "backups", "show", "help", "quit", "exit"}

func newSession(ctx context.Context, st store.Store, out io.Writer, opts ...backup.Option) *session {
	return &session{ctx: ctx, store: st, coord: backup.NewCoordinator(st, opts...), out: out}
}

func (s *session) loop() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(in string) []string {
		var out []string
		for _, c := range sessionCommands {
			if strings.HasPrefix(c, strings.ToLower(in)) {
				out = append(out, c)
			}
		}
		return out
	})

	histPath := ""
	if dir, err := utils.DefaultDataDir(); err == nil {
		histPath = filepath.Join(dir, "session_history")
		if f, err := os.Open(histPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt("studentlens> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		quit, err := s.exec(input)
		if err != nil {
			fmt.Fprintln(s.out, "✗ Error:", err)
		}
		if quit {
			return nil
		}
	}
}

// exec runs one shell command. Errors are reported to the user and the
// shell keeps going; quit ends it.
func (s *session) exec(input string) (quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		if n := len(s.coord.Backups()); n > 0 {
			fmt.Fprintf(s.out, "⚠ Warning: %d deletion(s) can no longer be undone\n", n)
		}
		return true, nil
	case "help", "?":
		s.help()
	case "delete", "rm":
		if len(args) != 1 {
			return false, errors.New("usage: delete <student_id>")
		}
		id, err := parseStudentID(args[0])
		if err != nil {
			return false, err
		}
		e, err := s.coord.Delete(s.ctx, id)
		if err != nil {
			return false, describe(err)
		}
		fmt.Fprintf(s.out, "✓ Deleted #%d %s (undo: %s, history %d/%d)\n",
			id, e.Record.FullName, shortID(e.ID), len(s.coord.Backups()), s.coord.Capacity())
	case "undo":
		entries := s.coord.Backups()
		if len(entries) == 0 {
			return false, errors.New("nothing to undo")
		}
		entryID := entries[len(entries)-1].ID
		if len(args) > 0 {
			if entryID, err = resolveEntry(entries, args[0]); err != nil {
				return false, err
			}
		}
		rec, err := s.coord.Undo(s.ctx, entryID)
		if err != nil {
			return false, describe(err)
		}
		fmt.Fprintf(s.out, "✓ Restored #%d %s\n", rec.ID, rec.FullName)
	case "update", "edit":
		if len(args) < 2 {
			return false, errors.New("usage: update <student_id> <field=value>...")
		}
		id, err := parseStudentID(args[0])
		if err != nil {
			return false, err
		}
		u, ok := s.store.(store.Updater)
		if !ok {
			return false, errors.New("this database does not support updates")
		}
		rec, err := updateStudent(s.ctx, s.store, u, id, args[1:])
		if err != nil {
			return false, describe(err)
		}
		fmt.Fprintf(s.out, "✓ Updated #%d %s\n", rec.ID, rec.FullName)
	case "backups", "history":
		entries := s.coord.Backups()
		if len(entries) == 0 {
			fmt.Fprintln(s.out, "(no backups)")
			return false, nil
		}
		for i, e := range entries {
			fmt.Fprintf(s.out, "#%d  %s  student %d %-28s deleted %s\n",
				i+1, shortID(e.ID), e.StudentID(), clip(e.Record.FullName, 28), e.DeletedAt.Local().Format("15:04:05"))
		}
	case "show":
		if len(args) != 1 {
			return false, errors.New("usage: show <student_id>")
		}
		id, err := parseStudentID(args[0])
		if err != nil {
			return false, err
		}
		rec, err := s.store.FetchByID(s.ctx, id)
		if err != nil {
			return false, describe(err)
		}
		b, err := utils.PrettyJSON(rec)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, string(b))
	default:
		return false, fmt.Errorf("unknown command %q (type help)", cmd)
	}
	return false, nil
}

func (s *session) help() {
	fmt.Fprintln(s.out, `Commands:
  delete <id>        delete a student, keeping a backup
  undo [#n|entry]    restore the newest backup, or backup #n / entry id
  update <id> f=v..  change fields of a stored student (empty value clears)
  backups            list backups, oldest first
  show <id>          print a stored student
  help               this text
  quit               leave; backups are discarded`)
}

// resolveEntry accepts "#n" (1-based position in the backups list), a full
// entry id, or a unique prefix of one.
func resolveEntry(entries []backup.Entry, ref string) (string, error) {
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 1 || i > len(entries) {
			return "", fmt.Errorf("no backup %s (have %d)", ref, len(entries))
		}
		return entries[i-1].ID, nil
	}
	var match string
	for _, e := range entries {
		if e.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(e.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("backup id %q is ambiguous", ref)
			}
			match = e.ID
		}
	}
	if match == "" {
		// Let the coordinator report it as not found.
		return ref, nil
	}
	return match, nil
}

func parseStudentID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid student id %q", s)
	}
	return id, nil
}

// describe turns coordinator errors into messages for the shell.
func describe(err error) error {
	switch {
	case errors.Is(err, backup.ErrEntryNotFound):
		return fmt.Errorf("%w (already restored, or dropped from the undo history)", err)
	case errors.Is(err, store.ErrNotFound):
		return err
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w; the backup is kept, remove the existing student and retry", err)
	case store.IsStoreError(err):
		return fmt.Errorf("database failure, nothing changed: %w", err)
	}
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
