package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/ingest"
	"github.com/KaramelBytes/studentlens/internal/store"
	"github.com/KaramelBytes/studentlens/internal/student"
)

var updateCmd = &cobra.Command{
	Use:   "update <student_id> <field=value>...",
	Short: "Change fields of a stored student",
	Long: `Change one or more fields of a stored student. Values are parsed like import
cells (e.g. "gpa=3,6", "dob=15/08/2004"); an empty value clears an optional field:

  studentlens update 42 gpa=3.6 credits=110
  studentlens update 42 weight_kg=`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseStudentID(args[0])
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		rec, err := updateStudent(cmd.Context(), st, st, id, args[1:])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Updated student %d (%s)\n", rec.ID, rec.FullName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

// updateStudent applies field=value edits to a stored student and saves it.
// Nothing is written unless every edit parses and the result validates.
func updateStudent(ctx context.Context, st store.Store, u store.Updater, id int64, edits []string) (student.Record, error) {
	if len(edits) == 0 {
		return student.Record{}, errors.New("nothing to update (use field=value)")
	}
	rec, err := st.FetchByID(ctx, id)
	if err != nil {
		return student.Record{}, err
	}
	for _, e := range edits {
		name, val, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return student.Record{}, fmt.Errorf("invalid edit %q (use field=value)", e)
		}
		if err := ingest.SetField(&rec, name, val); err != nil {
			return student.Record{}, err
		}
	}
	if err := u.Update(ctx, rec); err != nil {
		return student.Record{}, err
	}
	logger.Debug("student updated", "student_id", id, "edits", len(edits))
	return rec, nil
}
