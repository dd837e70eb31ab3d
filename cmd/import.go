package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/ingest"
	"github.com/KaramelBytes/studentlens/internal/store"
)

var (
	impSheet     string
	impMaxRows   int
	impDelimiter string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import students from a CSV/TSV/XLSX file into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := ingest.Options{Sheet: impSheet, MaxRows: impMaxRows}
		switch impDelimiter {
		case "":
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", impDelimiter)
		}
		b, err := ingest.ReadFile(args[0], opt)
		if err != nil {
			return err
		}
		for _, re := range b.Rejected {
			fmt.Printf("⚠ Warning: %s %v\n", b.Source, re)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var inserted, conflicts int
		for _, rec := range b.Records {
			err := st.Insert(cmd.Context(), rec)
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, store.ErrConflict):
				conflicts++
				logger.Info("student already stored, skipped", "student_id", rec.ID)
			default:
				return fmt.Errorf("import student %d: %w", rec.ID, err)
			}
		}
		fmt.Printf("✓ Imported %d student(s) from %s into %s\n", inserted, b.Source, st.Path())
		if conflicts > 0 {
			fmt.Printf("⚠ Warning: %d student(s) already existed and were skipped\n", conflicts)
		}
		if len(b.Rejected) > 0 {
			fmt.Printf("⚠ Warning: %d invalid row(s) rejected\n", len(b.Rejected))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&impSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	importCmd.Flags().IntVar(&impMaxRows, "max-rows", 0, "limit rows read (0 = all)")
	importCmd.Flags().StringVar(&impDelimiter, "delimiter", "", "CSV delimiter: ',', ';', 'tab' (default: by extension)")
}
