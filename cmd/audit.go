package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/analysis"
)

var audSource source

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check stored data for missing values and implausible measurements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, name, err := audSource.load(cmd.Context())
		if err != nil {
			return err
		}
		rep := analysis.Audit(ds)
		fmt.Printf("Source: %s\n", name)
		fmt.Print(rep.Markdown())
		if rep.Clean() {
			fmt.Println("✓ No issues found")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	audSource.register(auditCmd)
}
