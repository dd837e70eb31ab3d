package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/student"
)

var (
	topSource source
	topTuning tuning
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Best students per group by GPA, then credits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := topTuning.options(cmd)
		if err != nil {
			return err
		}
		res, err := run(cmd, &topSource, opt)
		if err != nil {
			return err
		}
		if len(res.Top) == 0 {
			fmt.Println("(no students)")
			return nil
		}
		for _, g := range res.Top {
			fmt.Printf("%s = %s\n", opt.GroupBy, g.Key)
			if len(g.Rows) == 0 {
				fmt.Println("  (no ranked students)")
			}
			for i, r := range g.Rows {
				gpa, _ := r.Value(student.ColGPA)
				fmt.Printf("  %d. #%-6d %-28s gpa %.2f  credits %s\n", i+1, r.ID, clip(r.FullName, 28), gpa, optInt(r.Credits))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	f := topCmd.Flags()
	topSource.register(topCmd)
	f.StringVarP(&topTuning.groupBy, "group-by", "g", "major", "group field: gender|major|class_id|province")
	f.IntVarP(&topTuning.topK, "top-k", "k", 3, "students per group")
}
