package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/analysis"
)

var (
	sumSource source
	sumTuning tuning
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Per-group counts with mean and median GPA, credits, BMI and age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := sumTuning.options(cmd)
		if err != nil {
			return err
		}
		res, err := run(cmd, &sumSource, opt)
		if err != nil {
			return err
		}
		if len(res.Summary) == 0 {
			fmt.Println("(no students)")
			return nil
		}
		fmt.Printf("%-16s %5s", strings.ToUpper(string(opt.GroupBy)), "N")
		for _, c := range analysis.SummaryColumns {
			fmt.Printf(" %9s %9s", string(c)+"_avg", string(c)+"_med")
		}
		fmt.Println()
		for _, g := range res.Summary {
			fmt.Printf("%-16s %5d", clip(g.Key, 16), g.Count)
			for _, c := range analysis.SummaryColumns {
				m := g.Metrics[c]
				if !m.Valid() {
					fmt.Printf(" %9s %9s", "no data", "no data")
					continue
				}
				fmt.Printf(" %9.2f %9.2f", m.Mean, m.Median)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	f := summaryCmd.Flags()
	sumSource.register(summaryCmd)
	f.StringVarP(&sumTuning.groupBy, "group-by", "g", "major", "group field: gender|major|class_id|province")
	f.StringVar(&sumTuning.refDate, "reference-date", "", "date ages are computed at, YYYY-MM-DD (default: today)")
}
