package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/report"
)

var (
	anaSource source
	anaTuning tuning
	anaOutput string
	anaQuiet  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full pipeline: impute, derive features, flag outliers, summarize",
	Long: `Runs imputation, BMI/age/z-score features, IQR outlier detection, the per-group
summary and the top-k ranking. Output goes to stdout as Markdown, or to --output:
.csv writes the processed table, .xlsx a workbook, anything else Markdown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := anaTuning.options(cmd)
		if err != nil {
			return err
		}
		res, err := run(cmd, &anaSource, opt)
		if err != nil {
			return err
		}
		if anaOutput != "" {
			if err := report.Write(anaOutput, res); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote analysis of %d student(s) to %s\n", res.Data.Len(), anaOutput)
			if len(res.Warnings) > 0 {
				fmt.Printf("⚠ Warning: %d diagnostic(s), see the [NOTES] section or the log\n", len(res.Warnings))
			}
			if anaQuiet {
				return nil
			}
		}
		if anaOutput == "" || !anaQuiet {
			fmt.Print(res.Markdown())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	f := analyzeCmd.Flags()
	anaSource.register(analyzeCmd)
	f.StringVarP(&anaOutput, "output", "o", "", "write the result to a .md, .csv or .xlsx file")
	f.BoolVarP(&anaQuiet, "quiet", "q", false, "with --output, do not also print the report")
	f.StringVar(&anaTuning.groupBy, "group-by", "major", "group field: gender|major|class_id|province")
	f.IntVarP(&anaTuning.topK, "top-k", "k", 3, "students ranked per group")
	f.Float64Var(&anaTuning.iqr, "iqr", 1.5, "IQR multiplier for outlier bounds")
	f.StringVar(&anaTuning.refDate, "reference-date", "", "date ages are computed at, YYYY-MM-DD (default: today)")
	f.StringSliceVar(&anaTuning.zscoreCols, "zscore-cols", nil, "columns to standardize (default from config)")
	f.StringSliceVar(&anaTuning.outlierCols, "outlier-cols", nil, "columns checked for outliers (default from config)")
	f.BoolVar(&anaTuning.capOutliers, "cap-outliers", false, "clamp outlier values to the IQR bounds")
	f.BoolVar(&anaTuning.removeOut, "remove-outliers", false, "drop rows flagged on any outlier column (reduces the sample)")
}
