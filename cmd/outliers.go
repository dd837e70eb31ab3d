package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/student"
)

var (
	outSource source
	outTuning tuning
	outColumn string
)

var outliersCmd = &cobra.Command{
	Use:   "outliers",
	Short: "List students outside the IQR bounds of one column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := student.ParseColumn(outColumn)
		if err != nil {
			return err
		}
		opt, err := outTuning.options(cmd)
		if err != nil {
			return err
		}
		opt.OutlierColumns = []student.Column{col}
		res, err := run(cmd, &outSource, opt)
		if err != nil {
			return err
		}
		rep := res.Outliers[0]
		b := rep.Bounds
		if b.N == 0 {
			fmt.Printf("⚠ Warning: no %s values to compute bounds from\n", col)
			return nil
		}
		fmt.Printf("%s: Q1 %.4g, Q3 %.4g, IQR %.4g, bounds [%.4g, %.4g] (x %.2f, n=%d)\n",
			col, b.Q1, b.Q3, b.IQR, b.Lower, b.Upper, b.Multiplier, b.N)
		if len(rep.IDs) == 0 {
			fmt.Println("✓ No outliers")
			return nil
		}
		for _, id := range rep.IDs {
			row, _ := res.Data.Get(id)
			v, _ := row.Value(col)
			fmt.Printf("- #%d %s: %.4g\n", id, row.FullName, v)
		}
		fmt.Printf("%d outlier(s)\n", len(rep.IDs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	f := outliersCmd.Flags()
	outSource.register(outliersCmd)
	f.StringVarP(&outColumn, "column", "c", "gpa", "column to check (gpa, credits, height_cm, weight_kg, bmi, age, z_*)")
	f.Float64VarP(&outTuning.iqr, "multiplier", "m", 1.5, "IQR multiplier")
	f.StringVar(&outTuning.refDate, "reference-date", "", "date ages are computed at, YYYY-MM-DD (default: today)")
}
