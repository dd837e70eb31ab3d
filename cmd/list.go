package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/student"
)

var (
	listMajor    string
	listGender   string
	listProvince string
	listSearch   string
	listMinGPA   float64
	listMaxGPA   float64
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored students",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := cmd.Context()

		var recs []student.Record
		switch {
		case listMajor != "":
			recs, err = st.FetchByMajor(ctx, listMajor)
		case listGender != "":
			recs, err = st.FetchByGender(ctx, strings.ToUpper(strings.TrimSpace(listGender)))
		case listProvince != "":
			recs, err = st.FetchByProvince(ctx, listProvince)
		case listSearch != "":
			recs, err = st.SearchByName(ctx, listSearch)
		case cmd.Flags().Changed("min-gpa") || cmd.Flags().Changed("max-gpa"):
			recs, err = st.FetchByGPARange(ctx, listMinGPA, listMaxGPA)
		default:
			var ds *student.Dataset
			if ds, err = st.FetchAll(ctx); err == nil {
				recs = ds.Records()
			}
		}
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("(no students)")
			return nil
		}
		total := len(recs)
		if listLimit > 0 && len(recs) > listLimit {
			recs = recs[:listLimit]
		}
		fmt.Printf("%-8s %-28s %-3s %-12s %-8s %5s %7s\n", "ID", "NAME", "SEX", "MAJOR", "CLASS", "GPA", "CREDITS")
		fmt.Println(strings.Repeat("-", 77))
		for _, r := range recs {
			fmt.Printf("%-8d %-28s %-3s %-12s %-8s %5s %7s\n",
				r.ID, clip(r.FullName, 28), r.Gender, clip(r.Major, 12), clip(r.ClassID, 8),
				optFloat(r.GPA, "%.2f"), optInt(r.Credits))
		}
		if total > len(recs) {
			fmt.Printf("… %d more\n", total-len(recs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listMajor, "major", "", "only students of this major")
	listCmd.Flags().StringVar(&listGender, "gender", "", "only students of this gender (M or F)")
	listCmd.Flags().StringVar(&listProvince, "province", "", "only students from this province")
	listCmd.Flags().StringVar(&listSearch, "search", "", "only students whose name contains this text")
	listCmd.Flags().Float64Var(&listMinGPA, "min-gpa", 0, "lowest GPA to include")
	listCmd.Flags().Float64Var(&listMaxGPA, "max-gpa", 4, "highest GPA to include")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many students (0 = all)")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
