package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/studentlens/internal/logging"
	"github.com/KaramelBytes/studentlens/internal/store"
)

const studentsCSV = `student_id,full_name,dob,gender,major,class_id,email,phone,gpa,credits,height_cm,weight_kg,province,enrollment_date
1,Nguyen Van An,2003-04-12,M,CS,K21,an@example.edu,0901000001,3.45,96,172,65,Hanoi,2021-09-01
2,Tran Thi Binh,2004-08-15,F,CS,K22,binh@example.edu,0901000002,3.80,88,158,,Hue,2022-09-01
3,Le Van Cuong,2003-01-01,M,EE,K21,cuong@example.edu,0901000003,,90,,70,Da Nang,2021-09-01
4,Pham Thi Dung,2002-11-30,F,EE,K20,dung@example.edu,0901000004,2.90,120,160,50,Hanoi,2020-09-05
5,Hoang Van Em,2003-06-06,M,CS,K21,em@example.edu,0901000005,1.20,30,175,140,Hue,2021-09-01
6,Bad Gender,2003-06-06,X,CS,K21,,,3.0,30,175,70,,
`

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execute(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execute(args ...string) error {
	// Reset flags so values and Changed state do not leak between invocations.
	resetFlags(rootCmd.PersistentFlags())
	resetCommandFlags(rootCmd)
	cfg = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func resetCommandFlags(c *cobra.Command) {
	resetFlags(c.Flags())
	for _, sub := range c.Commands() {
		resetCommandFlags(sub)
	}
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCLI_ImportAnalyzeExport(t *testing.T) {
	home := withHome(t)
	csvPath := filepath.Join(home, "students.csv")
	if err := os.WriteFile(csvPath, []byte(studentsCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	runCmd(t, "import", csvPath)
	dbFile := filepath.Join(home, ".studentlens", "students.db")
	st, err := store.OpenSQLite(dbFile, logging.Discard())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	n, err := st.Count(context.Background())
	st.Close()
	if err != nil || n != 5 {
		t.Fatalf("count = %d, %v; want 5", n, err)
	}

	// Importing again only produces conflicts.
	runCmd(t, "import", csvPath)

	runCmd(t, "list", "--major", "CS")
	runCmd(t, "list", "--gender", "f")
	runCmd(t, "list", "--province", "Hue")

	runCmd(t, "update", "4", "gpa=3,1", "weight_kg=")
	st, err = store.OpenSQLite(dbFile, logging.Discard())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	got, err := st.FetchByID(context.Background(), 4)
	st.Close()
	if err != nil {
		t.Fatalf("fetch 4: %v", err)
	}
	if got.GPA == nil || *got.GPA != 3.1 || got.WeightKg != nil {
		t.Fatalf("update not applied: gpa=%v weight=%v", got.GPA, got.WeightKg)
	}
	if err := execute("update", "4", "gpa=9"); err == nil {
		t.Fatalf("expected error for out-of-range gpa")
	}
	if err := execute("update", "99", "gpa=3"); err == nil {
		t.Fatalf("expected error for unknown student")
	}
	runCmd(t, "audit")
	runCmd(t, "summary", "--group-by", "gender")
	runCmd(t, "top", "-k", "1")
	runCmd(t, "outliers", "--column", "bmi", "--multiplier", "1.5", "--reference-date", "2025-01-01")

	mdPath := filepath.Join(home, "out", "report.md")
	runCmd(t, "analyze", "-o", mdPath, "-q", "--reference-date", "2025-01-01")
	b, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 5", "[OUTLIERS]", "[TOP 3 PER MAJOR]"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("report missing %q:\n%s", want, b)
		}
	}

	csvOut := filepath.Join(home, "out", "processed.csv")
	runCmd(t, "analyze", "-i", csvPath, "-o", csvOut, "-q", "--zscore-cols", "gpa")
	b, err = os.ReadFile(csvOut)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	header := strings.SplitN(string(b), "\n", 2)[0]
	if !strings.Contains(header, "z_gpa") || strings.Contains(header, "z_bmi") {
		t.Fatalf("unexpected header: %s", header)
	}

	trimmed := filepath.Join(home, "out", "trimmed.md")
	runCmd(t, "analyze", "-i", csvPath, "-o", trimmed, "-q", "--remove-outliers")
	b, err = os.ReadFile(trimmed)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "Flagged rows were removed") {
		t.Fatalf("report does not mention removal:\n%s", b)
	}

	xlsxOut := filepath.Join(home, "out", "report.xlsx")
	runCmd(t, "analyze", "-o", xlsxOut, "-q")
	if _, err := os.Stat(xlsxOut); err != nil {
		t.Fatalf("xlsx not written: %v", err)
	}
}

func TestCLI_InvalidFlags(t *testing.T) {
	withHome(t)
	if err := execute("analyze", "--group-by", "shoe_size"); err == nil {
		t.Fatalf("expected error for bad group field")
	}
	if err := execute("outliers", "--column", "nope"); err == nil {
		t.Fatalf("expected error for bad column")
	}
	if err := execute("analyze", "--iqr", "-1"); err == nil {
		t.Fatalf("expected error for negative multiplier")
	}
	if err := execute("analyze", "--iqr", "0"); err == nil {
		t.Fatalf("expected error for zero multiplier")
	}
	if err := execute("analyze", "--cap-outliers", "--remove-outliers"); err == nil {
		t.Fatalf("expected error for cap and remove together")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := withHome(t)
	runCmd(t, "config", "set", "top_k", "5")
	runCmd(t, "config", "set", "impute_rules.gpa", "none")
	runCmd(t, "config", "show")

	b, err := os.ReadFile(filepath.Join(home, ".studentlens", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "top_k: 5") || !strings.Contains(string(b), "gpa: none") {
		t.Fatalf("config not saved:\n%s", b)
	}
	if err := execute("config", "set", "top_k", "0"); err == nil {
		t.Fatalf("expected error for top_k 0")
	}
	if err := execute("config", "set", "colour", "blue"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
