package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/studentlens/internal/analysis"
	cfgpkg "github.com/KaramelBytes/studentlens/internal/config"
	"github.com/KaramelBytes/studentlens/internal/ingest"
	"github.com/KaramelBytes/studentlens/internal/student"
)

// source selects where commands read students from.
type source struct {
	input string
	sheet string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.input, "input", "i", "", "read students from a CSV/TSV/XLSX file instead of the database")
	cmd.Flags().StringVar(&s.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
}

// load returns the dataset and a display name for it.
func (s *source) load(ctx context.Context) (*student.Dataset, string, error) {
	if s.input != "" {
		b, err := ingest.ReadFile(s.input, ingest.Options{Sheet: s.sheet})
		if err != nil {
			return nil, "", err
		}
		for _, re := range b.Rejected {
			logger.Warn("row rejected", "source", b.Source, "line", re.Line, "error", re.Err)
		}
		if n := len(b.Rejected); n > 0 {
			fmt.Printf("⚠ Warning: skipped %d invalid row(s) in %s\n", n, filepath.Base(s.input))
		}
		ds, err := b.Dataset()
		if err != nil {
			return nil, "", err
		}
		return ds, b.Source, nil
	}
	st, err := openStore()
	if err != nil {
		return nil, "", err
	}
	defer st.Close()
	ds, err := st.FetchAll(ctx)
	if err != nil {
		return nil, "", err
	}
	return ds, filepath.Base(st.Path()), nil
}

// tuning holds the analysis flags shared by analyze, outliers, summary and top.
type tuning struct {
	groupBy     string
	topK        int
	iqr         float64
	refDate     string
	zscoreCols  []string
	outlierCols []string
	capOutliers bool
	removeOut   bool
}

// options starts from the configured defaults and applies flags that were set.
func (t *tuning) options(cmd *cobra.Command) (analysis.Options, error) {
	c, err := loadedConfig()
	if err != nil {
		return analysis.Options{}, err
	}
	opt, err := c.AnalysisOptions()
	if err != nil {
		return opt, fmt.Errorf("config: %w", err)
	}
	f := cmd.Flags()
	if f.Changed("group-by") {
		if opt.GroupBy, err = student.ParseGroupField(t.groupBy); err != nil {
			return opt, err
		}
	}
	if f.Changed("top-k") {
		opt.TopK = t.topK
	}
	if f.Changed("iqr") || f.Changed("multiplier") {
		opt.IQRMultiplier = t.iqr
	}
	if f.Changed("reference-date") {
		ref, err := time.Parse(cfgpkg.DateLayout, strings.TrimSpace(t.refDate))
		if err != nil {
			return opt, fmt.Errorf("invalid --reference-date %q (use YYYY-MM-DD)", t.refDate)
		}
		opt.ReferenceDate = ref
	}
	if f.Changed("zscore-cols") {
		if opt.ZScoreColumns, err = student.ParseColumns(t.zscoreCols); err != nil {
			return opt, err
		}
	}
	if f.Changed("outlier-cols") {
		if opt.OutlierColumns, err = student.ParseColumns(t.outlierCols); err != nil {
			return opt, err
		}
	}
	if f.Changed("cap-outliers") {
		opt.CapOutliers = t.capOutliers
	}
	if f.Changed("remove-outliers") {
		opt.RemoveOutliers = t.removeOut
		if t.removeOut && !f.Changed("cap-outliers") {
			opt.CapOutliers = false
		}
	}
	if opt.CapOutliers && f.Changed("cap-outliers") && !f.Changed("remove-outliers") {
		opt.RemoveOutliers = false
	}
	return opt, opt.Validate()
}

// run loads the students and executes the pipeline, logging its diagnostics.
func run(cmd *cobra.Command, src *source, opt analysis.Options) (*analysis.Result, error) {
	ds, name, err := src.load(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger.Debug("running pipeline", "source", name, "rows", ds.Len(), "group_by", opt.GroupBy, "iqr", opt.IQRMultiplier)
	res, err := analysis.Run(ds, opt)
	if err != nil {
		return nil, err
	}
	res.Name = name
	for _, w := range res.Warnings {
		logger.Warn("pipeline diagnostic", "step", w.Step, "column", w.Column, "message", w.Message)
	}
	return res, nil
}
