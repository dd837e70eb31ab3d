package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/studentlens/internal/analysis"
	"github.com/KaramelBytes/studentlens/internal/backup"
	"github.com/KaramelBytes/studentlens/internal/student"
	"github.com/KaramelBytes/studentlens/internal/utils"
)

// DateLayout is the format of reference_date.
const DateLayout = "2006-01-02"

// Global configuration structure.
type Global struct {
	DBPath   string `mapstructure:"db_path" yaml:"db_path"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file,omitempty"`

	// Analysis defaults; command flags override them.
	ReferenceDate  string            `mapstructure:"reference_date" yaml:"reference_date,omitempty"`
	IQRMultiplier  float64           `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	CapOutliers    bool              `mapstructure:"cap_outliers" yaml:"cap_outliers"`
	RemoveOutliers bool              `mapstructure:"remove_outliers" yaml:"remove_outliers"`
	TopK           int               `mapstructure:"top_k" yaml:"top_k"`
	GroupBy        string            `mapstructure:"group_by" yaml:"group_by"`
	ZScoreColumns  []string          `mapstructure:"zscore_columns" yaml:"zscore_columns"`
	OutlierColumns []string          `mapstructure:"outlier_columns" yaml:"outlier_columns"`
	ImputeRules    map[string]string `mapstructure:"impute_rules" yaml:"impute_rules"`

	// Undo history size of an interactive session.
	BackupCapacity int `mapstructure:"backup_capacity" yaml:"backup_capacity"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.studentlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := utils.DefaultDataDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("STUDENTLENS")
	v.AutomaticEnv()

	def := analysis.DefaultOptions()
	v.SetDefault("db_path", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("reference_date", "")
	v.SetDefault("iqr_multiplier", def.IQRMultiplier)
	v.SetDefault("cap_outliers", false)
	v.SetDefault("remove_outliers", false)
	v.SetDefault("top_k", def.TopK)
	v.SetDefault("group_by", string(def.GroupBy))
	v.SetDefault("zscore_columns", columnNames(def.ZScoreColumns))
	v.SetDefault("outlier_columns", columnNames(def.OutlierColumns))
	v.SetDefault("backup_capacity", backup.DefaultCapacity)
	rules := map[string]string{}
	for _, r := range def.ImputeRules {
		rules[string(r.Target)] = string(r.GroupBy)
	}
	v.SetDefault("impute_rules", rules)

	dir, err := utils.DefaultDataDir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "students.db")
	}
	return &c, nil
}

// AnalysisOptions converts the analysis keys into pipeline options.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	opt.IQRMultiplier = c.IQRMultiplier
	opt.CapOutliers = c.CapOutliers
	opt.RemoveOutliers = c.RemoveOutliers
	if c.TopK != 0 {
		opt.TopK = c.TopK
	}
	if c.GroupBy != "" {
		g, err := student.ParseGroupField(c.GroupBy)
		if err != nil {
			return opt, fmt.Errorf("group_by: %w", err)
		}
		opt.GroupBy = g
	}
	if c.ReferenceDate != "" {
		t, err := time.Parse(DateLayout, strings.TrimSpace(c.ReferenceDate))
		if err != nil {
			return opt, fmt.Errorf("reference_date: want YYYY-MM-DD, got %q", c.ReferenceDate)
		}
		opt.ReferenceDate = t
	}
	var err error
	if len(c.ZScoreColumns) > 0 {
		if opt.ZScoreColumns, err = student.ParseColumns(c.ZScoreColumns); err != nil {
			return opt, fmt.Errorf("zscore_columns: %w", err)
		}
	}
	if len(c.OutlierColumns) > 0 {
		if opt.OutlierColumns, err = student.ParseColumns(c.OutlierColumns); err != nil {
			return opt, fmt.Errorf("outlier_columns: %w", err)
		}
	}
	if c.ImputeRules != nil {
		if opt.ImputeRules, err = parseRules(c.ImputeRules); err != nil {
			return opt, fmt.Errorf("impute_rules: %w", err)
		}
	}
	return opt, opt.Validate()
}

// parseRules orders rules by target name so runs are reproducible. A group
// of "none" disables imputation of that target.
func parseRules(m map[string]string) ([]analysis.ImputeRule, error) {
	targets := make([]string, 0, len(m))
	for k, g := range m {
		if g == "" || strings.EqualFold(g, "none") {
			continue
		}
		targets = append(targets, k)
	}
	sort.Strings(targets)
	out := make([]analysis.ImputeRule, 0, len(m))
	for _, t := range targets {
		col, err := student.ParseColumn(t)
		if err != nil {
			return nil, err
		}
		if !col.IsBase() {
			return nil, fmt.Errorf("%s is derived and cannot be imputed", col)
		}
		g, err := student.ParseGroupField(m[t])
		if err != nil {
			return nil, err
		}
		out = append(out, analysis.ImputeRule{Target: col, GroupBy: g})
	}
	return out, nil
}

func columnNames(cols []student.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}
