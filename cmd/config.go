package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/studentlens/internal/config"
	"github.com/KaramelBytes/studentlens/internal/student"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set StudentLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("db_path: %s\n", cfg.DBPath)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		if cfg.LogFile != "" {
			fmt.Printf("log_file: %s\n", cfg.LogFile)
		}
		ref := cfg.ReferenceDate
		if ref == "" {
			ref = "(today)"
		}
		fmt.Printf("reference_date: %s\n", ref)
		fmt.Printf("iqr_multiplier: %.3f\n", cfg.IQRMultiplier)
		fmt.Printf("cap_outliers: %t\n", cfg.CapOutliers)
		fmt.Printf("remove_outliers: %t\n", cfg.RemoveOutliers)
		fmt.Printf("top_k: %d\n", cfg.TopK)
		fmt.Printf("group_by: %s\n", cfg.GroupBy)
		fmt.Printf("zscore_columns: %s\n", strings.Join(cfg.ZScoreColumns, ","))
		fmt.Printf("outlier_columns: %s\n", strings.Join(cfg.OutlierColumns, ","))
		targets := make([]string, 0, len(cfg.ImputeRules))
		for t := range cfg.ImputeRules {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			fmt.Printf("impute_rules.%s: %s\n", t, cfg.ImputeRules[t])
		}
		fmt.Printf("backup_capacity: %d\n", cfg.BackupCapacity)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Impute rules are set per target column,
e.g. "config set impute_rules.gpa class_id".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], strings.TrimSpace(args[1])
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if _, err := c.AnalysisOptions(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "db_path":
		c.DBPath = val
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error", "off":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error|off)", val)
		}
	case "log_file":
		c.LogFile = val
	case "reference_date":
		if val != "" {
			if _, err := time.Parse(cfgpkg.DateLayout, val); err != nil {
				return fmt.Errorf("invalid reference_date: %s (use YYYY-MM-DD)", val)
			}
		}
		c.ReferenceDate = val
	case "iqr_multiplier":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid positive float for iqr_multiplier: %v", val)
		}
		c.IQRMultiplier = f
	case "cap_outliers":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for cap_outliers: %w", err)
		}
		c.CapOutliers = b
	case "remove_outliers":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for remove_outliers: %w", err)
		}
		c.RemoveOutliers = b
	case "top_k":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid positive int for top_k: %v", val)
		}
		c.TopK = i
	case "group_by":
		g, err := student.ParseGroupField(val)
		if err != nil {
			return err
		}
		c.GroupBy = string(g)
	case "zscore_columns", "outlier_columns":
		cols, err := student.ParseColumns(strings.Split(val, ","))
		if err != nil {
			return err
		}
		names := make([]string, len(cols))
		for i, col := range cols {
			names[i] = string(col)
		}
		if key == "zscore_columns" {
			c.ZScoreColumns = names
		} else {
			c.OutlierColumns = names
		}
	case "backup_capacity":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid positive int for backup_capacity: %v", val)
		}
		c.BackupCapacity = i
	default:
		target, ok := strings.CutPrefix(key, "impute_rules.")
		if !ok {
			return fmt.Errorf("unknown key: %s", key)
		}
		if c.ImputeRules == nil {
			c.ImputeRules = map[string]string{}
		}
		// "none" must be stored: dropping the key would bring the default back on load.
		if val == "" {
			val = "none"
		}
		c.ImputeRules[target] = val
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
