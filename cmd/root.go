package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/studentlens/internal/config"
	"github.com/KaramelBytes/studentlens/internal/logging"
	"github.com/KaramelBytes/studentlens/internal/store"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	dbPath  string

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger is replaced by loadConfig; commands log through it.
	logger = logging.New(os.Stderr, slog.LevelWarn)
	// logCloser is the log file opened by loadConfig, if any.
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "studentlens",
	Short: "StudentLens: clean, analyze and curate student records",
	Long: `StudentLens imports student records into a local SQLite database, repairs missing
values, derives BMI, age and z-score features, flags IQR outliers and reports
per-group summaries. Deletions made in an interactive session can be undone.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer closeLog()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		closeLog()
		os.Exit(1)
	}
}

func init() {
	// Runs before every command, so tests that swap HOME get a fresh config.
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.studentlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config db_path)")
}

func loadConfig() {
	closeLog()
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	level := logging.LevelFromString(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	if cfg.LogFile != "" {
		l, f, err := logging.NewFile(cfg.LogFile, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: cannot open log file: %v\n", err)
		} else {
			logger, logCloser = l, f
			return
		}
	}
	logger = logging.New(os.Stderr, level)
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// loadedConfig returns the configuration, loading it on demand.
func loadedConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// openStore opens the configured student database.
func openStore() (*store.SQLite, error) {
	c, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	path := c.DBPath
	if dbPath != "" {
		path = dbPath
	}
	return store.OpenSQLite(path, logger)
}
