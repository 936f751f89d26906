// Package main provides the CLI entrypoint for cbminer.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/cbminer/internal/config"
	"github.com/verte-zerg/cbminer/internal/logging"
	"github.com/verte-zerg/cbminer/internal/stats"
	"github.com/verte-zerg/cbminer/internal/store"
	"github.com/verte-zerg/cbminer/internal/timeline"
)

const (
	defaultWorkers = 0
	defaultTop     = 10
	defaultLevel   = "info"
)

var (
	dbPath   string
	logLevel string
	logDir   string

	fileCfg   config.FileConfig
	closeLogs = func() error { return nil }
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if cerr := closeLogs(); cerr != nil {
		logErrf("failed to close log files: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "cbminer",
		Short:             "Feature extractor for Codebench programming logs",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory for per-level log files")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newAttemptCmd())
	rootCmd.AddCommand(newSolutionsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// loadFileConfig reads the config file and applies the shared settings.
func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, cfg.Extract.DB)
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	applyStringConfig(cmd, "log-dir", &logDir, cfg.Log.Dir)
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "config" {
		return nil
	}
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	fileCfg = cfg
	closeFn, err := logging.Setup(logging.Options{
		Level: logLevel,
		Dir:   logDir,
		Color: stats.ShouldUseColor(os.Stderr, false),
	})
	if err != nil {
		return err
	}
	closeLogs = closeFn
	return nil
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			log.Error().Err(cerr).Str("path", dbPath).Msg("failed to close db")
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cbminer configuration
# Uncomment a value to enable it. CLI flags override config values.

[extract]
# dataset = "/path/to/codebench"   # Dataset root (<term>/<class>/...)
# solutions = "/path/to/solutions" # Directory of <exercise>.code files
# db = %q
# out = "/path/to/csv"             # Also write CSV tables after extraction
# workers = %d                     # Concurrent attempts (0 = number of CPUs)
# idle-minutes = %d                # Idle gap that ends an interaction interval
# attempt-timeout = "0s"           # Per-attempt wall-clock guard (0 disables)

[stats]
# top = %d                         # Error types shown by stats
# term = ""                        # Restrict reports to one term

[log]
# level = %q                       # debug, info, warn or error
# dir = %q
`,
		config.DefaultDBPath(),
		defaultWorkers,
		int(timeline.IdleThreshold/time.Minute),
		defaultTop,
		defaultLevel,
		config.DefaultLogDir(),
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil || cmd.Flags().Changed(name) {
		return nil
	}
	parsed, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = parsed
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
