package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/cbminer/internal/export"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
	"github.com/verte-zerg/cbminer/internal/stats"
	"github.com/verte-zerg/cbminer/internal/statsui"
	"github.com/verte-zerg/cbminer/internal/store"
	"github.com/verte-zerg/cbminer/internal/timeline"
)

var (
	solutionsDir string

	exportRun string
	exportOut string

	statsRun      string
	statsTerm     string
	statsActivity int
	statsTop      int
	statsTUI      bool
	statsColor    bool
)

func newSolutionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solutions",
		Short: "Compute metrics of instructor solutions and print them as CSV",
		Args:  cobra.NoArgs,
		RunE:  runSolutionsCmd,
	}
	cmd.Flags().StringVar(&solutionsDir, "dir", "", "directory of <exercise>.code files")
	return cmd
}

func runSolutionsCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "dir", &solutionsDir, fileCfg.Extract.Solutions)
	if solutionsDir == "" {
		return fmt.Errorf("--dir is required")
	}
	proc := pipeline.NewProcessor(timeline.IdleThreshold)
	results, err := processSolutions(proc, solutionsDir)
	if err != nil {
		return err
	}
	return export.WriteSolutions(cmd.OutOrStdout(), results)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tables of a stored run as CSV files",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportRun, "run", "", "run id (default: newest run)")
	cmd.Flags().StringVar(&exportOut, "out", "", "output directory")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "out", &exportOut, fileCfg.Extract.Out)
	if exportOut == "" {
		return fmt.Errorf("--out is required")
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	runID, err := st.ResolveRun(ctx, exportRun)
	if err != nil {
		return runError(err)
	}
	var tables export.Tables
	if tables.Attempts, err = st.ListAttempts(ctx, runID); err != nil {
		return fmt.Errorf("failed to load attempts: %w", err)
	}
	if tables.Classes, err = st.ListClasses(ctx, runID); err != nil {
		return fmt.Errorf("failed to load classes: %w", err)
	}
	if tables.Students, err = st.ListStudents(ctx, runID); err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}
	if tables.Activities, err = st.ListActivities(ctx, runID); err != nil {
		return fmt.Errorf("failed to load activities: %w", err)
	}
	if tables.Solutions, err = st.ListSolutions(ctx, runID); err != nil {
		return fmt.Errorf("failed to load solutions: %w", err)
	}
	paths, err := export.WriteDir(exportOut, tables)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
			return err
		}
	}
	log.Info().Str("run", runID).Int("files", len(paths)).Msg("export finished")
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats of a stored run",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsRun, "run", "", "run id (default: newest run)")
	cmd.Flags().StringVar(&statsTerm, "term", "", "term filter (e.g. 2019-1)")
	cmd.Flags().IntVar(&statsActivity, "activity", 0, "activity code filter")
	cmd.Flags().IntVar(&statsTop, "top", defaultTop, "number of error types shown (0 = all)")
	cmd.Flags().BoolVar(&statsTUI, "tui", false, "open the interactive viewer")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored output")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "top", &statsTop, fileCfg.Stats.Top)
	applyStringConfig(cmd, "term", &statsTerm, fileCfg.Stats.Term)
	if statsTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if statsActivity < 0 {
		return fmt.Errorf("--activity must be >= 0")
	}
	cfg := model.SummaryConfig{
		RunID:    statsRun,
		Term:     statsTerm,
		TopN:     statsTop,
		Activity: statsActivity,
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if statsTUI {
		program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return runError(err)
	}
	out := cmd.OutOrStdout()
	return stats.Render(out, report, stats.RenderOptions{
		Color: stats.ShouldUseColor(out, statsColor),
		Width: stats.TerminalWidth(),
	})
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored extraction runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	out := cmd.OutOrStdout()
	return stats.RenderRuns(out, runs, stats.ShouldUseColor(out, false))
}

func runError(err error) error {
	if errors.Is(err, store.ErrNoRuns) {
		return fmt.Errorf("no extraction runs found, run %q first", "cbminer extract")
	}
	return fmt.Errorf("failed to load run: %w", err)
}

