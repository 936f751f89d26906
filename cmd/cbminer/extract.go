package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/cbminer/internal/dataset"
	"github.com/verte-zerg/cbminer/internal/export"
	"github.com/verte-zerg/cbminer/internal/pipeline"
	"github.com/verte-zerg/cbminer/internal/store"
	"github.com/verte-zerg/cbminer/internal/timeline"
)

var (
	extractDataset   string
	extractSolutions string
	extractOut       string
	extractWorkers   int
	extractIdle      int
	extractTimeout   time.Duration
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract features from a dataset into the database",
		Args:  cobra.NoArgs,
		RunE:  runExtractCmd,
	}
	cmd.Flags().StringVar(&extractDataset, "dataset", "", "dataset root directory")
	cmd.Flags().StringVar(&extractSolutions, "solutions", "", "directory of instructor solutions (<exercise>.code)")
	cmd.Flags().StringVar(&extractOut, "out", "", "also write CSV tables to this directory")
	cmd.Flags().IntVar(&extractWorkers, "workers", defaultWorkers, "concurrent attempts (0 = number of CPUs)")
	cmd.Flags().IntVar(&extractIdle, "idle-minutes", int(timeline.IdleThreshold/time.Minute), "idle gap in minutes that ends an interaction interval")
	cmd.Flags().DurationVar(&extractTimeout, "attempt-timeout", 0, "wall-clock limit per attempt (0 disables)")
	return cmd
}

func runExtractCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "dataset", &extractDataset, fileCfg.Extract.Dataset)
	applyStringConfig(cmd, "solutions", &extractSolutions, fileCfg.Extract.Solutions)
	applyStringConfig(cmd, "out", &extractOut, fileCfg.Extract.Out)
	applyIntConfig(cmd, "workers", &extractWorkers, fileCfg.Extract.Workers)
	applyIntConfig(cmd, "idle-minutes", &extractIdle, fileCfg.Extract.IdleMinutes)
	if err := applyDurationConfig(cmd, "attempt-timeout", &extractTimeout, fileCfg.Extract.AttemptTimeout); err != nil {
		return err
	}
	if err := validateExtract(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	root, err := filepath.Abs(extractDataset)
	if err != nil {
		return fmt.Errorf("failed to resolve dataset path: %w", err)
	}
	index, err := dataset.Scan(root)
	if err != nil {
		return fmt.Errorf("failed to scan dataset: %w", err)
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	runID, err := st.BeginRun(ctx, root, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	log.Info().Str("run", runID).Int("attempts", len(index.Attempts)).Int("workers", extractWorkers).Msg("extraction started")

	proc := pipeline.NewProcessor(time.Duration(extractIdle) * time.Minute)
	runner := &pipeline.Runner{Processor: proc, Workers: extractWorkers, Timeout: extractTimeout}
	started := time.Now()
	results, err := runner.Run(ctx, index.Attempts)
	if err != nil {
		return fmt.Errorf("extraction interrupted: %w", err)
	}
	log.Info().Str("run", runID).Dur("elapsed", time.Since(started)).Msg("attempts processed")

	var solutions []*pipeline.SolutionResult
	if extractSolutions != "" {
		solutions, err = processSolutions(proc, extractSolutions)
		if err != nil {
			return err
		}
	}

	issues, err := persistRun(ctx, st, runID, index, results, solutions)
	if err != nil {
		return err
	}

	if extractOut != "" {
		paths, err := export.WriteDir(extractOut, export.Tables{
			Attempts:   results,
			Classes:    index.Classes,
			Students:   index.Students,
			Activities: index.Activities,
			Solutions:  solutions,
		})
		if err != nil {
			return err
		}
		for _, path := range paths {
			log.Info().Str("path", path).Msg("wrote table")
		}
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d attempts, %d issues\n", runID, len(results), issues)
	return err
}

func validateExtract() error {
	if extractDataset == "" {
		return fmt.Errorf("--dataset is required")
	}
	if extractWorkers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if extractIdle <= 0 {
		return fmt.Errorf("--idle-minutes must be > 0")
	}
	if extractTimeout < 0 {
		return fmt.Errorf("--attempt-timeout must be >= 0")
	}
	return nil
}

// persistRun stores everything produced by an extraction and closes the
// run. It returns the number of recorded issues.
func persistRun(ctx context.Context, st *store.Store, runID string, index *dataset.Index, results []*pipeline.AttemptResult, solutions []*pipeline.SolutionResult) (int, error) {
	if err := st.InsertClasses(ctx, runID, index.Classes); err != nil {
		return 0, fmt.Errorf("failed to store classes: %w", err)
	}
	if err := st.InsertActivities(ctx, runID, index.Activities); err != nil {
		return 0, fmt.Errorf("failed to store activities: %w", err)
	}
	if err := st.InsertStudents(ctx, runID, index.Students); err != nil {
		return 0, fmt.Errorf("failed to store students: %w", err)
	}
	if err := st.InsertAttempts(ctx, runID, results); err != nil {
		return 0, fmt.Errorf("failed to store attempts: %w", err)
	}
	if len(solutions) > 0 {
		if err := st.InsertSolutions(ctx, runID, solutions); err != nil {
			return 0, fmt.Errorf("failed to store solutions: %w", err)
		}
	}
	issues := 0
	for _, res := range results {
		issues += len(res.Issues)
	}
	if err := st.FinishRun(ctx, runID, time.Now(), len(results), issues); err != nil {
		return 0, fmt.Errorf("failed to finish run: %w", err)
	}
	return issues, nil
}

// processSolutions skips unusable solutions with a warning.
func processSolutions(proc *pipeline.Processor, dir string) ([]*pipeline.SolutionResult, error) {
	files, err := dataset.Solutions(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	results := make([]*pipeline.SolutionResult, 0, len(files))
	for _, file := range files {
		res, err := proc.ProcessSolution(file)
		if err != nil {
			log.Warn().Err(err).Str("path", file.Path).Msg("skip solution")
			continue
		}
		results = append(results, res)
	}
	log.Info().Int("solutions", len(results)).Str("path", dir).Msg("solutions processed")
	return results, nil
}
