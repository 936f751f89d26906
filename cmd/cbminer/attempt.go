package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cbminer/internal/dataset"
	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
	"github.com/verte-zerg/cbminer/internal/timeline"
)

var (
	attemptStart string
	attemptEnd   string
	attemptExam  bool
	attemptCode  string
	attemptIdle  int
)

func newAttemptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempt <exec.log> [timeline.log]",
		Short: "Analyze a single attempt and print its features as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runAttemptCmd,
	}
	cmd.Flags().StringVar(&attemptStart, "start", "", "activity start ("+timeline.WindowLayout+")")
	cmd.Flags().StringVar(&attemptEnd, "end", "", "activity end ("+timeline.WindowLayout+")")
	cmd.Flags().BoolVar(&attemptExam, "exam", false, "treat the activity as an exam")
	cmd.Flags().StringVar(&attemptCode, "code", "", "saved code file used when no submission was accepted")
	cmd.Flags().IntVar(&attemptIdle, "idle-minutes", int(timeline.IdleThreshold/time.Minute), "idle gap in minutes that ends an interaction interval")
	return cmd
}

func runAttemptCmd(cmd *cobra.Command, args []string) error {
	applyIntConfig(cmd, "idle-minutes", &attemptIdle, fileCfg.Extract.IdleMinutes)
	if attemptIdle <= 0 {
		return fmt.Errorf("--idle-minutes must be > 0")
	}
	in, err := readAttemptInput(args)
	if err != nil {
		return err
	}
	res := pipeline.NewProcessor(time.Duration(attemptIdle) * time.Minute).Analyze(in)
	return writeAttemptJSON(cmd.OutOrStdout(), res)
}

func readAttemptInput(args []string) (pipeline.Input, error) {
	var in pipeline.Input
	execPath := args[0]
	lines, err := dataset.ReadLines(execPath)
	if err != nil {
		return in, fmt.Errorf("failed to read execution log: %w", err)
	}
	in.ExecutionLog = lines
	if activity, exercise, ok := dataset.ParseAttemptName(filepath.Base(execPath)); ok {
		in.Key = model.AttemptKey{Activity: activity, Exercise: exercise}
	}

	if len(args) > 1 {
		tl, err := dataset.ReadLines(args[1])
		if err != nil {
			return in, fmt.Errorf("failed to read timeline log: %w", err)
		}
		if tl == nil {
			tl = []string{}
		}
		in.TimelineLog = tl
	}
	if attemptStart != "" || attemptEnd != "" {
		kind := ""
		if attemptExam {
			kind = timeline.ExamKind
		}
		in.Activity = &model.Activity{
			Code:  in.Key.Activity,
			Start: attemptStart,
			End:   attemptEnd,
			Kind:  kind,
		}
	}
	if attemptCode != "" {
		src, err := dataset.ReadSource(attemptCode)
		if err != nil {
			return in, fmt.Errorf("failed to read code file: %w", err)
		}
		in.SavedSource = &src
	}
	return in, nil
}

type attemptView struct {
	Attempt          string                  `json:"attempt"`
	Submissions      int                     `json:"submissions"`
	Tests            int                     `json:"tests"`
	Errors           int                     `json:"errors"`
	ExecutionSeconds *float64                `json:"exec_time"`
	FinalGrade       *float64                `json:"final_grade"`
	Accepted         bool                    `json:"accepted"`
	Malformed        bool                    `json:"malformed"`
	ErrorTypes       []model.ErrorOccurrence `json:"error_types"`
	TotalSeconds     *float64                `json:"total_time"`
	FocusedSeconds   *float64                `json:"focus_time"`
	Origin           pipeline.CodeOrigin     `json:"code_origin,omitempty"`
	Metrics          *model.CodeMetrics      `json:"metrics"`
	Tokens           *features.Vector        `json:"tokens"`
	Issues           []string                `json:"issues"`
}

func writeAttemptJSON(w io.Writer, res *pipeline.AttemptResult) error {
	view := attemptView{
		Attempt:          res.Key.String(),
		Submissions:      res.Execution.SubmissionCount,
		Tests:            res.Execution.TestCount,
		Errors:           res.Execution.ErrorCount,
		ExecutionSeconds: res.Execution.ExecutionTimeSeconds,
		FinalGrade:       res.Execution.FinalGrade,
		Accepted:         res.Execution.Accepted,
		Malformed:        res.Malformed,
		ErrorTypes:       res.Errors,
		Origin:           res.Origin,
		Metrics:          res.Metrics,
		Tokens:           res.Tokens,
		Issues:           make([]string, 0, len(res.Issues)),
	}
	if res.Timeline != nil {
		total := res.Timeline.TotalInteraction.Seconds()
		focused := res.Timeline.FocusedInteraction.Seconds()
		view.TotalSeconds = &total
		view.FocusedSeconds = &focused
	}
	for _, issue := range res.Issues {
		view.Issues = append(view.Issues, issue.Error())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
