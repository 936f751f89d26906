package stats

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/store"
)

const (
	hardestTop         = 5
	hardestMinAttempts = 5
	minErrorNameWidth  = 16
)

// Report contains precomputed data for stats rendering.
type Report struct {
	RunID      string
	Attempts   []model.AttemptSummary
	Summary    Summary
	Errors     []model.ErrorAggregate
	Activities []model.ActivityAggregate
	Hardest    []model.ActivityAggregate
	Issues     map[string]int
}

// BuildReport loads and prepares data for stats rendering. An empty
// cfg.RunID selects the newest run.
func BuildReport(ctx context.Context, st *store.Store, cfg model.SummaryConfig) (Report, error) {
	runID, err := st.ResolveRun(ctx, cfg.RunID)
	if err != nil {
		return Report{}, err
	}
	cfg.RunID = runID

	attempts, err := st.ListAttemptSummaries(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	errs, err := st.ErrorAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	activities, err := st.ActivityAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	issues, err := st.IssueCounts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{
		RunID:      runID,
		Attempts:   attempts,
		Summary:    Summarize(attempts),
		Errors:     errs,
		Activities: activities,
		Hardest:    HardestActivities(activities, hardestTop, hardestMinAttempts),
		Issues:     issues,
	}, nil
}

// RenderOptions controls Render output.
type RenderOptions struct {
	Color bool
	// Width limits error names; zero disables truncation.
	Width int
}

// Render prints the whole report.
func Render(w io.Writer, r Report, opts RenderOptions) error {
	if _, err := fmt.Fprintf(w, "Run %s\n\n", r.RunID); err != nil {
		return err
	}
	if err := RenderSummary(w, r.Summary, opts.Color); err != nil {
		return err
	}
	if err := RenderErrorTable(w, truncateErrors(r.Errors, opts.Width), opts.Color); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if err := RenderActivityTable(w, r.Activities, opts.Color); err != nil {
		return err
	}
	if len(r.Hardest) > 0 {
		lines := []string{heading("Hardest Activities", opts.Color)}
		for _, agg := range r.Hardest {
			lines = append(lines, fmt.Sprintf("%s/%d/%d: %.2f%% of %d attempts accepted",
				agg.Term, agg.Class, agg.Activity, AcceptRate(agg)*100, agg.Attempts))
		}
		lines = append(lines, "")
		if err := writeLines(w, lines); err != nil {
			return err
		}
	}
	return RenderIssues(w, r.Issues, opts.Color)
}

// RenderIssues prints issue counts by kind, most frequent first.
func RenderIssues(w io.Writer, issues map[string]int, useColor bool) error {
	if len(issues) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(issues))
	for kind := range issues {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if issues[kinds[i]] != issues[kinds[j]] {
			return issues[kinds[i]] > issues[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	rows := make([][]string, 0, len(kinds))
	for _, kind := range kinds {
		rows = append(rows, []string{kind, fmt.Sprintf("%d", issues[kind])})
	}
	lines := []string{heading("Issues", useColor)}
	lines = append(lines, formatTable([]column{textCol("Kind"), numCol("Count")}, rows, useColor)...)
	return writeLines(w, lines)
}

// truncateErrors shortens error names so the error table fits width.
func truncateErrors(aggs []model.ErrorAggregate, width int) []model.ErrorAggregate {
	if width <= 0 {
		return aggs
	}
	// Occurrences and attempts columns with separators.
	limit := width - 24
	if limit < minErrorNameWidth {
		limit = minErrorNameWidth
	}
	out := make([]model.ErrorAggregate, len(aggs))
	for i, agg := range aggs {
		agg.ErrorTypeName = runewidth.Truncate(agg.ErrorTypeName, limit, "...")
		out[i] = agg
	}
	return out
}
