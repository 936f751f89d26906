// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/cbminer/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates attempt rows of a report.
type Summary struct {
	Attempts        int
	Accepted        int
	AcceptRate      float64
	MeanSubmissions float64
	MeanTests       float64
	MeanErrors      float64
	// WithTimeline counts attempts whose timeline could be rebuilt; the
	// time means are over those attempts only.
	WithTimeline   int
	MeanTotal      float64
	MeanFocused    float64
	FocusShare     float64
	WithIssues     int
	GradedAttempts int
	MeanGrade      float64
}

// Summarize computes a Summary from attempt rows.
func Summarize(rows []model.AttemptSummary) Summary {
	var s Summary
	s.Attempts = len(rows)
	if s.Attempts == 0 {
		return s
	}
	var subs, tests, errs, total, focused, grades float64
	for _, r := range rows {
		if r.Accepted {
			s.Accepted++
		}
		subs += float64(r.Submissions)
		tests += float64(r.Tests)
		errs += float64(r.Errors)
		if r.HasTimeline {
			s.WithTimeline++
			total += r.TotalSeconds
			focused += r.FocusedSeconds
		}
		if r.IssueCount > 0 {
			s.WithIssues++
		}
		if r.FinalGrade != nil {
			s.GradedAttempts++
			grades += *r.FinalGrade
		}
	}
	n := float64(s.Attempts)
	s.AcceptRate = float64(s.Accepted) / n
	s.MeanSubmissions = subs / n
	s.MeanTests = tests / n
	s.MeanErrors = errs / n
	if s.WithTimeline > 0 {
		s.MeanTotal = total / float64(s.WithTimeline)
		s.MeanFocused = focused / float64(s.WithTimeline)
	}
	if total > 0 {
		s.FocusShare = focused / total
	}
	if s.GradedAttempts > 0 {
		s.MeanGrade = grades / float64(s.GradedAttempts)
	}
	return s
}

// AcceptRate returns the share of accepted attempts of an activity.
func AcceptRate(agg model.ActivityAggregate) float64 {
	if agg.Attempts == 0 {
		return 0
	}
	return float64(agg.Accepted) / float64(agg.Attempts)
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatSeconds renders a duration in seconds as h:mm:ss.
func FormatSeconds(seconds float64) string {
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}

// RenderSummary prints the attempt summary.
func RenderSummary(w io.Writer, s Summary, useColor bool) error {
	if s.Attempts == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	lines := []string{
		heading("Summary", useColor),
		fmt.Sprintf("Attempts: %d", s.Attempts),
		fmt.Sprintf("Accepted: %d (%.2f%%)", s.Accepted, s.AcceptRate*100),
		fmt.Sprintf("Avg submissions: %.2f", s.MeanSubmissions),
		fmt.Sprintf("Avg tests: %.2f", s.MeanTests),
		fmt.Sprintf("Avg errors: %.2f", s.MeanErrors),
	}
	if s.GradedAttempts > 0 {
		lines = append(lines, fmt.Sprintf("Avg final grade: %.2f", s.MeanGrade))
	}
	if s.WithTimeline > 0 {
		lines = append(lines,
			fmt.Sprintf("Avg interaction: %s (%d with timeline)", FormatSeconds(s.MeanTotal), s.WithTimeline),
			fmt.Sprintf("Avg focused: %s (%.2f%% of interaction)", FormatSeconds(s.MeanFocused), s.FocusShare*100),
		)
	}
	lines = append(lines, fmt.Sprintf("Attempts with issues: %d", s.WithIssues), "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderErrorTable prints error types by occurrences.
func RenderErrorTable(w io.Writer, aggs []model.ErrorAggregate, useColor bool) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No errors found.")
		return err
	}
	if _, err := fmt.Fprintln(w, heading("Top Errors", useColor)); err != nil {
		return err
	}
	cols := []column{textCol("Error"), numCol("Occurrences"), numCol("Attempts")}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{
			agg.ErrorTypeName,
			fmt.Sprintf("%d", agg.Occurrences),
			fmt.Sprintf("%d", agg.Attempts),
		})
	}
	return writeLines(w, formatTable(cols, rows, useColor))
}

// RenderActivityTable prints per-activity aggregates followed by an
// accept-rate sparkline in table order.
func RenderActivityTable(w io.Writer, aggs []model.ActivityAggregate, useColor bool) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No activities found.")
		return err
	}
	if _, err := fmt.Fprintln(w, heading("Activities", useColor)); err != nil {
		return err
	}
	cols := []column{
		textCol("Term"), numCol("Class"), numCol("Activity"), numCol("Attempts"),
		numCol("Accepted"), numCol("Accept Rate"), numCol("Avg Subs"), numCol("Avg Focus"),
	}
	rows := make([][]string, 0, len(aggs))
	rates := make([]float64, 0, len(aggs))
	for _, agg := range aggs {
		rate := AcceptRate(agg)
		rates = append(rates, rate)
		rows = append(rows, []string{
			agg.Term,
			fmt.Sprintf("%d", agg.Class),
			fmt.Sprintf("%d", agg.Activity),
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%d", agg.Accepted),
			fmt.Sprintf("%.2f%%", rate*100),
			fmt.Sprintf("%.2f", agg.AvgSubmissions),
			FormatSeconds(agg.AvgFocused),
		})
	}
	lines := formatTable(cols, rows, useColor)
	lines = append(lines, "", "Accept rate: "+Sparkline(rates), "")
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
