package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "cbminer.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return st
}

func grade(v float64) *float64 { return &v }

func sampleResults() []*pipeline.AttemptResult {
	source := "print(1)\n"
	return []*pipeline.AttemptResult{
		{
			Key: model.AttemptKey{Term: "2019-1", Class: 220, Student: 1, Activity: 41, Exercise: 7},
			Execution: model.ExecutionRecord{
				SubmissionCount: 2, TestCount: 3, ErrorCount: 2,
				ExecutionTimeSeconds: grade(0.02), FinalGrade: grade(100),
				Accepted: true, AcceptedSource: &source,
			},
			Errors: []model.ErrorOccurrence{
				{ErrorTypeName: "ValueError", Occurrences: 2},
				{ErrorTypeName: "NameError", Occurrences: 1},
			},
			Timeline: &model.TimelineRecord{TotalInteraction: 10 * time.Minute, FocusedInteraction: 2 * time.Minute},
			Metrics:  &model.CodeMetrics{Complexity: 1, LOC: 1, SLOC: 1, LLOC: 1, Volume: 2},
			Tokens:   &features.Vector{Builtins: 1, Identifiers: 1},
			Origin:   pipeline.OriginAccepted,
			Issues:   []pipeline.Issue{{Kind: pipeline.IssueTimestamp, Err: errors.New("bad timestamp")}},
		},
		{
			Key: model.AttemptKey{Term: "2019-1", Class: 220, Student: 2, Activity: 41, Exercise: 7},
			Execution: model.ExecutionRecord{
				SubmissionCount: 4, ErrorCount: 1, FinalGrade: grade(50),
			},
			Errors: []model.ErrorOccurrence{{ErrorTypeName: "ValueError", Occurrences: 1}},
			Issues: []pipeline.Issue{
				{Kind: pipeline.IssueMissingTimeline},
				{Kind: pipeline.IssueMissingCode},
			},
		},
		{
			Key:       model.AttemptKey{Term: "2019-2", Class: 300, Student: 3, Activity: 50, Exercise: 1},
			Execution: model.ExecutionRecord{SubmissionCount: 1},
			Malformed: true,
			Issues:    []pipeline.Issue{{Kind: pipeline.IssueMalformedLog, Err: errors.New("truncated")}},
		},
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	_, err := st.ResolveRun(ctx, "")
	assert.ErrorIs(t, err, ErrNoRuns)

	first, err := st.BeginRun(ctx, "/data/a", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := st.BeginRun(ctx, "/data/b", time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	require.NoError(t, st.FinishRun(ctx, first, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), 12, 3))

	latest, err := st.ResolveRun(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, second, latest)
	explicit, err := st.ResolveRun(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, explicit)

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Equal(t, "/data/a", runs[1].Dataset)
	assert.Equal(t, 12, runs[1].Attempts)
	assert.Equal(t, 3, runs[1].Issues)
	require.NotNil(t, runs[1].FinishedAt)
}

func TestAttemptsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	runID, err := st.BeginRun(ctx, "/data", time.Now())
	require.NoError(t, err)

	want := sampleResults()
	require.NoError(t, st.InsertAttempts(ctx, runID, want))

	got, err := st.ListAttempts(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	first := got[0]
	assert.Equal(t, want[0].Key, first.Key)
	assert.Equal(t, want[0].Execution, first.Execution)
	assert.Equal(t, want[0].Errors, first.Errors)
	assert.Equal(t, want[0].Timeline, first.Timeline)
	assert.Equal(t, want[0].Metrics, first.Metrics)
	assert.Equal(t, want[0].Tokens, first.Tokens)
	assert.Equal(t, pipeline.OriginAccepted, first.Origin)
	require.Len(t, first.Issues, 1)
	assert.Equal(t, pipeline.IssueTimestamp, first.Issues[0].Kind)
	assert.EqualError(t, first.Issues[0].Err, "bad timestamp")

	second := got[1]
	assert.Nil(t, second.Timeline)
	assert.Nil(t, second.Metrics)
	assert.Nil(t, second.Tokens)
	assert.Nil(t, second.Execution.ExecutionTimeSeconds)
	assert.Equal(t, pipeline.OriginNone, second.Origin)
	require.Len(t, second.Issues, 2)
	assert.Nil(t, second.Issues[0].Err)

	assert.True(t, got[2].Malformed)

	other, err := st.ListAttempts(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	runID, err := st.BeginRun(ctx, "/data", time.Now())
	require.NoError(t, err)
	require.NoError(t, st.InsertAttempts(ctx, runID, sampleResults()))

	summaries, err := st.ListAttemptSummaries(ctx, model.SummaryConfig{RunID: runID, Term: "2019-1"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Accepted)
	assert.True(t, summaries[0].HasTimeline)
	assert.InDelta(t, 600, summaries[0].TotalSeconds, 1e-9)
	assert.InDelta(t, 120, summaries[0].FocusedSeconds, 1e-9)
	assert.Equal(t, 1, summaries[0].IssueCount)
	assert.False(t, summaries[1].HasTimeline)
	assert.Equal(t, 2, summaries[1].IssueCount)

	errs, err := st.ErrorAggregates(ctx, model.SummaryConfig{RunID: runID})
	require.NoError(t, err)
	assert.Equal(t, []model.ErrorAggregate{
		{ErrorTypeName: "ValueError", Occurrences: 3, Attempts: 2},
		{ErrorTypeName: "NameError", Occurrences: 1, Attempts: 1},
	}, errs)

	top, err := st.ErrorAggregates(ctx, model.SummaryConfig{RunID: runID, TopN: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "ValueError", top[0].ErrorTypeName)

	acts, err := st.ActivityAggregates(ctx, model.SummaryConfig{RunID: runID})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, 41, acts[0].Activity)
	assert.Equal(t, 2, acts[0].Attempts)
	assert.Equal(t, 1, acts[0].Accepted)
	assert.InDelta(t, 3, acts[0].AvgSubmissions, 1e-9)
	assert.InDelta(t, 120, acts[0].AvgFocused, 1e-9)
	assert.InDelta(t, 0, acts[1].AvgFocused, 1e-9)

	only, err := st.ActivityAggregates(ctx, model.SummaryConfig{RunID: runID, Activity: 50})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "2019-2", only[0].Term)

	issues, err := st.IssueCounts(ctx, model.SummaryConfig{RunID: runID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"timestamp":        1,
		"missing-timeline": 1,
		"missing-code":     1,
		"malformed-log":    1,
	}, issues)
}

func TestProfilesAndSolutions(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	runID, err := st.BeginRun(ctx, "/data", time.Now())
	require.NoError(t, err)

	classes := []model.ClassSection{
		{Term: "2019-2", Code: 300, Description: "Algorithms"},
		{Term: "2019-1", Code: 220, Description: "Intro to Programming"},
	}
	require.NoError(t, st.InsertClasses(ctx, runID, classes))
	gotClasses, err := st.ListClasses(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []model.ClassSection{classes[1], classes[0]}, gotClasses)

	activities := []model.Activity{
		{Term: "2019-1", Class: 220, Code: 41, Title: "Lists", Start: "2019-03-01 09:00", End: "2019-03-01 12:00", Kind: "exam", Weight: grade(2)},
		{Term: "2019-1", Class: 220, Code: 42, Title: "Loops", Start: "2019-03-02 09:00", End: "2019-03-02 12:00", Kind: "homework"},
	}
	require.NoError(t, st.InsertActivities(ctx, runID, activities))
	gotActivities, err := st.ListActivities(ctx, runID)
	require.NoError(t, err)
	require.Len(t, gotActivities, 2)
	assert.Equal(t, "Lists", gotActivities[0].Title)
	require.NotNil(t, gotActivities[0].Weight)
	assert.InDelta(t, 2, *gotActivities[0].Weight, 1e-9)
	assert.Nil(t, gotActivities[1].Weight)

	students := []model.Student{{Term: "2019-1", Class: 220, Code: 1001, CourseID: "12", Sex: "f", HasKids: "no"}}
	require.NoError(t, st.InsertStudents(ctx, runID, students))
	gotStudents, err := st.ListStudents(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, students, gotStudents)

	solutions := []*pipeline.SolutionResult{
		{Exercise: 9, Path: "/s/9.code", Metrics: model.CodeMetrics{Complexity: 2}, Tokens: &features.Vector{Conditionals: 1}},
		{Exercise: 3, Path: "/s/3.code", Metrics: model.CodeMetrics{Complexity: 1}, Tokens: &features.Vector{}},
	}
	require.NoError(t, st.InsertSolutions(ctx, runID, solutions))
	gotSolutions, err := st.ListSolutions(ctx, runID)
	require.NoError(t, err)
	require.Len(t, gotSolutions, 2)
	assert.Equal(t, 3, gotSolutions[0].Exercise)
	assert.Equal(t, solutions[0], gotSolutions[1])
}
