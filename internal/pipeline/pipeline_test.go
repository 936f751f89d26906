package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cbminer/internal/dataset"
	"github.com/verte-zerg/cbminer/internal/model"
)

var acceptedLog = []string{
	"== TEST (2019-03-01 10:01:00)",
	"-- CODE:",
	"x = int(input())",
	"-- ERROR:",
	"Traceback (most recent call last):",
	"ValueError: invalid literal",
	"*-*",
	"== SUBMITION (2019-03-01 10:05:00)",
	"-- CODE:",
	"x = int(input())",
	"if x == 1:",
	"    print(x)",
	"-- EXECUTION TIME:",
	"0.02",
	"-- GRADE:",
	"100%",
	"*-*",
}

var timelineLog = []string{
	"2019-03-01 10:00:00.000000#focus#",
	"2019-03-01 10:02:00.000000#change#x",
	"garbage",
	"2019-03-01 10:10:00.000000#blur#",
}

var activity = &model.Activity{Code: 41, Start: "2019-03-01 09:00", End: "2019-03-01 12:00", Kind: "homework"}

func key() model.AttemptKey {
	return model.AttemptKey{Term: "2019-1", Class: 220, Student: 1001, Activity: 41, Exercise: 7}
}

func kinds(issues []Issue) []IssueKind {
	var out []IssueKind
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestAnalyzeAcceptedAttempt(t *testing.T) {
	p := NewProcessor(0)
	res := p.Analyze(Input{
		Key:          key(),
		ExecutionLog: acceptedLog,
		TimelineLog:  timelineLog,
		Activity:     activity,
	})

	assert.False(t, res.Malformed)
	assert.Equal(t, 1, res.Execution.SubmissionCount)
	assert.Equal(t, 1, res.Execution.TestCount)
	assert.Equal(t, 1, res.Execution.ErrorCount)
	assert.True(t, res.Execution.Accepted)
	assert.Equal(t, []model.ErrorOccurrence{{ErrorTypeName: "ValueError", Occurrences: 1}}, res.Errors)

	require.NotNil(t, res.Timeline)
	assert.Equal(t, 10*time.Minute, res.Timeline.TotalInteraction)
	assert.Equal(t, 2*time.Minute, res.Timeline.FocusedInteraction)

	assert.Equal(t, OriginAccepted, res.Origin)
	require.NotNil(t, res.Metrics)
	require.NotNil(t, res.Tokens)
	assert.Equal(t, 1, res.Tokens.Ifs)
	assert.Equal(t, 3, res.Metrics.LOC)

	assert.Equal(t, []IssueKind{IssueTimestamp}, kinds(res.Issues))
}

func TestAnalyzeFallsBackToSavedSource(t *testing.T) {
	saved := "print('saved')\n"
	p := NewProcessor(0)
	res := p.Analyze(Input{
		Key:          key(),
		ExecutionLog: []string{"== SUBMITION", "-- GRADE:", "40%", "*-*"},
		SavedSource:  &saved,
	})

	assert.False(t, res.Execution.Accepted)
	assert.Equal(t, OriginSavedFile, res.Origin)
	require.NotNil(t, res.Tokens)
	assert.Equal(t, 1, res.Tokens.Prints)
	assert.Nil(t, res.Timeline)
	assert.Equal(t, []IssueKind{IssueMissingTimeline}, kinds(res.Issues))
}

type failingProvider struct{}

func (failingProvider) Compute(string) (model.CodeMetrics, error) {
	return model.CodeMetrics{}, errors.New("boom")
}

func TestAnalyzeRecordsMetricsFailure(t *testing.T) {
	p := &Processor{Metrics: failingProvider{}, Idle: 5 * time.Minute}
	res := p.Analyze(Input{Key: key(), ExecutionLog: acceptedLog})

	assert.Nil(t, res.Metrics)
	assert.NotNil(t, res.Tokens)
	assert.Contains(t, kinds(res.Issues), IssueMetrics)
}

func TestAnalyzeMalformedLogKeepsPartialRecord(t *testing.T) {
	p := NewProcessor(0)
	res := p.Analyze(Input{
		Key:          key(),
		ExecutionLog: []string{"== SUBMITION", "-- EXECUTION TIME:", "abc", "-- CODE:", "print(1)"},
		TimelineLog:  timelineLog,
	})

	assert.True(t, res.Malformed)
	assert.Equal(t, 1, res.Execution.SubmissionCount)
	assert.Equal(t, []IssueKind{IssueMalformedLog, IssueNumericField, IssueMissingActivity, IssueMissingCode}, kinds(res.Issues))
}

func TestAnalyzeInvalidWindow(t *testing.T) {
	p := NewProcessor(0)
	bad := &model.Activity{Start: "2019-03-01 12:00", End: "2019-03-01 09:00"}
	res := p.Analyze(Input{Key: key(), ExecutionLog: acceptedLog, TimelineLog: timelineLog, Activity: bad})
	assert.Nil(t, res.Timeline)
	assert.Contains(t, kinds(res.Issues), IssueInvalidWindow)
}

func writeAttempt(t *testing.T, dir string, exercise int) dataset.Attempt {
	t.Helper()
	k := key()
	k.Exercise = exercise
	name := filepath.Join(dir, strings.ReplaceAll(k.String(), "/", "_"))
	require.NoError(t, os.WriteFile(name+".log", []byte(strings.Join(acceptedLog, "\r\n")+"\r\n"), 0o644))
	require.NoError(t, os.WriteFile(name+".tl", []byte(strings.Join(timelineLog, "\n")), 0o644))
	return dataset.Attempt{Key: k, ExecutionLog: name + ".log", TimelineLog: name + ".tl", Activity: activity}
}

func TestProcessAttemptReadsFiles(t *testing.T) {
	a := writeAttempt(t, t.TempDir(), 7)
	res := NewProcessor(0).ProcessAttempt(a)

	assert.True(t, res.Execution.Accepted)
	require.NotNil(t, res.Execution.AcceptedSource)
	assert.Equal(t, "x = int(input())\nif x == 1:\n    print(x)\n", *res.Execution.AcceptedSource)
	require.NotNil(t, res.Timeline)
	assert.Equal(t, 10*time.Minute, res.Timeline.TotalInteraction)
}

func TestProcessAttemptMissingLog(t *testing.T) {
	res := NewProcessor(0).ProcessAttempt(dataset.Attempt{Key: key(), ExecutionLog: filepath.Join(t.TempDir(), "none.log")})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueRead, res.Issues[0].Kind)
}

func TestRunnerKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var attempts []dataset.Attempt
	for ex := 1; ex <= 6; ex++ {
		attempts = append(attempts, writeAttempt(t, dir, ex))
	}
	r := &Runner{Processor: NewProcessor(0), Workers: 3, Timeout: time.Minute}
	results, err := r.Run(context.Background(), attempts)
	require.NoError(t, err)
	require.Len(t, results, len(attempts))
	for i, res := range results {
		assert.Equal(t, attempts[i].Key, res.Key)
		assert.True(t, res.Execution.Accepted)
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Processor: NewProcessor(0), Workers: 1}
	_, err := r.Run(ctx, []dataset.Attempt{writeAttempt(t, t.TempDir(), 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

type slowProvider struct{ delay time.Duration }

func (s slowProvider) Compute(string) (model.CodeMetrics, error) {
	time.Sleep(s.delay)
	return model.CodeMetrics{}, nil
}

func TestRunnerTimeout(t *testing.T) {
	p := &Processor{Metrics: slowProvider{delay: 200 * time.Millisecond}, Idle: 5 * time.Minute}
	r := &Runner{Processor: p, Workers: 1, Timeout: 10 * time.Millisecond}
	results, err := r.Run(context.Background(), []dataset.Attempt{writeAttempt(t, t.TempDir(), 1)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []IssueKind{IssueTimeout}, kinds(results[0].Issues))
}

func TestProcessSolution(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "7.code")
	bad := filepath.Join(dir, "8.code")
	require.NoError(t, os.WriteFile(good, []byte("n = int(input())\nprint(n * 2)\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("print('open\n"), 0o644))

	p := NewProcessor(0)
	sol, err := p.ProcessSolution(dataset.Solution{Exercise: 7, Path: good})
	require.NoError(t, err)
	assert.Equal(t, 7, sol.Exercise)
	assert.Equal(t, 2, sol.Metrics.LOC)
	assert.Equal(t, 1, sol.Tokens.MultOps)

	_, err = p.ProcessSolution(dataset.Solution{Exercise: 8, Path: bad})
	var issue Issue
	require.True(t, errors.As(err, &issue))
	assert.Equal(t, IssueTokenization, issue.Kind)
}
