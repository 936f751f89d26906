// Package pipeline turns the files of an attempt into a feature record.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/cbminer/internal/dataset"
	"github.com/verte-zerg/cbminer/internal/errtally"
	"github.com/verte-zerg/cbminer/internal/execlog"
	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/metrics"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/timeline"
)

// CodeOrigin tells where the analyzed snippet came from.
type CodeOrigin string

const (
	OriginNone      CodeOrigin = ""
	OriginAccepted  CodeOrigin = "accepted"
	OriginSavedFile CodeOrigin = "saved"
)

// AttemptResult is the feature record of one attempt.
type AttemptResult struct {
	Key       model.AttemptKey
	Execution model.ExecutionRecord
	// Malformed is set when the execution log ended inside a block; the
	// execution fields are partial.
	Malformed bool
	Errors    []model.ErrorOccurrence
	// Timeline is nil when the attempt has no usable timeline log or window.
	Timeline *model.TimelineRecord
	Metrics  *model.CodeMetrics
	Tokens   *features.Vector
	Origin   CodeOrigin
	Issues   []Issue
}

// Input holds the already-read content of an attempt.
type Input struct {
	Key          model.AttemptKey
	ExecutionLog []string
	// TimelineLog is nil when the attempt has no timeline file.
	TimelineLog []string
	// Activity supplies the window of the timeline; nil when unknown.
	Activity *model.Activity
	// SavedSource is the saved code file, nil when absent.
	SavedSource *string
}

// Processor runs the extraction components for single attempts.
type Processor struct {
	Metrics metrics.Provider
	Idle    time.Duration
}

// NewProcessor returns a processor using the token based metrics provider.
func NewProcessor(idle time.Duration) *Processor {
	if idle <= 0 {
		idle = timeline.IdleThreshold
	}
	return &Processor{Metrics: metrics.TokenProvider{}, Idle: idle}
}

// Analyze builds the record of one attempt from its content. It does no I/O.
func (p *Processor) Analyze(in Input) *AttemptResult {
	res := &AttemptResult{Key: in.Key}

	parsed, err := execlog.Parse(in.Key.String(), in.ExecutionLog)
	res.Execution = parsed.Record
	if err != nil {
		res.Malformed = true
		res.Issues = append(res.Issues, issueOf(err))
	}
	for _, ferr := range parsed.FieldErrors {
		res.Issues = append(res.Issues, issueOf(ferr))
	}
	res.Errors = errtally.Aggregate(parsed.ErrorNames)

	p.analyzeTimeline(res, in)
	p.analyzeCode(res, in)
	return res
}

func (p *Processor) analyzeTimeline(res *AttemptResult, in Input) {
	if in.TimelineLog == nil {
		res.Issues = append(res.Issues, Issue{Kind: IssueMissingTimeline})
		return
	}
	if in.Activity == nil {
		res.Issues = append(res.Issues, Issue{Kind: IssueMissingActivity})
		return
	}
	window, err := timeline.ParseWindow(in.Activity.Start, in.Activity.End, in.Activity.Kind)
	if err != nil {
		res.Issues = append(res.Issues, Issue{Kind: IssueInvalidWindow, Err: err})
		return
	}
	tl := timeline.Analyze(in.TimelineLog, window, p.Idle)
	for _, perr := range tl.ParseErrors {
		res.Issues = append(res.Issues, issueOf(perr))
	}
	record := tl.Record
	res.Timeline = &record
}

// analyzeCode extracts metrics and tokens from the accepted snippet. When
// either is unavailable it retries both on the saved code file.
func (p *Processor) analyzeCode(res *AttemptResult, in Input) {
	if src := res.Execution.AcceptedSource; src != nil {
		res.Metrics, res.Tokens = p.code(res, *src)
		res.Origin = OriginAccepted
	}
	if res.Metrics != nil && res.Tokens != nil {
		return
	}
	if in.SavedSource == nil {
		if res.Origin == OriginNone {
			res.Issues = append(res.Issues, Issue{Kind: IssueMissingCode})
		}
		return
	}
	res.Metrics, res.Tokens = p.code(res, *in.SavedSource)
	res.Origin = OriginSavedFile
}

func (p *Processor) code(res *AttemptResult, source string) (*model.CodeMetrics, *features.Vector) {
	var m *model.CodeMetrics
	if computed, err := p.Metrics.Compute(source); err != nil {
		res.Issues = append(res.Issues, Issue{Kind: IssueMetrics, Err: err})
	} else {
		m = &computed
	}
	tokens, err := features.Extract(source)
	if err != nil {
		res.Issues = append(res.Issues, Issue{Kind: IssueTokenization, Err: err})
	}
	return m, tokens
}

// ProcessAttempt reads the files of an attempt and analyzes them. Read
// failures of optional files become issues; only the execution log is
// required.
func (p *Processor) ProcessAttempt(a dataset.Attempt) *AttemptResult {
	in := Input{Key: a.Key, Activity: a.Activity}
	var issues []Issue

	lines, err := dataset.ReadLines(a.ExecutionLog)
	if err != nil {
		return &AttemptResult{
			Key:    a.Key,
			Issues: []Issue{{Kind: IssueRead, Err: fmt.Errorf("read execution log: %w", err)}},
		}
	}
	in.ExecutionLog = lines

	if a.TimelineLog != "" {
		lines, err := dataset.ReadLines(a.TimelineLog)
		if err != nil {
			issues = append(issues, Issue{Kind: IssueRead, Err: fmt.Errorf("read timeline log: %w", err)})
		} else if lines == nil {
			in.TimelineLog = []string{}
		} else {
			in.TimelineLog = lines
		}
	}
	if a.CodeFile != "" {
		src, err := dataset.ReadSource(a.CodeFile)
		if err != nil {
			issues = append(issues, Issue{Kind: IssueRead, Err: fmt.Errorf("read code file: %w", err)})
		} else {
			in.SavedSource = &src
		}
	}

	res := p.Analyze(in)
	res.Issues = append(issues, res.Issues...)
	return res
}

// SolutionResult holds the metrics of an instructor solution.
type SolutionResult struct {
	Exercise int
	Path     string
	Metrics  model.CodeMetrics
	Tokens   *features.Vector
}

// ProcessSolution computes metrics and tokens of an instructor solution.
// Both must succeed for the solution to be usable.
func (p *Processor) ProcessSolution(s dataset.Solution) (*SolutionResult, error) {
	source, err := dataset.ReadSource(s.Path)
	if err != nil {
		return nil, Issue{Kind: IssueRead, Err: err}
	}
	m, merr := p.Metrics.Compute(source)
	tokens, terr := features.Extract(source)
	if err := errors.Join(merr, terr); err != nil {
		return nil, issueOf(err)
	}
	return &SolutionResult{
		Exercise: s.Exercise,
		Path:     s.Path,
		Metrics:  m,
		Tokens:   tokens,
	}, nil
}
