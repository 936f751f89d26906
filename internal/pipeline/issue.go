package pipeline

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/cbminer/internal/execlog"
	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/metrics"
	"github.com/verte-zerg/cbminer/internal/timeline"
)

// IssueKind names a recovered failure.
type IssueKind string

const (
	IssueRead            IssueKind = "read"
	IssueMalformedLog    IssueKind = "malformed-log"
	IssueNumericField    IssueKind = "numeric-field"
	IssueTimestamp       IssueKind = "timestamp"
	IssueTokenization    IssueKind = "tokenization"
	IssueMetrics         IssueKind = "metrics"
	IssueMissingActivity IssueKind = "missing-activity"
	IssueInvalidWindow   IssueKind = "invalid-window"
	IssueMissingTimeline IssueKind = "missing-timeline"
	IssueMissingCode     IssueKind = "missing-code"
	IssueTimeout         IssueKind = "timeout"
)

// Issue is a failure that degraded part of a result instead of aborting it.
type Issue struct {
	Kind IssueKind
	Err  error
}

func (i Issue) Error() string {
	if i.Err == nil {
		return string(i.Kind)
	}
	return fmt.Sprintf("%s: %v", i.Kind, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}

// classify picks the issue kind of a component error.
func classify(err error) IssueKind {
	var (
		malformed *execlog.MalformedLogError
		field     *execlog.NumericFieldParseError
		ts        *timeline.TimestampParseError
		tok       *features.Error
		comp      *metrics.ComputationError
	)
	switch {
	case errors.As(err, &malformed):
		return IssueMalformedLog
	case errors.As(err, &field):
		return IssueNumericField
	case errors.As(err, &ts):
		return IssueTimestamp
	case errors.As(err, &tok):
		return IssueTokenization
	case errors.As(err, &comp):
		return IssueMetrics
	default:
		return IssueRead
	}
}

func issueOf(err error) Issue {
	return Issue{Kind: classify(err), Err: err}
}
