package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/cbminer/internal/dataset"
)

// Runner processes many attempts concurrently. Attempts share no state, so
// the only coordination is collecting results.
type Runner struct {
	Processor *Processor
	// Workers bounds concurrent attempts; zero means GOMAXPROCS.
	Workers int
	// Timeout is a wall-clock guard per attempt; zero disables it.
	Timeout time.Duration
}

// Run processes attempts and returns their results in input order. It only
// fails when ctx is canceled.
func (r *Runner) Run(ctx context.Context, attempts []dataset.Attempt) ([]*AttemptResult, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]*AttemptResult, len(attempts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, a := range attempts {
		i, a := i, a
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.process(gctx, a)
			if err != nil {
				return err
			}
			results[i] = res
			logIssues(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) process(ctx context.Context, a dataset.Attempt) (*AttemptResult, error) {
	if r.Timeout <= 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return r.Processor.ProcessAttempt(a), nil
	}

	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()
	// The abandoned goroutine finishes on its own; its result is dropped.
	done := make(chan *AttemptResult, 1)
	go func() {
		done <- r.Processor.ProcessAttempt(a)
	}()
	select {
	case res := <-done:
		return res, nil
	case <-timer.C:
		return &AttemptResult{
			Key:    a.Key,
			Issues: []Issue{{Kind: IssueTimeout, Err: fmt.Errorf("attempt exceeded %s", r.Timeout)}},
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func logIssues(res *AttemptResult) {
	for _, issue := range res.Issues {
		switch issue.Kind {
		case IssueMissingTimeline, IssueMissingCode:
			log.Debug().Str("attempt", res.Key.String()).Str("issue", string(issue.Kind)).Msg("attempt issue")
		case IssueMalformedLog, IssueTimeout, IssueRead:
			log.Error().Str("attempt", res.Key.String()).Str("issue", string(issue.Kind)).Err(issue.Err).Msg("attempt issue")
		default:
			log.Warn().Str("attempt", res.Key.String()).Str("issue", string(issue.Kind)).Err(issue.Err).Msg("attempt issue")
		}
	}
}
