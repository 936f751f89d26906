package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
)

// InsertAttempts stores attempt results with their error and issue rows in
// one transaction.
func (s *Store) InsertAttempts(ctx context.Context, runID string, results []*pipeline.AttemptResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	attemptStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO attempts (run_id, term, class, student, activity, exercise,
			submissions, tests, errors, exec_time, final_grade, accepted, malformed, accepted_source,
			total_ms, focused_ms, code_origin, metrics, tokens)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(attemptStmt)
	errorStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attempt_errors (run_id, term, class, student, activity, exercise, error_type, occurrences)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(errorStmt)
	issueStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attempt_issues (run_id, term, class, student, activity, exercise, kind, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(issueStmt)

	for _, res := range results {
		if res == nil {
			continue
		}
		k := res.Key
		metrics, err := jsonOrNil(res.Metrics)
		if err != nil {
			return err
		}
		tokens, err := jsonOrNil(res.Tokens)
		if err != nil {
			return err
		}
		var totalMs, focusedMs any
		if res.Timeline != nil {
			totalMs = res.Timeline.TotalInteraction.Milliseconds()
			focusedMs = res.Timeline.FocusedInteraction.Milliseconds()
		}
		rec := res.Execution
		if _, err := attemptStmt.ExecContext(ctx, runID, k.Term, k.Class, k.Student, k.Activity, k.Exercise,
			rec.SubmissionCount, rec.TestCount, rec.ErrorCount,
			floatOrNil(rec.ExecutionTimeSeconds), floatOrNil(rec.FinalGrade),
			rec.Accepted, res.Malformed, stringOrNil(rec.AcceptedSource),
			totalMs, focusedMs, string(res.Origin), metrics, tokens,
		); err != nil {
			return err
		}
		for _, occ := range res.Errors {
			if _, err := errorStmt.ExecContext(ctx, runID, k.Term, k.Class, k.Student, k.Activity, k.Exercise,
				occ.ErrorTypeName, occ.Occurrences); err != nil {
				return err
			}
		}
		for _, issue := range res.Issues {
			message := ""
			if issue.Err != nil {
				message = issue.Err.Error()
			}
			if _, err := issueStmt.ExecContext(ctx, runID, k.Term, k.Class, k.Student, k.Activity, k.Exercise,
				string(issue.Kind), message); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ListAttempts loads the stored results of a run ordered by attempt key.
// Issues are restored with their kind and message.
func (s *Store) ListAttempts(ctx context.Context, runID string) ([]*pipeline.AttemptResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, class, student, activity, exercise, submissions, tests, errors,
			exec_time, final_grade, accepted, malformed, accepted_source, total_ms, focused_ms,
			code_origin, metrics, tokens
		 FROM attempts WHERE run_id = ?
		 ORDER BY term, class, student, activity, exercise`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []*pipeline.AttemptResult
	index := map[model.AttemptKey]*pipeline.AttemptResult{}
	for rows.Next() {
		res := &pipeline.AttemptResult{}
		k := &res.Key
		rec := &res.Execution
		var (
			execTime, grade    sql.NullFloat64
			source             sql.NullString
			totalMs, focusedMs sql.NullInt64
			origin             string
			metrics, tokens    sql.NullString
		)
		if err := rows.Scan(&k.Term, &k.Class, &k.Student, &k.Activity, &k.Exercise,
			&rec.SubmissionCount, &rec.TestCount, &rec.ErrorCount,
			&execTime, &grade, &rec.Accepted, &res.Malformed, &source, &totalMs, &focusedMs,
			&origin, &metrics, &tokens); err != nil {
			return nil, err
		}
		rec.ExecutionTimeSeconds = nullFloat(execTime)
		rec.FinalGrade = nullFloat(grade)
		if source.Valid {
			src := source.String
			rec.AcceptedSource = &src
		}
		if totalMs.Valid && focusedMs.Valid {
			res.Timeline = &model.TimelineRecord{
				TotalInteraction:   time.Duration(totalMs.Int64) * time.Millisecond,
				FocusedInteraction: time.Duration(focusedMs.Int64) * time.Millisecond,
			}
		}
		res.Origin = pipeline.CodeOrigin(origin)
		if metrics.Valid {
			var m model.CodeMetrics
			if err := json.Unmarshal([]byte(metrics.String), &m); err != nil {
				return nil, err
			}
			res.Metrics = &m
		}
		if tokens.Valid {
			var v features.Vector
			if err := json.Unmarshal([]byte(tokens.String), &v); err != nil {
				return nil, err
			}
			res.Tokens = &v
		}
		results = append(results, res)
		index[res.Key] = res
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachErrors(ctx, runID, index); err != nil {
		return nil, err
	}
	if err := s.attachIssues(ctx, runID, index); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) attachErrors(ctx context.Context, runID string, index map[model.AttemptKey]*pipeline.AttemptResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, class, student, activity, exercise, error_type, occurrences
		 FROM attempt_errors WHERE run_id = ?
		 ORDER BY rowid`, runID)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var k model.AttemptKey
		var occ model.ErrorOccurrence
		if err := rows.Scan(&k.Term, &k.Class, &k.Student, &k.Activity, &k.Exercise, &occ.ErrorTypeName, &occ.Occurrences); err != nil {
			return err
		}
		if res, ok := index[k]; ok {
			res.Errors = append(res.Errors, occ)
		}
	}
	return rows.Err()
}

func (s *Store) attachIssues(ctx context.Context, runID string, index map[model.AttemptKey]*pipeline.AttemptResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, class, student, activity, exercise, kind, message
		 FROM attempt_issues WHERE run_id = ?
		 ORDER BY rowid`, runID)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var k model.AttemptKey
		var kind, message string
		if err := rows.Scan(&k.Term, &k.Class, &k.Student, &k.Activity, &k.Exercise, &kind, &message); err != nil {
			return err
		}
		res, ok := index[k]
		if !ok {
			continue
		}
		issue := pipeline.Issue{Kind: pipeline.IssueKind(kind)}
		if message != "" {
			issue.Err = errors.New(message)
		}
		res.Issues = append(res.Issues, issue)
	}
	return rows.Err()
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}

func jsonOrNil[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
