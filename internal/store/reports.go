package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/verte-zerg/cbminer/internal/model"
)

// filter builds the WHERE clause shared by report queries. alias prefixes
// the attempt columns.
func filter(cfg model.SummaryConfig, alias string) (string, []any) {
	clauses := []string{alias + "run_id = ?"}
	args := []any{cfg.RunID}
	if cfg.Term != "" {
		clauses = append(clauses, alias+"term = ?")
		args = append(args, cfg.Term)
	}
	if cfg.Activity > 0 {
		clauses = append(clauses, alias+"activity = ?")
		args = append(args, cfg.Activity)
	}
	return strings.Join(clauses, " AND "), args
}

// ListAttemptSummaries returns compact attempt rows filtered by cfg.
func (s *Store) ListAttemptSummaries(ctx context.Context, cfg model.SummaryConfig) ([]model.AttemptSummary, error) {
	where, args := filter(cfg, "a.")
	query := fmt.Sprintf(`SELECT a.term, a.class, a.student, a.activity, a.exercise,
			a.submissions, a.tests, a.errors, a.accepted, a.final_grade, a.total_ms, a.focused_ms,
			(SELECT COUNT(*) FROM attempt_issues i
			 WHERE i.run_id = a.run_id AND i.term = a.term AND i.class = a.class
			   AND i.student = a.student AND i.activity = a.activity AND i.exercise = a.exercise) AS issues
		FROM attempts a
		WHERE %s
		ORDER BY a.term, a.class, a.student, a.activity, a.exercise`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var summaries []model.AttemptSummary
	for rows.Next() {
		var sum model.AttemptSummary
		k := &sum.Key
		var grade sql.NullFloat64
		var totalMs, focusedMs sql.NullInt64
		if err := rows.Scan(&k.Term, &k.Class, &k.Student, &k.Activity, &k.Exercise,
			&sum.Submissions, &sum.Tests, &sum.Errors, &sum.Accepted, &grade,
			&totalMs, &focusedMs, &sum.IssueCount); err != nil {
			return nil, err
		}
		sum.FinalGrade = nullFloat(grade)
		if totalMs.Valid && focusedMs.Valid {
			sum.HasTimeline = true
			sum.TotalSeconds = float64(totalMs.Int64) / 1000
			sum.FocusedSeconds = float64(focusedMs.Int64) / 1000
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// ErrorAggregates sums error occurrences per type, most frequent first.
// TopN limits the rows when positive.
func (s *Store) ErrorAggregates(ctx context.Context, cfg model.SummaryConfig) ([]model.ErrorAggregate, error) {
	where, args := filter(cfg, "")
	query := fmt.Sprintf(`SELECT error_type, SUM(occurrences) AS total,
			COUNT(DISTINCT term || '/' || class || '/' || student || '/' || activity || '_' || exercise) AS attempts
		FROM attempt_errors
		WHERE %s
		GROUP BY error_type
		ORDER BY total DESC, error_type ASC`, where)
	if cfg.TopN > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.TopN)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ErrorAggregate
	for rows.Next() {
		var agg model.ErrorAggregate
		if err := rows.Scan(&agg.ErrorTypeName, &agg.Occurrences, &agg.Attempts); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ActivityAggregates summarizes attempts per activity. AvgFocused is in
// seconds over attempts that have a timeline.
func (s *Store) ActivityAggregates(ctx context.Context, cfg model.SummaryConfig) ([]model.ActivityAggregate, error) {
	where, args := filter(cfg, "")
	query := fmt.Sprintf(`SELECT term, class, activity, COUNT(*) AS attempts,
			SUM(accepted) AS accepted, AVG(submissions) AS avg_submissions,
			COALESCE(AVG(focused_ms), 0) / 1000.0 AS avg_focused
		FROM attempts
		WHERE %s
		GROUP BY term, class, activity
		ORDER BY term, class, activity`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ActivityAggregate
	for rows.Next() {
		var agg model.ActivityAggregate
		if err := rows.Scan(&agg.Term, &agg.Class, &agg.Activity, &agg.Attempts,
			&agg.Accepted, &agg.AvgSubmissions, &agg.AvgFocused); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// IssueCounts returns the number of issues per kind.
func (s *Store) IssueCounts(ctx context.Context, cfg model.SummaryConfig) (map[string]int, error) {
	where, args := filter(cfg, "")
	query := fmt.Sprintf(`SELECT kind, COUNT(*) FROM attempt_issues WHERE %s GROUP BY kind`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	counts := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
