package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
)

// InsertClasses stores the class sections of a run.
func (s *Store) InsertClasses(ctx context.Context, runID string, classes []model.ClassSection) (err error) {
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
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO classes (run_id, term, code, description) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(stmt)
	for _, c := range classes {
		if _, err := stmt.ExecContext(ctx, runID, c.Term, c.Code, c.Description); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListClasses returns the class sections stored for a run.
func (s *Store) ListClasses(ctx context.Context, runID string) ([]model.ClassSection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, code, description FROM classes WHERE run_id = ? ORDER BY term, code`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var classes []model.ClassSection
	for rows.Next() {
		var c model.ClassSection
		if err := rows.Scan(&c.Term, &c.Code, &c.Description); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

// InsertActivities stores the activity descriptors of a run.
func (s *Store) InsertActivities(ctx context.Context, runID string, activities []model.Activity) (err error) {
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
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO activities (run_id, term, class, code, title, starts_at, ends_at, kind, weight)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(stmt)
	for _, a := range activities {
		if _, err := stmt.ExecContext(ctx, runID, a.Term, a.Class, a.Code, a.Title, a.Start, a.End, a.Kind, floatOrNil(a.Weight)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListActivities returns the activities stored for a run.
func (s *Store) ListActivities(ctx context.Context, runID string) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, class, code, title, starts_at, ends_at, kind, weight
		 FROM activities WHERE run_id = ? ORDER BY term, class, code`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		var weight sql.NullFloat64
		if err := rows.Scan(&a.Term, &a.Class, &a.Code, &a.Title, &a.Start, &a.End, &a.Kind, &weight); err != nil {
			return nil, err
		}
		a.Weight = nullFloat(weight)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

// InsertStudents stores the student profiles of a run.
func (s *Store) InsertStudents(ctx context.Context, runID string, students []model.Student) (err error) {
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
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO students (run_id, term, class, code, course_id, course_name, institution_id,
			high_school_name, school_type, school_shift, graduation_year, sex, birth_year, civil_status, has_kids)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(stmt)
	for _, st := range students {
		if _, err := stmt.ExecContext(ctx, runID, st.Term, st.Class, st.Code, st.CourseID, st.CourseName,
			st.InstitutionID, st.HighSchoolName, st.SchoolType, st.SchoolShift, st.GraduationYear,
			st.Sex, st.BirthYear, st.CivilStatus, st.HasKids); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListStudents returns the student profiles stored for a run.
func (s *Store) ListStudents(ctx context.Context, runID string) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, class, code, course_id, course_name, institution_id, high_school_name,
			school_type, school_shift, graduation_year, sex, birth_year, civil_status, has_kids
		 FROM students WHERE run_id = ? ORDER BY term, class, code`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.Term, &st.Class, &st.Code, &st.CourseID, &st.CourseName, &st.InstitutionID,
			&st.HighSchoolName, &st.SchoolType, &st.SchoolShift, &st.GraduationYear, &st.Sex,
			&st.BirthYear, &st.CivilStatus, &st.HasKids); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

// InsertSolutions stores instructor solution metrics of a run.
func (s *Store) InsertSolutions(ctx context.Context, runID string, solutions []*pipeline.SolutionResult) (err error) {
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
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO solutions (run_id, exercise, path, metrics, tokens) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(stmt)
	for _, sol := range solutions {
		metrics, err := json.Marshal(sol.Metrics)
		if err != nil {
			return err
		}
		tokens, err := json.Marshal(sol.Tokens)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, sol.Exercise, sol.Path, string(metrics), string(tokens)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSolutions returns the solutions stored for a run, by exercise.
func (s *Store) ListSolutions(ctx context.Context, runID string) ([]*pipeline.SolutionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise, path, metrics, tokens FROM solutions WHERE run_id = ? ORDER BY exercise`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var solutions []*pipeline.SolutionResult
	for rows.Next() {
		sol := &pipeline.SolutionResult{Tokens: &features.Vector{}}
		var metrics, tokens string
		if err := rows.Scan(&sol.Exercise, &sol.Path, &metrics, &tokens); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metrics), &sol.Metrics); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tokens), sol.Tokens); err != nil {
			return nil, err
		}
		solutions = append(solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return solutions, nil
}
