// Package export writes extraction results as CSV tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
)

// File names written by WriteDir.
const (
	AttemptsFile   = "executions.csv"
	ErrorsFile     = "errors.csv"
	ClassesFile    = "classes.csv"
	StudentsFile   = "students.csv"
	ActivitiesFile = "activities.csv"
	SolutionsFile  = "solutions.csv"
)

var metricNames = []string{
	"complexity", "n_classes", "n_functions", "loc", "lloc", "sloc",
	"single_comments", "comments", "multilines", "blank_lines",
	"h1", "h2", "N1", "N2", "h", "N", "calculated_N",
	"volume", "difficulty", "effort", "bugs", "time",
}

var keyNames = []string{"term", "class", "student", "activity", "exercise"}

// AttemptHeader returns the column names of the attempts table.
func AttemptHeader() []string {
	header := append([]string{}, keyNames...)
	header = append(header,
		"total_time", "focus_time", "submissions", "tests", "errors",
		"exec_time", "final_grade", "accepted", "malformed", "code_origin")
	header = append(header, metricNames...)
	return append(header, features.FieldNames()...)
}

// SolutionHeader returns the column names of the solutions table.
func SolutionHeader() []string {
	header := []string{"exercise"}
	header = append(header, metricNames...)
	return append(header, features.FieldNames()...)
}

// WriteAttempts writes one row per attempt. Missing values are empty cells.
func WriteAttempts(w io.Writer, results []*pipeline.AttemptResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AttemptHeader()); err != nil {
		return err
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		rec := res.Execution
		row := keyCells(res.Key)
		if res.Timeline != nil {
			row = append(row,
				formatFloat(res.Timeline.TotalInteraction.Seconds()),
				formatFloat(res.Timeline.FocusedInteraction.Seconds()))
		} else {
			row = append(row, "", "")
		}
		row = append(row,
			strconv.Itoa(rec.SubmissionCount),
			strconv.Itoa(rec.TestCount),
			strconv.Itoa(rec.ErrorCount),
			optFloat(rec.ExecutionTimeSeconds),
			optFloat(rec.FinalGrade),
			strconv.FormatBool(rec.Accepted),
			strconv.FormatBool(res.Malformed),
			string(res.Origin),
		)
		row = append(row, metricCells(res.Metrics)...)
		row = append(row, tokenCells(res.Tokens)...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteErrors writes one row per error type and attempt.
func WriteErrors(w io.Writer, results []*pipeline.AttemptResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, keyNames...), "error_type", "occurrences")); err != nil {
		return err
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, occ := range res.Errors {
			row := append(keyCells(res.Key), occ.ErrorTypeName, strconv.Itoa(occ.Occurrences))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteClasses writes the class sections.
func WriteClasses(w io.Writer, classes []model.ClassSection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"term", "class", "description"}); err != nil {
		return err
	}
	for _, c := range classes {
		if err := cw.Write([]string{c.Term, strconv.Itoa(c.Code), c.Description}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStudents writes the student profiles.
func WriteStudents(w io.Writer, students []model.Student) error {
	cw := csv.NewWriter(w)
	header := []string{
		"term", "class", "student", "course_id", "course_name", "institution_id",
		"high_school_name", "school_type", "shift", "graduation_year", "sex",
		"year_of_birth", "civil_status", "have_kids",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, st := range students {
		row := []string{
			st.Term, strconv.Itoa(st.Class), strconv.Itoa(st.Code),
			st.CourseID, st.CourseName, st.InstitutionID, st.HighSchoolName,
			st.SchoolType, st.SchoolShift, st.GraduationYear, st.Sex,
			st.BirthYear, st.CivilStatus, st.HasKids,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteActivities writes the activity descriptors. Exercise blocks are
// separated by ";" and alternatives inside a block by " or ".
func WriteActivities(w io.Writer, activities []model.Activity) error {
	cw := csv.NewWriter(w)
	header := []string{
		"term", "class", "activity", "title", "start", "end", "language",
		"type", "weight", "total_exercises", "exercises",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range activities {
		total := ""
		if a.TotalExercises != nil {
			total = strconv.Itoa(*a.TotalExercises)
		}
		row := []string{
			a.Term, strconv.Itoa(a.Class), strconv.Itoa(a.Code), a.Title,
			a.Start, a.End, a.Language, a.Kind, optFloat(a.Weight), total,
			formatBlocks(a.Blocks),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSolutions writes instructor solution metrics.
func WriteSolutions(w io.Writer, solutions []*pipeline.SolutionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SolutionHeader()); err != nil {
		return err
	}
	for _, sol := range solutions {
		if sol == nil {
			continue
		}
		row := []string{strconv.Itoa(sol.Exercise)}
		metrics := sol.Metrics
		row = append(row, metricCells(&metrics)...)
		row = append(row, tokenCells(sol.Tokens)...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Tables groups everything WriteDir exports. Nil slices produce header-only
// files, except Solutions which is skipped when empty.
type Tables struct {
	Attempts   []*pipeline.AttemptResult
	Classes    []model.ClassSection
	Students   []model.Student
	Activities []model.Activity
	Solutions  []*pipeline.SolutionResult
}

type table struct {
	name  string
	write func(io.Writer) error
}

// WriteDir writes every table into dir and returns the written paths.
func WriteDir(dir string, t Tables) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	jobs := []table{
		{AttemptsFile, func(w io.Writer) error { return WriteAttempts(w, t.Attempts) }},
		{ErrorsFile, func(w io.Writer) error { return WriteErrors(w, t.Attempts) }},
		{ClassesFile, func(w io.Writer) error { return WriteClasses(w, t.Classes) }},
		{StudentsFile, func(w io.Writer) error { return WriteStudents(w, t.Students) }},
		{ActivitiesFile, func(w io.Writer) error { return WriteActivities(w, t.Activities) }},
	}
	if len(t.Solutions) > 0 {
		jobs = append(jobs, table{SolutionsFile, func(w io.Writer) error { return WriteSolutions(w, t.Solutions) }})
	}
	var written []string
	for _, job := range jobs {
		path := filepath.Join(dir, job.name)
		if err := writeFile(path, job.write); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// writeFile replaces path atomically through a temporary file.
func writeFile(path string, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.csv")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if err := write(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func keyCells(k model.AttemptKey) []string {
	return []string{
		k.Term,
		strconv.Itoa(k.Class),
		strconv.Itoa(k.Student),
		strconv.Itoa(k.Activity),
		strconv.Itoa(k.Exercise),
	}
}

func metricCells(m *model.CodeMetrics) []string {
	if m == nil {
		return make([]string, len(metricNames))
	}
	ints := []int{
		m.Complexity, m.Classes, m.Functions, m.LOC, m.LLOC, m.SLOC,
		m.SingleLineComments, m.Comments, m.MultilineStrings, m.BlankLines,
		m.H1, m.H2, m.N1, m.N2, m.Vocabulary, m.Length,
	}
	cells := make([]string, 0, len(metricNames))
	for _, v := range ints {
		cells = append(cells, strconv.Itoa(v))
	}
	for _, v := range []float64{m.CalculatedLength, m.Volume, m.Difficulty, m.Effort, m.Bugs, m.Time} {
		cells = append(cells, formatFloat(v))
	}
	return cells
}

func tokenCells(v *features.Vector) []string {
	if v == nil {
		return make([]string, len(features.FieldNames()))
	}
	fields := v.Fields()
	cells := make([]string, len(fields))
	for i, f := range fields {
		cells[i] = formatFloat(f.Value)
	}
	return cells
}

func formatBlocks(blocks [][]int) string {
	parts := make([]string, len(blocks))
	for i, block := range blocks {
		codes := make([]string, len(block))
		for j, code := range block {
			codes[j] = strconv.Itoa(code)
		}
		parts[i] = strings.Join(codes, " or ")
	}
	return strings.Join(parts, ";")
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
