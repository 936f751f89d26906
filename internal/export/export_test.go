package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cbminer/internal/features"
	"github.com/verte-zerg/cbminer/internal/model"
	"github.com/verte-zerg/cbminer/internal/pipeline"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func column(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func ptr[T any](v T) *T { return &v }

func results() []*pipeline.AttemptResult {
	return []*pipeline.AttemptResult{
		{
			Key: model.AttemptKey{Term: "2019-1", Class: 220, Student: 1001, Activity: 41, Exercise: 7},
			Execution: model.ExecutionRecord{
				SubmissionCount: 2, TestCount: 1, ErrorCount: 1,
				ExecutionTimeSeconds: ptr(0.25), FinalGrade: ptr(100.0), Accepted: true,
			},
			Errors: []model.ErrorOccurrence{
				{ErrorTypeName: "ValueError", Occurrences: 2},
				{ErrorTypeName: "NameError", Occurrences: 1},
			},
			Timeline: &model.TimelineRecord{TotalInteraction: 90 * time.Second, FocusedInteraction: 1500 * time.Millisecond},
			Metrics:  &model.CodeMetrics{Complexity: 3, LOC: 4, Volume: 12.5},
			Tokens:   &features.Vector{Imports: 1, IdentifierMean: 2.5},
			Origin:   pipeline.OriginAccepted,
		},
		{
			Key:       model.AttemptKey{Term: "2019-1", Class: 220, Student: 1002, Activity: 41, Exercise: 7},
			Execution: model.ExecutionRecord{SubmissionCount: 1},
		},
	}
}

func TestAttemptHeaderLayout(t *testing.T) {
	header := AttemptHeader()
	assert.Len(t, header, 5+10+22+71)
	assert.Equal(t, "term", header[0])
	assert.Equal(t, "complexity", header[15])
	assert.Equal(t, "imports", header[37])
	assert.Equal(t, "uident_chars", header[len(header)-1])
	assert.Len(t, SolutionHeader(), 1+22+71)
}

func TestWriteAttempts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAttempts(&buf, results()))
	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 3)
	header := rows[0]
	full, empty := rows[1], rows[2]
	require.Len(t, full, len(header))
	require.Len(t, empty, len(header))

	assert.Equal(t, []string{"2019-1", "220", "1001", "41", "7"}, full[:5])
	assert.Equal(t, "90", full[column(header, "total_time")])
	assert.Equal(t, "1.5", full[column(header, "focus_time")])
	assert.Equal(t, "0.25", full[column(header, "exec_time")])
	assert.Equal(t, "100", full[column(header, "final_grade")])
	assert.Equal(t, "true", full[column(header, "accepted")])
	assert.Equal(t, "accepted", full[column(header, "code_origin")])
	assert.Equal(t, "3", full[column(header, "complexity")])
	assert.Equal(t, "12.5", full[column(header, "volume")])
	assert.Equal(t, "1", full[column(header, "imports")])
	assert.Equal(t, "2.5", full[column(header, "uident_mean")])

	for _, name := range []string{"total_time", "focus_time", "exec_time", "final_grade", "complexity", "volume", "imports", "uident_mean"} {
		assert.Empty(t, empty[column(header, name)], name)
	}
	assert.Equal(t, "false", empty[column(header, "accepted")])
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteErrors(&buf, results()))
	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"term", "class", "student", "activity", "exercise", "error_type", "occurrences"},
		{"2019-1", "220", "1001", "41", "7", "ValueError", "2"},
		{"2019-1", "220", "1001", "41", "7", "NameError", "1"},
	}, rows)
}

func TestWriteActivitiesAndStudents(t *testing.T) {
	var buf bytes.Buffer
	activities := []model.Activity{{
		Term: "2019-1", Class: 220, Code: 41, Title: "Loops, lists", Kind: "exam",
		Weight: ptr(2.5), TotalExercises: ptr(3), Blocks: [][]int{{1}, {2, 5}, {3}},
	}}
	require.NoError(t, WriteActivities(&buf, activities))
	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, "Loops, lists", rows[1][3])
	assert.Equal(t, "2.5", rows[1][8])
	assert.Equal(t, "3", rows[1][9])
	assert.Equal(t, "1;2 or 5;3", rows[1][10])

	buf.Reset()
	require.NoError(t, WriteStudents(&buf, []model.Student{{Term: "2019-1", Class: 220, Code: 1001, Sex: "F"}}))
	rows = readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, "1001", rows[1][2])
	assert.Equal(t, "F", rows[1][10])
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteDir(dir, Tables{
		Attempts:  results(),
		Classes:   []model.ClassSection{{Term: "2019-1", Code: 220, Description: "Programming, Intro"}},
		Solutions: []*pipeline.SolutionResult{{Exercise: 7, Metrics: model.CodeMetrics{Complexity: 1}, Tokens: &features.Vector{}}},
	})
	require.NoError(t, err)
	require.Len(t, paths, 6)

	data, err := os.ReadFile(filepath.Join(dir, SolutionsFile))
	require.NoError(t, err)
	rows := readCSV(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"7", "1"}, rows[1][:2])

	data, err = os.ReadFile(filepath.Join(dir, ClassesFile))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"term", "class", "description"}, {"2019-1", "220", "Programming, Intro"}}, readCSV(t, data))

	data, err = os.ReadFile(filepath.Join(dir, StudentsFile))
	require.NoError(t, err)
	assert.Len(t, readCSV(t, data), 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	paths, err = WriteDir(dir, Tables{})
	require.NoError(t, err)
	assert.Len(t, paths, 5)
}
