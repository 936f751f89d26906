// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// ExamMargin widens the window of exam activities on both sides.
const ExamMargin = 2 * time.Hour

// ActivityWindow bounds the period in which an activity was open.
type ActivityWindow struct {
	Start  time.Time
	End    time.Time
	IsExam bool
}

// Effective returns the window used for timeline analysis.
func (w ActivityWindow) Effective() (start, end time.Time) {
	if w.IsExam {
		return w.Start.Add(-ExamMargin), w.End.Add(ExamMargin)
	}
	return w.Start, w.End
}

// Valid reports whether the window starts before it ends.
func (w ActivityWindow) Valid() bool {
	return w.Start.Before(w.End)
}

// ExecutionRecord summarizes one attempt's submission/test log.
type ExecutionRecord struct {
	SubmissionCount      int
	TestCount            int
	ErrorCount           int
	ExecutionTimeSeconds *float64
	FinalGrade           *float64
	Accepted             bool
	AcceptedSource       *string
}

// TimelineRecord holds interaction durations rebuilt from editor events.
type TimelineRecord struct {
	TotalInteraction   time.Duration
	FocusedInteraction time.Duration
}

// ErrorOccurrence counts one error type within an attempt.
type ErrorOccurrence struct {
	ErrorTypeName string `json:"error_type"`
	Occurrences   int    `json:"occurrences"`
}

// CodeMetrics holds complexity, raw line and Halstead metrics for a snippet.
type CodeMetrics struct {
	Complexity         int
	Functions          int
	Classes            int
	LOC                int
	LLOC               int
	SLOC               int
	Comments           int
	SingleLineComments int
	MultilineStrings   int
	BlankLines         int
	H1                 int
	H2                 int
	N1                 int
	N2                 int
	Vocabulary         int
	Length             int
	CalculatedLength   float64
	Volume             float64
	Difficulty         float64
	Effort             float64
	Bugs               float64
	Time               float64
}

// AttemptKey identifies a student's attempt at one exercise.
type AttemptKey struct {
	Term     string
	Class    int
	Student  int
	Activity int
	Exercise int
}

// String renders the key as term/class/student/activity_exercise.
func (k AttemptKey) String() string {
	return fmt.Sprintf("%s/%d/%d/%d_%d", k.Term, k.Class, k.Student, k.Activity, k.Exercise)
}

// ClassSection is one class offered in a term.
type ClassSection struct {
	Term        string
	Code        int
	Description string
	Path        string
}

// Activity describes an assignment or exam of a class.
type Activity struct {
	Term           string
	Class          int
	Code           int
	Title          string
	Start          string
	End            string
	Language       string
	Kind           string
	Weight         *float64
	TotalExercises *int
	// Blocks lists exercise codes; a block with several codes means "any of".
	Blocks [][]int
	Path   string
}

// Student holds the profile fields read from user.data.
type Student struct {
	Term           string
	Class          int
	Code           int
	CourseID       string
	CourseName     string
	InstitutionID  string
	HighSchoolName string
	SchoolType     string
	SchoolShift    string
	GraduationYear string
	Sex            string
	BirthYear      string
	CivilStatus    string
	HasKids        string
	Path           string
}

// SummaryConfig defines filters for reports.
type SummaryConfig struct {
	RunID    string
	Term     string
	TopN     int
	Activity int
}

// AttemptSummary is a compact attempt row used by reports.
type AttemptSummary struct {
	Key            AttemptKey
	Submissions    int
	Tests          int
	Errors         int
	Accepted       bool
	FinalGrade     *float64
	TotalSeconds   float64
	FocusedSeconds float64
	HasTimeline    bool
	IssueCount     int
}

// ErrorAggregate sums error occurrences across attempts.
type ErrorAggregate struct {
	ErrorTypeName string
	Occurrences   int
	Attempts      int
}

// ActivityAggregate summarizes attempts of one activity.
type ActivityAggregate struct {
	Term           string
	Class          int
	Activity       int
	Attempts       int
	Accepted       int
	AvgSubmissions float64
	AvgFocused     float64
}

// Run is one extraction run stored in the database.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Dataset    string
	Attempts   int
	Issues     int
}
