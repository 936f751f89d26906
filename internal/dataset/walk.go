package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phuslu/log"

	"github.com/verte-zerg/cbminer/internal/model"
)

// Directory and file names of the dataset layout:
//
//	<root>/<term>/<class>/assessments/<activity>.data
//	<root>/<term>/<class>/users/<student>/user.data
//	<root>/<term>/<class>/users/<student>/executions/<activity>_<exercise>.log
//	<root>/<term>/<class>/users/<student>/codemirror/<activity>_<exercise>.log
//	<root>/<term>/<class>/users/<student>/codes/<activity>_<exercise>.py
const (
	AssessmentsDir = "assessments"
	UsersDir       = "users"
	ExecutionsDir  = "executions"
	TimelineDir    = "codemirror"
	CodesDir       = "codes"
	ActivityExt    = ".data"
	StudentFile    = "user.data"
	LogExt         = ".log"
	SourceExt      = ".py"
	SolutionExt    = ".code"
)

// Attempt locates the files of one student's attempt at an exercise.
type Attempt struct {
	Key          model.AttemptKey
	ExecutionLog string
	// TimelineLog and CodeFile are empty when the file does not exist.
	TimelineLog string
	CodeFile    string
	// Activity is nil when the class has no descriptor for the activity.
	Activity *model.Activity
}

// Solution is an instructor solution file.
type Solution struct {
	Exercise int
	Path     string
}

// Index is everything discovered under a dataset root.
type Index struct {
	Classes    []model.ClassSection
	Activities []model.Activity
	Students   []model.Student
	Attempts   []Attempt
}

// Scan walks root and indexes every class, activity, student and attempt.
// Entries that do not follow the layout are logged and skipped.
func Scan(root string) (*Index, error) {
	terms, err := Terms(root)
	if err != nil {
		return nil, err
	}
	index := &Index{}
	for _, term := range terms {
		classes, err := Classes(root, term)
		if err != nil {
			log.Warn().Err(err).Str("term", term).Msg("skip term")
			continue
		}
		for _, class := range classes {
			index.Classes = append(index.Classes, class)

			activities, err := Activities(class)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("path", class.Path).Msg("read activities")
			}
			index.Activities = append(index.Activities, activities...)

			students, err := Students(class)
			if err != nil {
				log.Warn().Err(err).Str("path", class.Path).Msg("read students")
				continue
			}
			index.Students = append(index.Students, students...)

			for _, student := range students {
				attempts, err := Attempts(student, activities)
				if err != nil {
					log.Warn().Err(err).Str("path", student.Path).Msg("read attempts")
					continue
				}
				index.Attempts = append(index.Attempts, attempts...)
			}
		}
	}
	log.Info().
		Int("classes", len(index.Classes)).
		Int("activities", len(index.Activities)).
		Int("students", len(index.Students)).
		Int("attempts", len(index.Attempts)).
		Str("root", root).
		Msg("dataset scanned")
	return index, nil
}

// Terms lists the term directories of the dataset root.
func Terms(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var terms []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			terms = append(terms, entry.Name())
		}
	}
	return terms, nil
}

// Classes lists the class sections of a term. The description comes from the
// first activity file that carries one.
func Classes(root, term string) ([]model.ClassSection, error) {
	termDir := filepath.Join(root, term)
	entries, err := os.ReadDir(termDir)
	if err != nil {
		return nil, err
	}
	var classes []model.ClassSection
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		code, err := strconv.Atoi(entry.Name())
		if err != nil {
			log.Warn().Str("term", term).Str("dir", entry.Name()).Msg("skip non-numeric class directory")
			continue
		}
		class := model.ClassSection{
			Term: term,
			Code: code,
			Path: filepath.Join(termDir, entry.Name()),
		}
		class.Description = classDescription(filepath.Join(class.Path, AssessmentsDir))
		classes = append(classes, class)
	}
	return classes, nil
}

func classDescription(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ActivityExt {
			continue
		}
		lines, err := ReadLines(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if name, ok := ParseClassName(lines); ok {
			return name
		}
	}
	return ""
}

// Activities reads every activity descriptor of a class.
func Activities(class model.ClassSection) ([]model.Activity, error) {
	dir := filepath.Join(class.Path, AssessmentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var activities []model.Activity
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ActivityExt {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSuffix(name, ActivityExt))
		if err != nil {
			log.Warn().Str("path", dir).Str("file", name).Msg("skip non-numeric activity file")
			continue
		}
		path := filepath.Join(dir, name)
		lines, err := ReadLines(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("read activity")
			continue
		}
		activity := model.Activity{
			Term:  class.Term,
			Class: class.Code,
			Code:  code,
			Path:  path,
		}
		ParseActivity(&activity, lines)
		activities = append(activities, activity)
	}
	return activities, nil
}

// Students reads the profile of every student of a class. A missing
// user.data leaves the profile empty.
func Students(class model.ClassSection) ([]model.Student, error) {
	dir := filepath.Join(class.Path, UsersDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var students []model.Student
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		code, err := strconv.Atoi(entry.Name())
		if err != nil {
			log.Warn().Str("path", dir).Str("dir", entry.Name()).Msg("skip non-numeric student directory")
			continue
		}
		student := model.Student{
			Term:  class.Term,
			Class: class.Code,
			Code:  code,
			Path:  filepath.Join(dir, entry.Name()),
		}
		profile := filepath.Join(student.Path, StudentFile)
		if content, err := ReadSource(profile); err == nil {
			ParseStudent(&student, content)
		} else {
			log.Warn().Err(err).Str("path", profile).Msg("read student profile")
		}
		students = append(students, student)
	}
	return students, nil
}

// Attempts lists a student's attempts from the execution logs, pairing each
// with its timeline log, saved code and activity descriptor.
func Attempts(student model.Student, activities []model.Activity) ([]Attempt, error) {
	byCode := make(map[int]*model.Activity, len(activities))
	for i := range activities {
		byCode[activities[i].Code] = &activities[i]
	}

	dir := filepath.Join(student.Path, ExecutionsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var attempts []Attempt
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != LogExt {
			continue
		}
		activity, exercise, ok := ParseAttemptName(name)
		if !ok {
			log.Warn().Str("path", dir).Str("file", name).Msg("skip execution log with unexpected name")
			continue
		}
		attempt := Attempt{
			Key: model.AttemptKey{
				Term:     student.Term,
				Class:    student.Class,
				Student:  student.Code,
				Activity: activity,
				Exercise: exercise,
			},
			ExecutionLog: filepath.Join(dir, name),
			Activity:     byCode[activity],
		}
		if path := filepath.Join(student.Path, TimelineDir, name); exists(path) {
			attempt.TimelineLog = path
		}
		code := strings.TrimSuffix(name, LogExt) + SourceExt
		if path := filepath.Join(student.Path, CodesDir, code); exists(path) {
			attempt.CodeFile = path
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// Solutions lists the instructor solution files of dir.
func Solutions(dir string) ([]Solution, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var solutions []Solution
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != SolutionExt {
			continue
		}
		exercise, err := strconv.Atoi(strings.TrimSuffix(name, SolutionExt))
		if err != nil {
			log.Warn().Str("path", dir).Str("file", name).Msg("skip non-numeric solution file")
			continue
		}
		solutions = append(solutions, Solution{Exercise: exercise, Path: filepath.Join(dir, name)})
	}
	return solutions, nil
}
