package dataset

import (
	"slices"
	"strconv"
	"strings"

	"github.com/verte-zerg/cbminer/internal/model"
)

const (
	fieldPrefix     = "---- "
	classNamePrefix = "---- class name:"
)

// ParseActivity fills the descriptor fields of an activity from the lines of
// its .data file. Unknown fields and unparseable numbers are ignored.
func ParseActivity(a *model.Activity, lines []string) {
	for _, line := range lines {
		if !strings.HasPrefix(line, fieldPrefix) {
			continue
		}
		key, value, found := strings.Cut(line[len(fieldPrefix):], ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "assessment title":
			a.Title = value
		case "start":
			a.Start = value
		case "end":
			a.End = value
		case "language":
			a.Language = value
		case "type":
			a.Kind = value
		case "weight":
			if w, err := strconv.ParseFloat(value, 64); err == nil {
				a.Weight = &w
			}
		case "total exercises":
			if n, err := strconv.Atoi(value); err == nil {
				a.TotalExercises = &n
			}
		case "exercises":
			if block := parseBlock(value); len(block) > 0 {
				a.Blocks = append(a.Blocks, block)
			}
		}
	}
}

// parseBlock parses "12" or "12 or 7 or 9" into sorted exercise codes.
func parseBlock(value string) []int {
	if value == "" {
		return nil
	}
	var block []int
	for _, part := range strings.Split(value, " or ") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		block = append(block, code)
	}
	slices.Sort(block)
	return block
}

// ParseClassName returns the class description from an activity file.
func ParseClassName(lines []string) (string, bool) {
	for _, line := range lines {
		if strings.HasPrefix(line, classNamePrefix) {
			return strings.TrimSpace(line[len(classNamePrefix):]), true
		}
	}
	return "", false
}

// ParseStudent fills the profile of a student from user.data, a sequence of
// "-- key: value" entries that may share a line.
func ParseStudent(s *model.Student, content string) {
	fields := map[string]string{}
	for _, entry := range strings.Split(content, "--") {
		key, value, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		fields[key] = value
	}
	s.CourseID = fields["course_id"]
	s.CourseName = fields["course_name"]
	s.InstitutionID = fields["institution_id"]
	s.HighSchoolName = fields["high_school_name"]
	s.SchoolType = fields["school_type"]
	s.SchoolShift = fields["shift"]
	s.GraduationYear = fields["graduation_year"]
	s.Sex = fields["sex"]
	s.BirthYear = fields["year_of_birth"]
	s.CivilStatus = fields["civil_status"]
	s.HasKids = fields["have_kids"]
}

// ParseAttemptName splits "<activity>_<exercise>[_...].<ext>" into codes.
func ParseAttemptName(name string) (activity, exercise int, ok bool) {
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		name = name[:dot]
	}
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, 0, false
	}
	activity, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	exercise, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return activity, exercise, true
}
