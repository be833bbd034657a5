package grade

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/course"
)

const (
	MinScore  = 0
	MaxScore  = 100
	PassScore = 60
)

type Grade struct {
	ID           int            `json:"id" validate:"gt=0"`
	StudentName  string         `json:"studentName"`
	CourseName   string         `json:"courseName"`
	Score        float64        `json:"score" validate:"min=0,max=100"`
	Semester     string         `json:"semester"`
	AcademicYear string         `json:"academicYear"`
	TeacherName  string         `json:"teacherName"`
	Student      *course.Student `json:"student,omitempty"`
	Course       *course.Course  `json:"course,omitempty"`
}

// Statistics is the backend's aggregate over the grades visible to the caller.
type Statistics struct {
	Average     float64 `json:"average"`
	Highest     float64 `json:"highest"`
	Lowest      float64 `json:"lowest"`
	Count       int     `json:"count" validate:"min=0"`
	PassedCount int     `json:"passedCount" validate:"min=0,ltefield=Count"`
	PassRate    float64 `json:"passRate" validate:"min=0,max=100"`
}

// Entry is a score a teacher records for a student in a course.
type Entry struct {
	StudentName  string  `json:"studentName" validate:"required"`
	CourseName   string  `json:"courseName" validate:"required"`
	Score        float64 `json:"score" validate:"min=0,max=100"`
	Semester     string  `json:"semester" validate:"required"`
	AcademicYear string  `json:"academicYear" validate:"required"`
}

func (e *Entry) Validate(validate *validator.Validate) error {
	e.StudentName = core.CleanString(e.StudentName)
	e.CourseName = core.CleanString(e.CourseName)
	e.Semester = core.CleanString(e.Semester)
	e.AcademicYear = core.CleanString(e.AcademicYear)
	return validate.Struct(e)
}

// ScoreUpdate changes the score of an existing Grade.
type ScoreUpdate struct {
	Score float64 `json:"score" validate:"min=0,max=100"`
}

func (su ScoreUpdate) Validate(validate *validator.Validate) error { return validate.Struct(su) }

// Levels
const (
	LevelExcellent = "excellent"
	LevelGood      = "good"
	LevelPass      = "pass"
	LevelFail      = "fail"
)

// Level buckets a score: >=90 excellent, >=80 good, >=60 pass, else fail.
func Level(score float64) string {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 80:
		return LevelGood
	case score >= PassScore:
		return LevelPass
	default:
		return LevelFail
	}
}

// Distribution counts scores per band.
type Distribution struct {
	Band90to100 int
	Band80to89  int
	Band70to79  int
	Band60to69  int
	Below60     int
}

// Summary is the client-side aggregate of a list of grades.
type Summary struct {
	Statistics
	Distribution Distribution
}

// Summarize computes the statistics of `grades`; ok is false when there is nothing to summarize.
func Summarize(grades []Grade) (sum Summary, ok bool) {
	if len(grades) == 0 {
		return Summary{}, false
	}

	var total float64
	sum.Highest = math.Inf(-1)
	sum.Lowest = math.Inf(1)
	for _, g := range grades {
		total += g.Score
		sum.Highest = math.Max(sum.Highest, g.Score)
		sum.Lowest = math.Min(sum.Lowest, g.Score)
		if g.Score >= PassScore {
			sum.PassedCount++
		}
		switch {
		case g.Score >= 90:
			sum.Distribution.Band90to100++
		case g.Score >= 80:
			sum.Distribution.Band80to89++
		case g.Score >= 70:
			sum.Distribution.Band70to79++
		case g.Score >= 60:
			sum.Distribution.Band60to69++
		default:
			sum.Distribution.Below60++
		}
	}
	sum.Count = len(grades)
	sum.Average = round2(total / float64(sum.Count))
	sum.PassRate = round2(float64(sum.PassedCount) / float64(sum.Count) * 100)
	return sum, true
}

// Filter does a case-insensitive match of `term` on one of Grade.StudentName, Grade.CourseName or Grade.Semester.
func Filter(grades []Grade, term string) []Grade {
	filtered := make([]Grade, 0, len(grades))
	for _, g := range grades {
		if core.MatchesAny(term, g.StudentName, g.CourseName, g.Semester) {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
