package grade

import (
	"sort"

	"github.com/trezcool/gradeportal/core/course"
)

// SheetDefaults are the term values stamped on every Entry of a Sheet.
type SheetDefaults struct {
	Semester     string
	AcademicYear string
}

// Row is one student of a Sheet with their current score, if any.
type Row struct {
	Student  course.Student
	Score    float64
	HasScore bool
}

// Sheet is the grade-entry view of one course: its students matched with their recorded scores.
type Sheet struct {
	CourseName string
	Defaults   SheetDefaults
	Rows       []Row
}

// NewSheet matches `grades` to `students` by real name or user name.
// Students without a grade get an empty row; grades without a matching student are ignored.
func NewSheet(courseName string, defaults SheetDefaults, students []course.Student, grades []Grade) *Sheet {
	scores := make(map[string]float64, len(grades))
	for _, g := range grades {
		scores[g.StudentName] = g.Score
	}

	s := &Sheet{
		CourseName: courseName,
		Defaults:   defaults,
		Rows:       make([]Row, 0, len(students)),
	}
	for _, st := range students {
		row := Row{Student: st}
		if st.RealName != nil && *st.RealName != "" {
			row.Score, row.HasScore = scores[*st.RealName]
		}
		if !row.HasScore && st.UserName != nil && *st.UserName != "" {
			row.Score, row.HasScore = scores[*st.UserName]
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// Entry builds the Entry recording `score` for the student with `studentID`.
func (s *Sheet) Entry(studentID int, score float64) (Entry, bool) {
	for _, row := range s.Rows {
		if row.Student.ID == studentID {
			return s.newEntry(row.Student, score), true
		}
	}
	return Entry{}, false
}

// Entries builds one Entry per student present in `scores` (keyed by student ID), ordered by student ID.
// Unknown student IDs are skipped.
func (s *Sheet) Entries(scores map[int]float64) []Entry {
	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.Entry(id, scores[id]); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func (s *Sheet) newEntry(st course.Student, score float64) Entry {
	return Entry{
		StudentName:  st.DisplayName(),
		CourseName:   s.CourseName,
		Score:        score,
		Semester:     s.Defaults.Semester,
		AcademicYear: s.Defaults.AcademicYear,
	}
}
