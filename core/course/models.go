package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradeportal/core"
)

type Course struct {
	ID          int     `json:"id" validate:"gt=0"`
	CourseName  string  `json:"courseName" validate:"required"`
	CourseCode  string  `json:"courseCode"`
	Credit      float64 `json:"credit"`
	Description *string `json:"description,omitempty"`
	TeacherName *string `json:"teacherName,omitempty"`
}

// Student is a student enrolled in a course, as listed to its teacher.
type Student struct {
	ID              int     `json:"id" validate:"gt=0"`
	UserName        *string `json:"userName,omitempty"`
	RealName        *string `json:"realName,omitempty"`
	StudentNumber   string  `json:"studentNumber"`
	ClassName       string  `json:"className"`
	Major           string  `json:"major"`
	EnrollmentYear  string  `json:"enrollmentYear"`
	Gender          *string `json:"gender,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Address         *string `json:"address,omitempty"`
	BirthDate       *string `json:"birthDate,omitempty"`
	Nationality     *string `json:"nationality,omitempty"`
	PoliticalStatus *string `json:"politicalStatus,omitempty"`
	IDCardNumber    *string `json:"idCardNumber,omitempty"`
	CreatedAt       *string `json:"createdAt,omitempty"`
	UpdatedAt       *string `json:"updatedAt,omitempty"`
}

// DisplayName is the name grades are recorded under: the real name, else the user name.
func (s Student) DisplayName() string {
	if s.RealName != nil && *s.RealName != "" {
		return *s.RealName
	}
	if s.UserName != nil {
		return *s.UserName
	}
	return ""
}

// Input holds the fields a teacher may set when creating or updating a Course.
type Input struct {
	CourseName  string  `json:"courseName" validate:"required"`
	CourseCode  string  `json:"courseCode" validate:"required"`
	Credit      float64 `json:"credit" validate:"gt=0"`
	Description string  `json:"description,omitempty"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.CourseName = core.CleanString(in.CourseName)
	in.CourseCode = core.CleanString(in.CourseCode)
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

// Filter does a case-insensitive match of `term` on one of Course.CourseName or Course.CourseCode.
func Filter(courses []Course, term string) []Course {
	filtered := make([]Course, 0, len(courses))
	for _, c := range courses {
		if core.MatchesAny(term, c.CourseName, c.CourseCode) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FilterStudents does a case-insensitive match of `term` on one of Student.RealName, Student.StudentNumber or Student.ClassName.
func FilterStudents(students []Student, term string) []Student {
	filtered := make([]Student, 0, len(students))
	for _, s := range students {
		var realName string
		if s.RealName != nil {
			realName = *s.RealName
		}
		if core.MatchesAny(term, realName, s.StudentNumber, s.ClassName) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
