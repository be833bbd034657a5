package apisvc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/trezcool/gradeportal/core/grade"
	"github.com/trezcool/gradeportal/core/user"
)

func (c *Client) StudentGrades(ctx context.Context) Result[[]grade.Grade] {
	return call[[]grade.Grade](ctx, c, "student_grades", http.MethodGet, "/student/grades", nil)
}

func (c *Client) TeacherGrades(ctx context.Context) Result[[]grade.Grade] {
	return call[[]grade.Grade](ctx, c, "teacher_grades", http.MethodGet, "/teacher/grades", nil)
}

func (c *Client) AdminGrades(ctx context.Context) Result[[]grade.Grade] {
	return call[[]grade.Grade](ctx, c, "admin_grades", http.MethodGet, "/admin/grades", nil)
}

// GradesByRole lists the grades visible to `role`; an unknown role fails without calling the backend.
func (c *Client) GradesByRole(ctx context.Context, role user.Role) Result[[]grade.Grade] {
	switch role {
	case user.RoleStudent:
		return c.StudentGrades(ctx)
	case user.RoleTeacher:
		return c.TeacherGrades(ctx)
	case user.RoleAdmin:
		return c.AdminGrades(ctx)
	default:
		return Result[[]grade.Grade]{Kind: KindValidation, Error: MsgInvalidRole}
	}
}

func (c *Client) GradeStatistics(ctx context.Context) Result[grade.Statistics] {
	return call[grade.Statistics](ctx, c, "grade_statistics", http.MethodGet, "/grades/statistics", nil)
}

func (c *Client) UpdateGrade(ctx context.Context, id int, su grade.ScoreUpdate) Result[grade.Grade] {
	if err := su.Validate(c.validate); err != nil {
		return invalid[grade.Grade](c, err)
	}
	return call[grade.Grade](ctx, c, "update_grade", http.MethodPut, fmt.Sprintf("/grades/%d", id), su)
}

func (c *Client) GradesByCourse(ctx context.Context, courseName string) Result[[]grade.Grade] {
	path := "/teacher/courses/" + url.PathEscape(courseName) + "/grades"
	return call[[]grade.Grade](ctx, c, "grades_by_course", http.MethodGet, path, nil)
}

func (c *Client) SaveGrade(ctx context.Context, e grade.Entry) Result[grade.Grade] {
	if err := e.Validate(c.validate); err != nil {
		return invalid[grade.Grade](c, err)
	}
	return call[grade.Grade](ctx, c, "save_grade", http.MethodPost, "/teacher/grades", e)
}

// SaveGradesBatch validates every entry before sending any of them.
func (c *Client) SaveGradesBatch(ctx context.Context, entries []grade.Entry) Result[[]grade.Grade] {
	if len(entries) == 0 {
		return Result[[]grade.Grade]{Kind: KindValidation, Error: "no grades to save"}
	}
	for i := range entries {
		if err := entries[i].Validate(c.validate); err != nil {
			res := invalid[[]grade.Grade](c, err)
			res.Error = fmt.Sprintf("%s: %s", entries[i].StudentName, res.Error)
			return res
		}
	}
	return call[[]grade.Grade](ctx, c, "save_grades_batch", http.MethodPost, "/teacher/grades/batch", entries)
}
