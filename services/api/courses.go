package apisvc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/trezcool/gradeportal/core/course"
)

func (c *Client) TeacherCourses(ctx context.Context) Result[[]course.Course] {
	return call[[]course.Course](ctx, c, "teacher_courses", http.MethodGet, "/teacher/courses", nil)
}

func (c *Client) CreateCourse(ctx context.Context, in course.Input) Result[course.Course] {
	if err := in.Validate(c.validate); err != nil {
		return invalid[course.Course](c, err)
	}
	return call[course.Course](ctx, c, "create_course", http.MethodPost, "/teacher/courses", in)
}

func (c *Client) UpdateCourse(ctx context.Context, id int, in course.Input) Result[course.Course] {
	if err := in.Validate(c.validate); err != nil {
		return invalid[course.Course](c, err)
	}
	return call[course.Course](ctx, c, "update_course", http.MethodPut, fmt.Sprintf("/teacher/courses/%d", id), in)
}

func (c *Client) DeleteCourse(ctx context.Context, id int) Result[MessageResponse] {
	return call[MessageResponse](ctx, c, "delete_course", http.MethodDelete, fmt.Sprintf("/teacher/courses/%d", id), nil)
}

func (c *Client) StudentsByCourse(ctx context.Context, courseName string) Result[[]course.Student] {
	path := "/teacher/courses/" + url.PathEscape(courseName) + "/students"
	return call[[]course.Student](ctx, c, "students_by_course", http.MethodGet, path, nil)
}
