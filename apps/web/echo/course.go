package echoweb

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/course"
	"github.com/trezcool/gradeportal/core/grade"
	"github.com/trezcool/gradeportal/core/user"
	apisvc "github.com/trezcool/gradeportal/services/api"
)

const scoreFieldPrefix = "score_"

type (
	coursesData struct {
		Query   string
		Courses []course.Course
		Input   course.Input
		Fields  map[string]string
	}

	gradeEntryData struct {
		Query   string
		Course  string
		Courses []course.Course
		Sheet   *grade.Sheet
	}
)

func registerCoursePages(g *echo.Group, p *pages) {
	teacher := requirePage(auth.RequireRole(user.RoleTeacher))

	g.GET(auth.PathTeacherCourses, p.courses, teacher)
	g.POST(auth.PathTeacherCourses, p.createCourse, teacher)
	g.POST(auth.PathTeacherCourses+"/:id", p.updateCourse, teacher)
	g.POST(auth.PathTeacherCourses+"/:id/delete", p.deleteCourse, teacher)

	g.GET(auth.PathGradeEntry, p.gradeEntry, teacher)
	g.POST(auth.PathGradeEntry+"/save", p.saveGrade, teacher)
	g.POST(auth.PathGradeEntry+"/batch", p.saveGradesBatch, teacher)
}

// Handlers

func (p *pages) courses(ctx echo.Context) error {
	return p.renderCourses(ctx, coursesData{})
}

func (p *pages) renderCourses(ctx echo.Context, data coursesData, errMsgs ...string) error {
	res := getClient(ctx).TeacherCourses(ctx.Request().Context())
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}

	data.Query = ctx.QueryParam("q")
	pg := newPage(ctx, "Courses", &data)
	for _, msg := range errMsgs {
		pg.fail(msg)
	}
	if res.Success {
		data.Courses = course.Filter(res.Data, data.Query)
	} else {
		pg.fail(res.Error)
	}
	return ctx.Render(http.StatusOK, "courses", pg.settle(res.Success))
}

func bindCourseInput(ctx echo.Context) course.Input {
	credit, _ := strconv.ParseFloat(strings.TrimSpace(ctx.FormValue("credit")), 64)
	return course.Input{
		CourseName:  ctx.FormValue("courseName"),
		CourseCode:  ctx.FormValue("courseCode"),
		Credit:      credit,
		Description: ctx.FormValue("description"),
	}
}

func (p *pages) createCourse(ctx echo.Context) error {
	in := bindCourseInput(ctx)
	res := getClient(ctx).CreateCourse(ctx.Request().Context(), in)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderCourses(ctx, coursesData{Input: in, Fields: res.Fields}, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathTeacherCourses, "created")
}

func (p *pages) updateCourse(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	res := getClient(ctx).UpdateCourse(ctx.Request().Context(), id, bindCourseInput(ctx))
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderCourses(ctx, coursesData{}, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathTeacherCourses, "saved")
}

func (p *pages) deleteCourse(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if ok, err := confirmed(ctx, "Delete this course? Its grades will no longer be listed under it.", auth.PathTeacherCourses); !ok {
		return err
	}

	res := getClient(ctx).DeleteCourse(ctx.Request().Context(), id)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderCourses(ctx, coursesData{}, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathTeacherCourses, "deleted")
}

func (p *pages) gradeEntry(ctx echo.Context) error {
	return p.renderGradeEntry(ctx, ctx.QueryParam("course"))
}

// renderGradeEntry loads the teacher's courses, and the sheet of `courseName` when one is selected.
func (p *pages) renderGradeEntry(ctx echo.Context, courseName string, errMsgs ...string) error {
	client := getClient(ctx)
	reqCtx := ctx.Request().Context()

	var coursesRes apisvc.Result[[]course.Course]
	var studentsRes apisvc.Result[[]course.Student]
	var gradesRes apisvc.Result[[]grade.Grade]
	var eg errgroup.Group
	eg.Go(func() error {
		coursesRes = client.TeacherCourses(reqCtx)
		return nil
	})
	if courseName != "" {
		eg.Go(func() error {
			studentsRes = client.StudentsByCourse(reqCtx, courseName)
			return nil
		})
		eg.Go(func() error {
			gradesRes = client.GradesByCourse(reqCtx, courseName)
			return nil
		})
	}
	_ = eg.Wait()

	if sessionExpired(ctx, coursesRes, studentsRes, gradesRes) {
		return toLogin(ctx)
	}

	data := gradeEntryData{Query: ctx.QueryParam("q"), Course: courseName}
	pg := newPage(ctx, "Grade entry", &data)
	for _, msg := range errMsgs {
		pg.fail(msg)
	}
	if coursesRes.Success {
		data.Courses = coursesRes.Data
	} else {
		pg.fail(coursesRes.Error)
	}
	if courseName != "" {
		if studentsRes.Success {
			if !gradesRes.Success {
				pg.fail(gradesRes.Error)
			}
			students := course.FilterStudents(studentsRes.Data, data.Query)
			data.Sheet = grade.NewSheet(courseName, p.sheetDefaults(), students, gradesRes.Data)
		} else {
			pg.fail(studentsRes.Error)
		}
	}
	return ctx.Render(http.StatusOK, "grade_entry", pg.settle(coursesRes.Success || studentsRes.Success))
}

func (p *pages) sheetDefaults() grade.SheetDefaults {
	return grade.SheetDefaults{Semester: p.defaults.Semester, AcademicYear: p.defaults.AcademicYear}
}

// loadSheet returns the sheet of `courseName` without its current scores, to build entries from.
func (p *pages) loadSheet(ctx echo.Context, courseName string) (*grade.Sheet, apisvc.Result[[]course.Student]) {
	res := getClient(ctx).StudentsByCourse(ctx.Request().Context(), courseName)
	if !res.Success {
		return nil, res
	}
	return grade.NewSheet(courseName, p.sheetDefaults(), res.Data, nil), res
}

func gradeEntryPath(courseName string) string {
	return auth.PathGradeEntry + "?course=" + url.QueryEscape(courseName)
}

func (p *pages) saveGrade(ctx echo.Context) error {
	courseName := ctx.FormValue("course")
	studentID, err := strconv.Atoi(ctx.FormValue("studentId"))
	if err != nil {
		return p.renderGradeEntry(ctx, courseName, "select a student")
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(ctx.FormValue(scoreFieldPrefix+strconv.Itoa(studentID))), 64)
	if err != nil {
		return p.renderGradeEntry(ctx, courseName, "score must be a number")
	}

	sheet, studentsRes := p.loadSheet(ctx, courseName)
	if sessionExpired(ctx, studentsRes) {
		return toLogin(ctx)
	}
	if sheet == nil {
		return p.renderGradeEntry(ctx, courseName, studentsRes.Error)
	}
	entry, ok := sheet.Entry(studentID, score)
	if !ok {
		return p.renderGradeEntry(ctx, courseName, "student is not enrolled in this course")
	}

	res := getClient(ctx).SaveGrade(ctx.Request().Context(), entry)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderGradeEntry(ctx, courseName, res.Error)
	}
	return redirectWithNotice(ctx, gradeEntryPath(courseName), "saved")
}

func (p *pages) saveGradesBatch(ctx echo.Context) error {
	courseName := ctx.FormValue("course")
	form, err := ctx.FormParams()
	if err != nil {
		return err
	}

	scores := make(map[int]float64)
	for key, vals := range form {
		if !strings.HasPrefix(key, scoreFieldPrefix) || len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(key, scoreFieldPrefix))
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		if err != nil {
			return p.renderGradeEntry(ctx, courseName, fmt.Sprintf("score %q is not a number", vals[0]))
		}
		scores[id] = score
	}
	if len(scores) == 0 {
		return p.renderGradeEntry(ctx, courseName, "enter at least one score")
	}

	sheet, studentsRes := p.loadSheet(ctx, courseName)
	if sessionExpired(ctx, studentsRes) {
		return toLogin(ctx)
	}
	if sheet == nil {
		return p.renderGradeEntry(ctx, courseName, studentsRes.Error)
	}

	res := getClient(ctx).SaveGradesBatch(ctx.Request().Context(), sheet.Entries(scores))
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderGradeEntry(ctx, courseName, res.Error)
	}
	return redirectWithNotice(ctx, gradeEntryPath(courseName), "saved")
}
