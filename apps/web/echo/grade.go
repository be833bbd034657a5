package echoweb

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/grade"
	apisvc "github.com/trezcool/gradeportal/services/api"
)

const (
	recentGrades = 5
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportXLSX = grade.ExportXLSX // mockable

type (
	dashboardData struct {
		Summary    *grade.Summary
		Statistics *grade.Statistics
		Recent     []grade.Grade
	}

	gradesData struct {
		Query    string
		Grades   []grade.Grade
		Editable bool
	}
)

func registerGradePages(g *echo.Group, p *pages) {
	anyRole := requirePage(auth.AnyRole)
	g.GET(auth.PathDashboard, p.dashboard, anyRole)
	g.GET(auth.PathGrades, p.grades, anyRole)
	g.GET(auth.PathGrades+"/export.xlsx", p.exportGrades, anyRole)
	g.POST(auth.PathGrades+"/:id/score", p.updateScore, anyRole)
}

// Handlers

func (p *pages) dashboard(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}
	usr := m.User()
	client := getClient(ctx)
	reqCtx := ctx.Request().Context()

	var gradesRes apisvc.Result[[]grade.Grade]
	var statsRes apisvc.Result[grade.Statistics]
	var eg errgroup.Group
	eg.Go(func() error {
		gradesRes = client.GradesByRole(reqCtx, usr.Role)
		return nil
	})
	withStats := !usr.IsStudent()
	if withStats {
		eg.Go(func() error {
			statsRes = client.GradeStatistics(reqCtx)
			return nil
		})
	}
	_ = eg.Wait()

	if sessionExpired(ctx, gradesRes, statsRes) {
		return toLogin(ctx)
	}

	data := dashboardData{}
	pg := newPage(ctx, "Dashboard", &data)
	if gradesRes.Success {
		if sum, ok := grade.Summarize(gradesRes.Data); ok {
			data.Summary = &sum
		}
		data.Recent = gradesRes.Data
		if len(data.Recent) > recentGrades {
			data.Recent = data.Recent[:recentGrades]
		}
	} else {
		pg.fail(gradesRes.Error)
	}
	if withStats {
		if statsRes.Success {
			data.Statistics = &statsRes.Data
		} else {
			pg.fail(statsRes.Error)
		}
	}
	return ctx.Render(http.StatusOK, "dashboard", pg.settle(gradesRes.Success || statsRes.Success))
}

func (p *pages) grades(ctx echo.Context) error {
	return p.renderGrades(ctx, "")
}

func (p *pages) renderGrades(ctx echo.Context, errMsg string) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}
	usr := m.User()

	res := getClient(ctx).GradesByRole(ctx.Request().Context(), usr.Role)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}

	data := gradesData{
		Query:    ctx.QueryParam("q"),
		Editable: usr.IsTeacher() || usr.IsAdmin(),
	}
	pg := newPage(ctx, "Grades", &data)
	pg.fail(errMsg)
	if res.Success {
		data.Grades = grade.Filter(res.Data, data.Query)
	} else {
		pg.fail(res.Error)
	}
	return ctx.Render(http.StatusOK, "grades", pg.settle(res.Success))
}

func (p *pages) exportGrades(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}

	res := getClient(ctx).GradesByRole(ctx.Request().Context(), m.User().Role)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return echo.NewHTTPError(http.StatusBadGateway, res.Error)
	}

	var buf bytes.Buffer
	if err := exportXLSX(&buf, grade.Filter(res.Data, ctx.QueryParam("q"))); err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="grades.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (p *pages) updateScore(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}
	if usr := m.User(); !(usr.IsTeacher() || usr.IsAdmin()) {
		return errHttpForbidden
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	score, err := strconv.ParseFloat(ctx.FormValue("score"), 64)
	if err != nil {
		return p.renderGrades(ctx, "score must be a number")
	}
	res := getClient(ctx).UpdateGrade(ctx.Request().Context(), id, grade.ScoreUpdate{Score: score})
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderGrades(ctx, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathGrades, "saved")
}
