package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/user"
)

type usersData struct {
	Query   string
	Users   []user.User
	Counts  user.Counts
	NewUser user.NewUser
	Fields  map[string]string
	Roles   []user.Role
}

func registerUserPages(g *echo.Group, p *pages) {
	admin := requirePage(auth.RequireRole(user.RoleAdmin))

	g.GET(auth.PathUserManagement, p.users, admin)
	g.POST("/admin/users", p.createUser, admin)
	g.POST("/admin/users/:id/status", p.updateUserStatus, admin)
	g.POST("/admin/users/:id/delete", p.deleteUser, admin)
}

// Handlers

func (p *pages) users(ctx echo.Context) error {
	return p.renderUsers(ctx, usersData{NewUser: user.NewUser{Role: user.RoleStudent}})
}

func (p *pages) renderUsers(ctx echo.Context, data usersData, errMsgs ...string) error {
	res := getClient(ctx).AllUsers(ctx.Request().Context())
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}

	data.Query = ctx.QueryParam("q")
	data.Roles = user.AllRoles
	pg := newPage(ctx, "User management", &data)
	for _, msg := range errMsgs {
		pg.fail(msg)
	}
	if res.Success {
		data.Counts = user.Count(res.Data)
		data.Users = user.Filter(res.Data, data.Query)
	} else {
		pg.fail(res.Error)
	}
	return ctx.Render(http.StatusOK, "users", pg.settle(res.Success))
}

func (p *pages) createUser(ctx echo.Context) error {
	nu := user.NewUser{
		Username:  ctx.FormValue("username"),
		Password:  ctx.FormValue("password"),
		RealName:  ctx.FormValue("realName"),
		Role:      user.Role(ctx.FormValue("role")),
		Email:     optional(ctx.FormValue("email")),
		Phone:     optional(ctx.FormValue("phone")),
		StudentID: optional(ctx.FormValue("studentId")),
	}
	res := getClient(ctx).CreateUser(ctx.Request().Context(), nu)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		nu.Password = ""
		return p.renderUsers(ctx, usersData{NewUser: nu, Fields: res.Fields}, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathUserManagement, "created")
}

func (p *pages) updateUserStatus(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	isActive, err := strconv.ParseBool(ctx.FormValue("isActive"))
	if err != nil {
		return p.renderUsers(ctx, usersData{NewUser: user.NewUser{Role: user.RoleStudent}}, "invalid status")
	}

	res := getClient(ctx).UpdateUserStatus(ctx.Request().Context(), id, isActive)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderUsers(ctx, usersData{NewUser: user.NewUser{Role: user.RoleStudent}}, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathUserManagement, "saved")
}

func (p *pages) deleteUser(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if ok, err := confirmed(ctx, "Delete this user? This cannot be undone.", auth.PathUserManagement); !ok {
		return err
	}

	res := getClient(ctx).DeleteUser(ctx.Request().Context(), id)
	if sessionExpired(ctx, res) {
		return toLogin(ctx)
	}
	if !res.Success {
		return p.renderUsers(ctx, usersData{NewUser: user.NewUser{Role: user.RoleStudent}}, res.Error)
	}
	return redirectWithNotice(ctx, auth.PathUserManagement, "deleted")
}
