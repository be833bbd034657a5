package echoweb

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/auth"
	apisvc "github.com/trezcool/gradeportal/services/api"
)

// pages holds the dependencies shared by every page handler.
type pages struct {
	client   *apisvc.Client
	sessions SessionFactory
	logger   core.Logger
	defaults core.GradeConfig
}

type confirmData struct {
	Question string
	Action   string
	Cancel   string
}

// confirmed reports whether a destructive form was confirmed; if not, it renders the confirmation page.
func confirmed(ctx echo.Context, question, cancel string) (bool, error) {
	if ctx.FormValue("confirm") == "yes" {
		return true, nil
	}
	data := confirmData{Question: question, Action: ctx.Request().URL.Path, Cancel: cancel}
	return false, ctx.Render(http.StatusOK, "confirm", newPage(ctx, "Please confirm", data).settle(true))
}

// sessionExpired reports whether `res` failed because the backend ended the session.
// The session store is already cleared by then; the in-memory user is dropped too.
func sessionExpired(ctx echo.Context, results ...interface{ Err() error }) bool {
	for _, res := range results {
		if apisvc.IsKind(res.Err(), apisvc.KindAuthentication) {
			if m, err := getManager(ctx); err == nil {
				m.Logout(ctx.Request().Context())
			}
			return true
		}
	}
	return false
}

func toLogin(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, auth.PathLogin)
}

func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
