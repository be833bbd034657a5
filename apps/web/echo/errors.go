package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/auth"
)

var (
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "you do not have access to this page")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "page not found")
)

type errorPage struct {
	Code    int
	Message string
	Home    string
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering our error page.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			args := []interface{}{errors.Wrap(err, message)}
			if m, mErr := getManager(ctx); mErr == nil && m.User() != nil {
				args = append(args, *m.User())
			}
			logger.Error(message, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}

		data := errorPage{Code: code, Message: message, Home: auth.PathRoot}
		if m, mErr := getManager(ctx); mErr == nil && m.User() != nil {
			data.Home = auth.HomeRoute(m.User().Role)
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.Render(code, "error", newPage(ctx, http.StatusText(code), data).settle(false))
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
