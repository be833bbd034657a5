package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/user"
)

type (
	loginData struct {
		Username     string
		Registration user.Registration
		Fields       map[string]string
		Registered   string
		Advice       string
	}

	verifyEmailData struct {
		Token   string
		Email   string
		Message string
	}
)

func registerAuthPages(g *echo.Group, p *pages) {
	g.GET(auth.PathRoot, p.root)
	g.GET(auth.PathLogin, p.loginForm)
	g.POST(auth.PathLogin, p.login)
	g.POST("/register", p.register)
	g.GET(auth.PathVerifyEmail, p.verifyEmail)
	g.POST(auth.PathVerifyEmail+"/resend", p.resendVerification)
	g.POST(auth.PathLogout, p.logout)
}

// Handlers

func (p *pages) root(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}
	if usr := m.User(); usr != nil {
		return ctx.Redirect(http.StatusFound, auth.HomeRoute(usr.Role))
	}
	return toLogin(ctx)
}

func (p *pages) loginForm(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}
	if usr := m.User(); usr != nil {
		return ctx.Redirect(http.StatusFound, auth.HomeRoute(usr.Role))
	}
	return ctx.Render(http.StatusOK, "login", newPage(ctx, "Login", loginData{}).settle(true))
}

func (p *pages) login(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}

	username := ctx.FormValue("username")
	res := m.Login(ctx.Request().Context(), username, ctx.FormValue("password"))
	if !res.Success {
		pg := newPage(ctx, "Login", loginData{Username: username})
		pg.fail(res.Error)
		return ctx.Render(http.StatusOK, "login", pg.settle(true))
	}
	if err := p.sessions.Rotate(ctx); err != nil {
		m.Logout(ctx.Request().Context())
		return errors.Wrap(err, "rotating session")
	}
	return ctx.Redirect(http.StatusSeeOther, auth.HomeRoute(m.User().Role))
}

func (p *pages) register(ctx echo.Context) error {
	reg := user.Registration{
		Username:        ctx.FormValue("username"),
		Email:           ctx.FormValue("email"),
		RealName:        ctx.FormValue("realName"),
		Password:        ctx.FormValue("password"),
		PasswordConfirm: ctx.FormValue("passwordConfirm"),
	}

	data := loginData{}
	res := getClient(ctx).Register(ctx.Request().Context(), reg)
	pg := newPage(ctx, "Login", &data)
	if res.Success {
		data.Registered = res.Data.Message
		if data.Registered == "" {
			data.Registered = "Registration successful, please check your email to verify your account."
		}
		data.Username = reg.Username
		data.Advice = reg.PasswordAdvice()
	} else {
		reg.Password, reg.PasswordConfirm = "", ""
		data.Registration = reg
		data.Fields = res.Fields
		pg.fail(res.Error)
	}
	return ctx.Render(http.StatusOK, "login", pg.settle(true))
}

func (p *pages) verifyEmail(ctx echo.Context) error {
	data := verifyEmailData{Token: ctx.QueryParam("token")}
	pg := newPage(ctx, "Verify email", &data)
	if data.Token != "" {
		res := getClient(ctx).VerifyEmail(ctx.Request().Context(), data.Token)
		if res.Success {
			data.Message = res.Data.Message
			if data.Message == "" {
				data.Message = "Your email is verified, you can now log in."
			}
		} else {
			pg.fail(res.Error)
		}
	}
	return ctx.Render(http.StatusOK, "verify_email", pg.settle(true))
}

func (p *pages) resendVerification(ctx echo.Context) error {
	data := verifyEmailData{Email: ctx.FormValue("email")}
	pg := newPage(ctx, "Verify email", &data)
	res := getClient(ctx).ResendVerification(ctx.Request().Context(), data.Email)
	if res.Success {
		data.Message = res.Data.Message
		if data.Message == "" {
			data.Message = "A new verification email is on its way."
		}
	} else {
		pg.fail(res.Error)
	}
	return ctx.Render(http.StatusOK, "verify_email", pg.settle(true))
}

func (p *pages) logout(ctx echo.Context) error {
	m, err := getManager(ctx)
	if err != nil {
		return err
	}
	m.Logout(ctx.Request().Context())
	return ctx.Redirect(http.StatusSeeOther, auth.PathLogin)
}
