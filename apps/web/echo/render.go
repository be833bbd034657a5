package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/grade"
	"github.com/trezcool/gradeportal/core/session"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const (
	csrfField      = "_csrf"
	csrfContextKey = "csrf"
	noticeParam    = "notice"
)

var pageNames = []string{"error", "confirm", "login", "verify_email", "dashboard", "grades", "courses", "grade_entry", "users"}

// notices shown after a redirect, keyed by their `notice` query value
var notices = map[string]string{
	"saved":   "Changes saved.",
	"created": "Created.",
	"deleted": "Deleted.",
}

type PageState string

// Page states
const (
	StateLoading PageState = "LOADING"
	StateReady   PageState = "READY"
	StateError   PageState = "ERROR"
)

type page struct {
	Title     string
	User      *session.Session
	Nav       []auth.Route
	Path      string
	CSRFField string
	CSRF      string
	State     PageState
	Errors    []string
	Notice    string
	Data      interface{}
}

func newPage(ctx echo.Context, title string, data interface{}) *page {
	p := &page{
		Title:     title,
		Path:      ctx.Path(),
		CSRFField: csrfField,
		State:     StateLoading,
		Notice:    notices[ctx.QueryParam(noticeParam)],
		Data:      data,
	}
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		p.CSRF = token
	}
	if m, err := getManager(ctx); err == nil {
		p.User = m.User()
		p.Nav = auth.Nav(p.User)
	}
	return p
}

func (p *page) fail(msg string) {
	if msg != "" {
		p.Errors = append(p.Errors, msg)
	}
}

// settle ends the loading state: READY when something could be shown, ERROR otherwise.
func (p *page) settle(loaded bool) *page {
	if loaded {
		p.State = StateReady
	} else {
		p.State = StateError
	}
	return p
}

type renderer struct {
	templates map[string]*template.Template
}

func newRenderer() *renderer {
	funcs := template.FuncMap{
		"level": grade.Level,
		"score": formatScore,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"pct": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) + "%" },
	}

	r := &renderer{templates: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		r.templates[name] = template.Must(
			template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.gohtml", "templates/"+name+".gohtml"),
		)
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return errors.Wrapf(tmpl.ExecuteTemplate(w, "layout", data), "rendering %s", name)
}

func formatScore(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func redirectWithNotice(ctx echo.Context, path, notice string) error {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("%s%s%s=%s", path, sep, noticeParam, notice))
}
