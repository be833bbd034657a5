package echoweb_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradeportal/apps/web/echo"
	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/grade"
	"github.com/trezcool/gradeportal/core/user"
	apisvc "github.com/trezcool/gradeportal/services/api"
	"github.com/trezcool/gradeportal/tests"
)

type webTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	wantCode     int
	wantLocation string
	wantBody     []string
}

// browser drives the server in-process, keeping its cookies between requests.
type browser struct {
	t       *testing.T
	srv     *echoweb.Server
	cookies map[string]*http.Cookie
}

func newConf() *core.Config {
	return &core.Config{
		TestMode:  true,
		SecretKey: "test-secret-key",
		Session:   core.SessionConfig{Driver: core.SessionDriverCookie, Name: "gradeportal", MaxAge: time.Hour},
		Grade:     core.GradeConfig{Semester: "2024 Spring", AcademicYear: "2023-2024"},
	}
}

func newBrowser(t *testing.T, backend *testutil.Backend, csrf ...bool) *browser {
	return newBrowserWith(t, backend, echoweb.NewCookieSessions(newConf()), len(csrf) > 0 && csrf[0])
}

func newBrowserWith(t *testing.T, backend *testutil.Backend, sessions echoweb.SessionFactory, csrf bool) *browser {
	conf := newConf()
	logger := testutil.NewLogger()
	client := apisvc.NewClient(apisvc.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second, Logger: logger})
	srv := echoweb.NewServer(echoweb.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Client:         client,
		Sessions:       sessions,
		DisableReqLogs: true,
		DisableCSRF:    !csrf,
	})
	return &browser{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

// rotatingSessions counts the session rotations of a cookie session factory.
type rotatingSessions struct {
	echoweb.SessionFactory
	rotations int
	err       error
}

func (rs *rotatingSessions) Rotate(echo.Context) error {
	rs.rotations++
	return rs.err
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if form != nil {
		body.WriteString(form.Encode())
	}
	req := httptest.NewRequest(method, path, &body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.srv.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return rec
}

func (b *browser) check(tt webTest) *httptest.ResponseRecorder {
	b.t.Helper()
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	rec := b.do(method, tt.path, tt.form)
	assert.Equal(b.t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantLocation != "" {
		assert.Equal(b.t, tt.wantLocation, rec.Header().Get("Location"))
	}
	for _, want := range tt.wantBody {
		assert.Contains(b.t, rec.Body.String(), want)
	}
	return rec
}

func handleLogin(t *testing.T, backend *testutil.Backend, username string, role user.Role) {
	backend.Handle(http.MethodPost, "/auth/login", http.StatusOK, map[string]interface{}{
		"token":    testutil.Token(t, username, time.Now().Add(time.Hour)),
		"username": username,
		"role":     role,
		"realName": strings.ToUpper(username),
		"userId":   7,
	})
}

func loggedIn(t *testing.T, backend *testutil.Backend, role user.Role) *browser {
	handleLogin(t, backend, strings.ToLower(string(role)), role)
	b := newBrowser(t, backend)
	rec := b.do(http.MethodPost, "/login", url.Values{"username": {"someone"}, "password": {"pwd"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	backend.Reset()
	return b
}

func TestServer_access(t *testing.T) {
	backend := testutil.NewBackend(t)
	anon := newBrowser(t, backend)
	student := loggedIn(t, backend, user.RoleStudent)
	backend.Handle(http.MethodGet, "/student/grades", http.StatusOK, []grade.Grade{})

	tests := []struct {
		b *browser
		webTest
	}{
		{b: anon, webTest: webTest{name: "root anonymous", path: "/", wantCode: http.StatusFound, wantLocation: "/login"}},
		{b: anon, webTest: webTest{name: "dashboard anonymous", path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"}},
		{b: anon, webTest: webTest{name: "users anonymous", path: "/admin/user-management", wantCode: http.StatusFound, wantLocation: "/login"}},
		{b: anon, webTest: webTest{name: "login page", path: "/login", wantCode: http.StatusOK, wantBody: []string{`data-state="READY"`}}},
		{b: anon, webTest: webTest{name: "verify email page", path: "/verify-email", wantCode: http.StatusOK}},
		{b: student, webTest: webTest{name: "root student", path: "/", wantCode: http.StatusFound, wantLocation: "/dashboard"}},
		{b: student, webTest: webTest{name: "login page logged in", path: "/login", wantCode: http.StatusFound, wantLocation: "/dashboard"}},
		{b: student, webTest: webTest{name: "dashboard", path: "/dashboard", wantCode: http.StatusOK, wantBody: []string{"STUDENT (Student)"}}},
		{
			b:       student,
			webTest: webTest{name: "admin page", path: "/admin/user-management", wantCode: http.StatusForbidden, wantBody: []string{"you do not have access to this page"}},
		},
		{b: student, webTest: webTest{name: "teacher page", path: "/teacher/grade-entry", wantCode: http.StatusForbidden}},
		{b: student, webTest: webTest{name: "unknown page", path: "/nope", wantCode: http.StatusNotFound}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.b.t = t
			tt.b.check(tt.webTest)
		})
	}

	t.Run("student nav", func(t *testing.T) {
		body := student.do(http.MethodGet, "/dashboard", nil).Body.String()
		assert.Contains(t, body, `href="/grades"`)
		assert.NotContains(t, body, `href="/admin/user-management"`)
		assert.NotContains(t, body, `href="/teacher/grade-entry"`)
	})
}

func TestServer_login(t *testing.T) {
	tests := []struct {
		role         user.Role
		wantLocation string
	}{
		{role: user.RoleStudent, wantLocation: "/dashboard"},
		{role: user.RoleTeacher, wantLocation: "/teacher/grade-entry"},
		{role: user.RoleAdmin, wantLocation: "/admin/user-management"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			backend := testutil.NewBackend(t)
			handleLogin(t, backend, "user", tt.role)
			b := newBrowser(t, backend)
			b.check(webTest{
				method:       http.MethodPost,
				path:         "/login",
				form:         url.Values{"username": {"user"}, "password": {"pwd"}},
				wantCode:     http.StatusSeeOther,
				wantLocation: tt.wantLocation,
			})
			b.check(webTest{path: "/", wantCode: http.StatusFound, wantLocation: tt.wantLocation})

			// logout
			b.check(webTest{method: http.MethodPost, path: "/logout", form: url.Values{}, wantCode: http.StatusSeeOther, wantLocation: "/login"})
			b.check(webTest{path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"})
		})
	}

	t.Run("session id rotates on login", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		handleLogin(t, backend, "user", user.RoleStudent)
		sessions := &rotatingSessions{SessionFactory: echoweb.NewCookieSessions(newConf())}
		b := newBrowserWith(t, backend, sessions, false)

		b.check(webTest{path: "/login", wantCode: http.StatusOK})
		assert.Zero(t, sessions.rotations)
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/login",
			form:         url.Values{"username": {"user"}, "password": {"pwd"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/dashboard",
		})
		assert.Equal(t, 1, sessions.rotations)
	})

	t.Run("rotation failure logs out", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		handleLogin(t, backend, "user", user.RoleStudent)
		sessions := &rotatingSessions{SessionFactory: echoweb.NewCookieSessions(newConf()), err: errors.New("redis down")}
		b := newBrowserWith(t, backend, sessions, false)

		b.check(webTest{
			method:   http.MethodPost,
			path:     "/login",
			form:     url.Values{"username": {"user"}, "password": {"pwd"}},
			wantCode: http.StatusInternalServerError,
		})
		b.check(webTest{path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"})
	})

	t.Run("bad credentials", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		backend.Handle(http.MethodPost, "/auth/login", http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
		b := newBrowser(t, backend)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/login",
			form:     url.Values{"username": {"user"}, "password": {"nope"}},
			wantCode: http.StatusOK,
			wantBody: []string{`role="alert"`},
		})
		b.check(webTest{path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"})
	})

	t.Run("blank credentials", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := newBrowser(t, backend)
		b.check(webTest{method: http.MethodPost, path: "/login", form: url.Values{"username": {" "}}, wantCode: http.StatusOK})
		assert.Empty(t, backend.Calls())
	})
}

func TestServer_register(t *testing.T) {
	backend := testutil.NewBackend(t)
	b := newBrowser(t, backend)

	reg := func(username, pwd, confirm string) url.Values {
		return url.Values{
			"username":        {username},
			"email":           {"lina@school.edu"},
			"realName":        {"Li Na"},
			"password":        {pwd},
			"passwordConfirm": {confirm},
		}
	}

	t.Run("password mismatch", func(t *testing.T) {
		backend.Reset()
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/register",
			form:     reg("lina", "Tr0ub4dor&3", "Tr0ub4dor&4"),
			wantCode: http.StatusOK,
			wantBody: []string{"passwords do not match"},
		})
		assert.Empty(t, backend.Calls())
	})

	t.Run("username taken", func(t *testing.T) {
		backend.Handle(http.MethodPost, "/auth/register", http.StatusBadRequest, `{"message":"username already taken"}`)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/register",
			form:     reg("lina", "Tr0ub4dor&3", "Tr0ub4dor&3"),
			wantCode: http.StatusOK,
			wantBody: []string{"username already taken"},
		})
	})

	t.Run("registered", func(t *testing.T) {
		backend.Handle(http.MethodPost, "/auth/register", http.StatusOK, `{"message":"check your inbox","userId":9,"email":"lina@school.edu"}`)
		rec := b.check(webTest{
			method:   http.MethodPost,
			path:     "/register",
			form:     reg("lina", "Tr0ub4dor&3", "Tr0ub4dor&3"),
			wantCode: http.StatusOK,
			wantBody: []string{"check your inbox"},
		})

		var body map[string]interface{}
		backend.LastCall().JSON(t, &body)
		assert.Equal(t, "lina", body["username"])
		assert.Equal(t, "Li Na", body["realName"])
		assert.NotContains(t, body, "passwordConfirm")
		assert.NotContains(t, rec.Body.String(), "Tip:")
	})

	t.Run("weak password still registers", func(t *testing.T) {
		backend.Reset()
		backend.Handle(http.MethodPost, "/auth/register", http.StatusOK, `{"message":"check your inbox","userId":10,"email":"lina@school.edu"}`)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/register",
			form:     reg("li.na", "12345678", "12345678"),
			wantCode: http.StatusOK,
			wantBody: []string{"check your inbox", "Tip: password should not be entirely numeric."},
		})

		var body map[string]interface{}
		backend.LastCall().JSON(t, &body)
		assert.Equal(t, "li.na", body["username"])
		assert.Equal(t, "12345678", body["password"])
	})

	t.Run("verify token", func(t *testing.T) {
		backend.Handle(http.MethodGet, "/auth/verify-email", http.StatusOK, `{"message":"email verified"}`)
		b.check(webTest{path: "/verify-email?token=abc123", wantCode: http.StatusOK, wantBody: []string{"email verified"}})
		assert.Equal(t, "token=abc123", backend.LastCall().Query)
	})

	t.Run("verify bad token", func(t *testing.T) {
		backend.Handle(http.MethodGet, "/auth/verify-email", http.StatusBadRequest, `{"error":"token expired"}`)
		b.check(webTest{path: "/verify-email?token=old", wantCode: http.StatusOK, wantBody: []string{"token expired"}})
	})

	t.Run("resend", func(t *testing.T) {
		backend.Handle(http.MethodPost, "/auth/resend-verification", http.StatusOK, `{"message":"sent again"}`)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/verify-email/resend",
			form:     url.Values{"email": {"lina@school.edu"}},
			wantCode: http.StatusOK,
			wantBody: []string{"sent again"},
		})
	})
}

func TestServer_dashboard(t *testing.T) {
	grades := []grade.Grade{
		{ID: 1, StudentName: "Li Na", CourseName: "Data Structures", Score: 95, Semester: "2024 Spring"},
		{ID: 2, StudentName: "Wang Fang", CourseName: "Data Structures", Score: 55, Semester: "2024 Spring"},
	}

	t.Run("partial failure", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleTeacher)
		backend.Handle(http.MethodGet, "/teacher/grades", http.StatusOK, grades)
		backend.Handle(http.MethodGet, "/grades/statistics", http.StatusInternalServerError, nil)

		b.check(webTest{
			path:     "/dashboard",
			wantCode: http.StatusOK,
			wantBody: []string{`data-state="READY"`, apisvc.MsgServerError, "Li Na"},
		})
	})

	t.Run("total failure", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleAdmin)
		backend.Handle(http.MethodGet, "/admin/grades", http.StatusInternalServerError, nil)
		backend.Handle(http.MethodGet, "/grades/statistics", http.StatusInternalServerError, nil)

		b.check(webTest{path: "/dashboard", wantCode: http.StatusOK, wantBody: []string{`data-state="ERROR"`}})
	})

	t.Run("session expired", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleStudent)
		backend.Handle(http.MethodGet, "/student/grades", http.StatusUnauthorized, nil)

		b.check(webTest{path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"})
		b.check(webTest{path: "/grades", wantCode: http.StatusFound, wantLocation: "/login"})
	})

	t.Run("session expired on every joined call", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		backend.Handle(http.MethodGet, "/teacher/grades", http.StatusUnauthorized, nil)
		backend.Handle(http.MethodGet, "/grades/statistics", http.StatusUnauthorized, nil)
		backend.Handle(http.MethodGet, "/teacher/courses", http.StatusUnauthorized, nil)
		backend.Handle(http.MethodGet, "/teacher/courses/Data Structures/students", http.StatusUnauthorized, nil)
		backend.Handle(http.MethodGet, "/teacher/courses/Data Structures/grades", http.StatusUnauthorized, nil)

		for i := 0; i < 20; i++ {
			b := loggedIn(t, backend, user.RoleTeacher)
			b.check(webTest{path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"})
			b.check(webTest{path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login"})

			b = loggedIn(t, backend, user.RoleTeacher)
			b.check(webTest{path: "/teacher/grade-entry?course=Data+Structures", wantCode: http.StatusFound, wantLocation: "/login"})
		}
	})
}

func TestServer_grades(t *testing.T) {
	grades := []grade.Grade{
		{ID: 1, StudentName: "Li Na", CourseName: "Data Structures", Score: 95, Semester: "2024 Spring", AcademicYear: "2023-2024"},
		{ID: 2, StudentName: "Wang Fang", CourseName: "Operating Systems", Score: 72.5, Semester: "2024 Spring", AcademicYear: "2023-2024"},
	}

	t.Run("search", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleStudent)
		backend.Handle(http.MethodGet, "/student/grades", http.StatusOK, grades)

		rec := b.check(webTest{path: "/grades?q=operating", wantCode: http.StatusOK, wantBody: []string{"Wang Fang", "72.5"}})
		assert.NotContains(t, rec.Body.String(), "Li Na")
	})

	t.Run("export", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleStudent)
		backend.Handle(http.MethodGet, "/student/grades", http.StatusOK, grades)

		rec := b.check(webTest{path: "/grades/export.xlsx", wantCode: http.StatusOK})
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Grades")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Li Na", rows[1][0])
		assert.Equal(t, "Operating Systems", rows[2][1])
	})

	t.Run("export failure", func(t *testing.T) {
		restore := echoweb.SetExportXLSX(func(w io.Writer, _ []grade.Grade) error {
			_, _ = w.Write([]byte("PK partial"))
			return errors.New("excelize: disk full")
		})
		defer restore()

		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleStudent)
		backend.Handle(http.MethodGet, "/student/grades", http.StatusOK, grades)

		rec := b.check(webTest{path: "/grades/export.xlsx", wantCode: http.StatusInternalServerError, wantBody: []string{`data-state="ERROR"`}})
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
		assert.NotContains(t, rec.Body.String(), "PK partial")
	})

	t.Run("student cannot edit", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleStudent)
		b.check(webTest{method: http.MethodPost, path: "/grades/1/score", form: url.Values{"score": {"80"}}, wantCode: http.StatusForbidden})
		assert.Empty(t, backend.Calls())
	})

	t.Run("update score", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleTeacher)
		backend.Handle(http.MethodPut, "/grades/1", http.StatusOK, grades[0])

		b.check(webTest{
			method:       http.MethodPost,
			path:         "/grades/1/score",
			form:         url.Values{"score": {"88"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/grades?notice=saved",
		})
		var body grade.ScoreUpdate
		backend.LastCall().JSON(t, &body)
		assert.Equal(t, 88.0, body.Score)
	})

	t.Run("score out of range", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleTeacher)
		backend.Handle(http.MethodGet, "/teacher/grades", http.StatusOK, grades)

		b.check(webTest{method: http.MethodPost, path: "/grades/1/score", form: url.Values{"score": {"101"}}, wantCode: http.StatusOK, wantBody: []string{`role="alert"`}})
		for _, c := range backend.Calls() {
			assert.NotEqual(t, http.MethodPut, c.Method)
		}
	})
}

func TestServer_gradeEntry(t *testing.T) {
	const courseName = "Data Structures"

	setup := func(t *testing.T) (*testutil.Backend, *browser) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleTeacher)
		backend.Handle(http.MethodGet, "/teacher/courses", http.StatusOK, []map[string]interface{}{
			{"id": 1, "courseName": courseName, "courseCode": "CS201", "credit": 3},
		})
		backend.Handle(http.MethodGet, "/teacher/courses/"+courseName+"/students", http.StatusOK, []map[string]interface{}{
			{"id": 1, "realName": "Li Na", "userName": "s2023001", "studentNumber": "2023001", "className": "CS-1"},
			{"id": 2, "userName": "s2023002", "studentNumber": "2023002", "className": "CS-2"},
		})
		backend.Handle(http.MethodGet, "/teacher/courses/"+courseName+"/grades", http.StatusOK, []grade.Grade{
			{ID: 9, StudentName: "Li Na", CourseName: courseName, Score: 91, Semester: "2024 Spring"},
		})
		return backend, b
	}

	t.Run("sheet", func(t *testing.T) {
		_, b := setup(t)
		b.check(webTest{
			path:     "/teacher/grade-entry?course=" + url.QueryEscape(courseName),
			wantCode: http.StatusOK,
			wantBody: []string{"Li Na", "s2023002", "91", `name="score_2"`, "2023-2024"},
		})
	})

	t.Run("sheet search", func(t *testing.T) {
		_, b := setup(t)
		rec := b.check(webTest{path: "/teacher/grade-entry?q=CS-2&course=" + url.QueryEscape(courseName), wantCode: http.StatusOK})
		assert.NotContains(t, rec.Body.String(), `name="score_1"`)
		assert.Contains(t, rec.Body.String(), `name="score_2"`)
	})

	t.Run("save one", func(t *testing.T) {
		backend, b := setup(t)
		backend.Handle(http.MethodPost, "/teacher/grades", http.StatusOK, grade.Grade{ID: 10, StudentName: "s2023002", CourseName: courseName, Score: 77})

		b.check(webTest{
			method:       http.MethodPost,
			path:         "/teacher/grade-entry/save",
			form:         url.Values{"course": {courseName}, "studentId": {"2"}, "score_1": {""}, "score_2": {"77"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/teacher/grade-entry?course=Data+Structures&notice=saved",
		})
		var entry grade.Entry
		backend.LastCall().JSON(t, &entry)
		assert.Equal(t, grade.Entry{StudentName: "s2023002", CourseName: courseName, Score: 77, Semester: "2024 Spring", AcademicYear: "2023-2024"}, entry)
	})

	t.Run("save batch", func(t *testing.T) {
		backend, b := setup(t)
		backend.Handle(http.MethodPost, "/teacher/grades/batch", http.StatusOK, []grade.Grade{})

		b.check(webTest{
			method:       http.MethodPost,
			path:         "/teacher/grade-entry/batch",
			form:         url.Values{"course": {courseName}, "score_1": {"88.5"}, "score_2": {""}, "score_99": {"50"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/teacher/grade-entry?course=Data+Structures&notice=saved",
		})
		var entries []grade.Entry
		backend.LastCall().JSON(t, &entries)
		require.Len(t, entries, 1)
		assert.Equal(t, "Li Na", entries[0].StudentName)
		assert.Equal(t, 88.5, entries[0].Score)
	})

	t.Run("batch without scores", func(t *testing.T) {
		backend, b := setup(t)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/teacher/grade-entry/batch",
			form:     url.Values{"course": {courseName}, "score_1": {""}},
			wantCode: http.StatusOK,
			wantBody: []string{"enter at least one score"},
		})
		for _, c := range backend.Calls() {
			assert.NotEqual(t, http.MethodPost, c.Method)
		}
	})

	t.Run("batch out of range", func(t *testing.T) {
		backend, b := setup(t)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/teacher/grade-entry/batch",
			form:     url.Values{"course": {courseName}, "score_1": {"120"}},
			wantCode: http.StatusOK,
			wantBody: []string{`role="alert"`},
		})
		for _, c := range backend.Calls() {
			assert.NotEqual(t, http.MethodPost, c.Method)
		}
	})

}

func TestServer_courses(t *testing.T) {
	setup := func(t *testing.T) (*testutil.Backend, *browser) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleTeacher)
		backend.Handle(http.MethodGet, "/teacher/courses", http.StatusOK, []map[string]interface{}{
			{"id": 1, "courseName": "Data Structures", "courseCode": "CS201", "credit": 3},
			{"id": 2, "courseName": "Operating Systems", "courseCode": "CS301", "credit": 4},
		})
		return backend, b
	}

	t.Run("list", func(t *testing.T) {
		_, b := setup(t)
		rec := b.check(webTest{path: "/teacher/courses?q=cs3", wantCode: http.StatusOK, wantBody: []string{"Operating Systems"}})
		assert.NotContains(t, rec.Body.String(), "CS201")
	})

	t.Run("create", func(t *testing.T) {
		backend, b := setup(t)
		backend.Handle(http.MethodPost, "/teacher/courses", http.StatusOK, map[string]interface{}{"id": 3, "courseName": "Networks", "courseCode": "CS302", "credit": 2})
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/teacher/courses",
			form:         url.Values{"courseName": {"Networks"}, "courseCode": {"CS302"}, "credit": {"2"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/teacher/courses?notice=created",
		})
	})

	t.Run("create invalid", func(t *testing.T) {
		backend, b := setup(t)
		b.check(webTest{
			method:   http.MethodPost,
			path:     "/teacher/courses",
			form:     url.Values{"courseName": {"Networks"}},
			wantCode: http.StatusOK,
			wantBody: []string{"this field is required"},
		})
		for _, c := range backend.Calls() {
			assert.NotEqual(t, http.MethodPost, c.Method)
		}
	})

	t.Run("delete needs confirmation", func(t *testing.T) {
		backend, b := setup(t)
		b.check(webTest{method: http.MethodPost, path: "/teacher/courses/2/delete", form: url.Values{}, wantCode: http.StatusOK, wantBody: []string{`name="confirm" value="yes"`}})
		assert.Empty(t, backend.Calls())

		backend.Handle(http.MethodDelete, "/teacher/courses/2", http.StatusOK, apisvc.MessageResponse{Message: "deleted"})
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/teacher/courses/2/delete",
			form:         url.Values{"confirm": {"yes"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/teacher/courses?notice=deleted",
		})
		assert.Equal(t, http.MethodDelete, backend.LastCall().Method)
	})

	t.Run("bad id", func(t *testing.T) {
		_, b := setup(t)
		b.check(webTest{method: http.MethodPost, path: "/teacher/courses/abc/delete", form: url.Values{}, wantCode: http.StatusNotFound})
	})
}

func TestServer_users(t *testing.T) {
	setup := func(t *testing.T) (*testutil.Backend, *browser) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleAdmin)
		backend.Handle(http.MethodGet, "/admin/users", http.StatusOK, []map[string]interface{}{
			{"id": 1, "username": "admin", "realName": "Admin", "role": "ADMIN", "isActive": true},
			{"id": 2, "username": "tzhang", "realName": "Zhang Wei", "role": "TEACHER", "email": "zhang@school.edu", "isActive": true},
			{"id": 3, "username": "s2023001", "realName": "Li Na", "role": "STUDENT", "isActive": false},
		})
		return backend, b
	}

	t.Run("list", func(t *testing.T) {
		_, b := setup(t)
		rec := b.check(webTest{path: "/admin/user-management?q=zhang", wantCode: http.StatusOK, wantBody: []string{"Zhang Wei", "zhang@school.edu"}})
		assert.NotContains(t, rec.Body.String(), "Li Na")
		// counts are over every user, not the filtered ones
		assert.Contains(t, rec.Body.String(), "Users<br><strong>3</strong>")
		assert.Contains(t, rec.Body.String(), "Active<br><strong>2</strong>")
	})

	t.Run("create", func(t *testing.T) {
		backend, b := setup(t)
		backend.Handle(http.MethodPost, "/admin/users", http.StatusOK, map[string]interface{}{"id": 4, "username": "s2023002", "role": "STUDENT"})
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/admin/users",
			form:         url.Values{"username": {"s2023002"}, "password": {"pwd"}, "realName": {"Wang Fang"}, "role": {"STUDENT"}, "email": {""}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/admin/user-management?notice=created",
		})
		var body map[string]interface{}
		backend.LastCall().JSON(t, &body)
		assert.Equal(t, "s2023002", body["username"])
		assert.NotContains(t, body, "email")
	})

	t.Run("create with dotted username", func(t *testing.T) {
		backend, b := setup(t)
		backend.Handle(http.MethodPost, "/admin/users", http.StatusOK, map[string]interface{}{"id": 5, "username": "john.doe", "role": "TEACHER"})
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/admin/users",
			form:         url.Values{"username": {"john.doe"}, "password": {"pw"}, "realName": {"John Doe"}, "role": {"TEACHER"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/admin/user-management?notice=created",
		})
		var body map[string]interface{}
		backend.LastCall().JSON(t, &body)
		assert.Equal(t, "john.doe", body["username"])
	})

	t.Run("toggle status", func(t *testing.T) {
		backend, b := setup(t)
		backend.Handle(http.MethodPut, "/admin/users/3/status", http.StatusOK, apisvc.MessageResponse{Message: "ok"})
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/admin/users/3/status",
			form:         url.Values{"isActive": {"true"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/admin/user-management?notice=saved",
		})
		var body user.UpdateStatus
		backend.LastCall().JSON(t, &body)
		assert.True(t, body.IsActive)
	})

	t.Run("delete needs confirmation", func(t *testing.T) {
		backend, b := setup(t)
		b.check(webTest{method: http.MethodPost, path: "/admin/users/3/delete", form: url.Values{}, wantCode: http.StatusOK, wantBody: []string{"Delete this user?"}})
		assert.Empty(t, backend.Calls())

		backend.Handle(http.MethodDelete, "/admin/users/3", http.StatusOK, apisvc.MessageResponse{Message: "deleted"})
		b.check(webTest{
			method:       http.MethodPost,
			path:         "/admin/users/3/delete",
			form:         url.Values{"confirm": {"yes"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/admin/user-management?notice=deleted",
		})
	})

	t.Run("teacher forbidden", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		b := loggedIn(t, backend, user.RoleTeacher)
		b.check(webTest{method: http.MethodPost, path: "/admin/users/3/delete", form: url.Values{"confirm": {"yes"}}, wantCode: http.StatusForbidden})
		assert.Empty(t, backend.Calls())
	})
}

func TestServer_csrf(t *testing.T) {
	backend := testutil.NewBackend(t)
	handleLogin(t, backend, "user", user.RoleStudent)
	b := newBrowser(t, backend, true)

	rec := b.check(webTest{path: "/login", wantCode: http.StatusOK, wantBody: []string{`name="_csrf"`}})
	assert.NotContains(t, rec.Body.String(), `name="_csrf" value=""`)

	b.check(webTest{
		method:   http.MethodPost,
		path:     "/login",
		form:     url.Values{"username": {"user"}, "password": {"pwd"}, "_csrf": {"forged"}},
		wantCode: http.StatusForbidden,
	})
	assert.Empty(t, backend.Calls())
}
