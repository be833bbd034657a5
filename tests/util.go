package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradeportal/core"
)

// Call is a request received by the Backend.
type Call struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// JSON decodes the call body into `v`.
func (c Call) JSON(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(c.Body, v); err != nil {
		t.Fatalf("Call.JSON() failed: %v; body %s", err, c.Body)
	}
}

type response struct {
	status int
	body   []byte
}

// Backend is a fake REST backend serving canned responses under /api.
type Backend struct {
	t      *testing.T
	srv    *httptest.Server
	mutex  sync.Mutex
	routes map[string]response
	calls  []Call
}

func NewBackend(t *testing.T) *Backend {
	b := &Backend{t: t, routes: make(map[string]response)}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Group("/api").Any("/*", b.serve)

	b.srv = httptest.NewServer(e)
	t.Cleanup(b.Close)
	return b
}

// URL returns the base URL to configure the API client with.
func (b *Backend) URL() string { return b.srv.URL + "/api" }

func (b *Backend) Close() { b.srv.Close() }

// Handle registers the response to `method` `path` (relative to /api, unescaped).
// `body` is sent as is when it is a string or []byte, JSON encoded otherwise; nil sends no body.
func (b *Backend) Handle(method, path string, status int, body interface{}) {
	var data []byte
	switch v := body.(type) {
	case nil:
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			b.t.Fatalf("Backend.Handle() failed: %v", err)
		}
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.routes[method+" "+path] = response{status: status, body: data}
}

// Calls returns the requests received so far.
func (b *Backend) Calls() []Call {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	calls := make([]Call, len(b.calls))
	copy(calls, b.calls)
	return calls
}

// LastCall returns the last received request; it fails the test if there is none.
func (b *Backend) LastCall() Call {
	b.t.Helper()
	calls := b.Calls()
	if len(calls) == 0 {
		b.t.Fatal("Backend.LastCall(): no calls")
	}
	return calls[len(calls)-1]
}

func (b *Backend) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.calls = nil
}

func (b *Backend) serve(c echo.Context) error {
	req := c.Request()
	body, _ := io.ReadAll(req.Body)
	path := strings.TrimPrefix(req.URL.Path, "/api")

	b.mutex.Lock()
	b.calls = append(b.calls, Call{
		Method: req.Method,
		Path:   path,
		Query:  req.URL.RawQuery,
		Auth:   req.Header.Get(echo.HeaderAuthorization),
		Body:   body,
	})
	resp, ok := b.routes[req.Method+" "+path]
	b.mutex.Unlock()

	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": fmt.Sprintf("no route %s %s", req.Method, path)})
	}
	if resp.body == nil {
		return c.NoContent(resp.status)
	}
	return c.Blob(resp.status, echo.MIMEApplicationJSONCharsetUTF8, resp.body)
}

// Token returns a signed JWT for `username` expiring at `exp`.
func Token(t *testing.T, username string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": username, "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// Logger records log messages by level.
type Logger struct {
	mutex    sync.Mutex
	Messages map[string][]string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return &Logger{Messages: make(map[string][]string)} }

func (l *Logger) log(level, msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.Messages[level] = append(l.Messages[level], msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }
