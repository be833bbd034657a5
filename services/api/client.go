package apisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/session"
	"github.com/trezcool/gradeportal/core/user"
)

type Kind string

// Failure kinds
const (
	KindAuthentication  Kind = "authentication"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindServer          Kind = "server"
	KindRequest         Kind = "request"
	KindNetwork         Kind = "network"
	KindInvalidResponse Kind = "invalid_response"
	KindValidation      Kind = "validation"
)

// Failure messages
const (
	MsgSessionExpired  = "session expired"
	MsgForbidden       = "forbidden"
	MsgNotFound        = "not found"
	MsgServerError     = "server error"
	MsgNetworkError    = "network error"
	MsgInvalidResponse = "invalid response"
	MsgInvalidRole     = "invalid role"
)

// Result is the outcome of a backend call; failures are values, never Go errors or panics.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	Kind    Kind
	Status  int
	Fields  map[string]string // per-field messages of a KindValidation failure
}

// Err returns the failure as an *Error, or nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Status: r.Status, Message: r.Error}
}

type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// IsKind reports whether `err` is an *Error of `kind`.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
	Metrics    *Metrics
}

// Client calls the grade management REST backend on behalf of the session held in its store.
type Client struct {
	baseURL    string
	http       *http.Client
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
	metrics    *Metrics
	store      session.Store
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	translator := opts.Translator
	if translator == nil {
		translator = core.NewTranslator()
	}
	validate := opts.Validate
	if validate == nil {
		validate = core.NewValidator(translator)
		user.InitValidators(validate, translator)
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       httpClient,
		validate:   validate,
		translator: translator,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// WithStore returns a copy of the client reading its token from `store`.
func (c *Client) WithStore(store session.Store) *Client {
	clone := *c
	clone.store = store
	return &clone
}

func (c *Client) Validator() *validator.Validate { return c.validate }

func (c *Client) Translator() ut.Translator { return c.translator }

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// call sends `body` as JSON to `method` `path` and decodes a 2xx response into T.
// `op` names the operation in metrics and logs.
func call[T any](ctx context.Context, c *Client, op, method, path string, body interface{}) (res Result[T]) {
	start := time.Now()
	defer func() { c.metrics.observe(op, res.Kind, res.Success, time.Since(start)) }()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.logError(op, errors.Wrap(err, "json.Marshal()"))
			return Result[T]{Kind: KindRequest, Error: "request failed"}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		c.logError(op, errors.Wrap(err, "http.NewRequest()"))
		return Result[T]{Kind: KindRequest, Error: "request failed"}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logWarn(op, errors.Wrap(err, "http.Do()"))
		return Result[T]{Kind: KindNetwork, Error: MsgNetworkError}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logWarn(op, errors.Wrap(err, "io.ReadAll()"))
		return Result[T]{Kind: KindNetwork, Error: MsgNetworkError, Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure[T](ctx, c, resp.StatusCode, data)
	}

	var out T
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return Result[T]{Success: true, Data: out, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		c.logWarn(op, errors.Wrap(err, "json.Unmarshal()"))
		return Result[T]{Kind: KindInvalidResponse, Error: MsgNetworkError, Status: resp.StatusCode}
	}
	if err := c.validateResponse(out); err != nil {
		c.logWarn(op, errors.Wrap(err, "validating response"))
		return Result[T]{Kind: KindInvalidResponse, Error: MsgInvalidResponse, Status: resp.StatusCode}
	}
	return Result[T]{Success: true, Data: out, Status: resp.StatusCode}
}

// failure maps a non-2xx response to a Result; a 401 also ends the session.
func failure[T any](ctx context.Context, c *Client, status int, data []byte) Result[T] {
	res := Result[T]{Status: status}
	switch {
	case status == http.StatusUnauthorized:
		if c.store != nil {
			if err := session.Clear(ctx, c.store); err != nil {
				c.logError("clear session", err)
			}
		}
		res.Kind, res.Error = KindAuthentication, MsgSessionExpired
	case status == http.StatusForbidden:
		res.Kind, res.Error = KindForbidden, MsgForbidden
	case status == http.StatusNotFound:
		res.Kind, res.Error = KindNotFound, MsgNotFound
	case status >= http.StatusInternalServerError:
		res.Kind, res.Error = KindServer, MsgServerError
	default:
		res.Kind = KindRequest
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		switch {
		case eb.Message != "":
			res.Error = eb.Message
		case eb.Error != "":
			res.Error = eb.Error
		default:
			res.Error = fmt.Sprintf("request failed (%d)", status)
		}
	}
	return res
}

// invalid returns the KindValidation Result of a client-side validation error.
func invalid[T any](c *Client, err error) Result[T] {
	err = core.TranslateValidationErrors(err, c.translator)
	res := Result[T]{Kind: KindValidation, Error: err.Error()}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		res.Fields = vErr.FieldMap()
	}
	return res
}

// validateResponse checks the `validate` tags of a decoded struct or of each struct of a decoded slice.
func (c *Client) validateResponse(v interface{}) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		return c.validate.Struct(rv.Interface())
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			if err := c.validateResponse(rv.Index(i).Interface()); err != nil {
				return errors.Wrapf(err, "item %d", i)
			}
		}
	}
	return nil
}

func (c *Client) token(ctx context.Context) string {
	if c.store == nil {
		return ""
	}
	token, err := session.Token(ctx, c.store)
	if err != nil {
		c.logError("read token", err)
		return ""
	}
	return token
}

func (c *Client) logWarn(op string, err error) {
	if c.logger != nil {
		c.logger.Warn("apisvc."+op, err)
	}
}

func (c *Client) logError(op string, err error) {
	if c.logger != nil {
		c.logger.Error("apisvc."+op, err)
	}
}
