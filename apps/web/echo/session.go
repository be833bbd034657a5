package echoweb

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/session"
	apisvc "github.com/trezcool/gradeportal/services/api"
	cookiesession "github.com/trezcool/gradeportal/storage/session/cookie"
	redissession "github.com/trezcool/gradeportal/storage/session/redis"
)

const (
	ctxAuthKey   = "auth"
	ctxClientKey = "api"
	ctxRedisKey  = "redisSession"
	sidKey       = "sid"
)

var (
	errNoAuthInCtx  = errors.New("auth manager not found in echo.Context")
	errNoRedisInCtx = errors.New("redis session not found in echo.Context")
)

// SessionFactory opens the session store of a request.
// The returned flush func must run before the response headers are written.
type SessionFactory interface {
	Open(ctx echo.Context) (store session.Store, flush func() error)
	// Rotate gives the session of the request a new id, keeping its content. It runs on login.
	Rotate(ctx echo.Context) error
}

type cookieSessions struct {
	store sessions.Store
	name  string
}

// NewCookieSessions keeps the whole session in a signed & encrypted cookie.
func NewCookieSessions(conf *core.Config) SessionFactory {
	return &cookieSessions{store: cookiesession.NewCookieStore(conf), name: conf.Session.Name}
}

func (cs *cookieSessions) Open(ctx echo.Context) (session.Store, func() error) {
	store := cookiesession.New(cs.store, cs.name, ctx.Request(), ctx.Response())
	return store, store.Flush
}

// Rotate is a no-op: the cookie holds the whole session and is re-encoded on every write.
func (cs *cookieSessions) Rotate(echo.Context) error { return nil }

type redisSessions struct {
	cookies sessions.Store
	client  *redis.Client
	name    string
	ttl     time.Duration
}

// NewRedisSessions keeps the session in redis; the cookie only holds its opaque id.
func NewRedisSessions(conf *core.Config, client *redis.Client) SessionFactory {
	return &redisSessions{
		cookies: cookiesession.NewCookieStore(conf),
		client:  client,
		name:    conf.Session.Name,
		ttl:     conf.Session.MaxAge,
	}
}

func (rs *redisSessions) Open(ctx echo.Context) (session.Store, func() error) {
	cookie := cookiesession.New(rs.cookies, rs.name, ctx.Request(), ctx.Response())
	sid, _ := cookie.Get(ctx.Request().Context(), sidKey)
	if !redissession.ValidID(sid) {
		sid = redissession.NewID()
		_ = cookie.Set(ctx.Request().Context(), sidKey, sid)
	}
	store := redissession.New(rs.client, sid, rs.ttl)
	ctx.Set(ctxRedisKey, &redisRequest{cookie: cookie, store: store})
	return store, cookie.Flush
}

type redisRequest struct {
	cookie *cookiesession.Store
	store  *redissession.Store
}

func (rs *redisSessions) Rotate(ctx echo.Context) error {
	rr, ok := ctx.Get(ctxRedisKey).(*redisRequest)
	if !ok {
		return errNoRedisInCtx
	}
	sid, err := rr.store.Rotate(ctx.Request().Context())
	if err != nil {
		return err
	}
	return rr.cookie.Set(ctx.Request().Context(), sidKey, sid)
}

// sessionMiddleware restores the auth state of the request from its session store.
func sessionMiddleware(factory SessionFactory, client *apisvc.Client, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			store, flush := factory.Open(ctx)
			ctx.Response().Before(func() {
				if err := flush(); err != nil {
					logger.Error("flushing session", err)
				}
			})

			reqClient := client.WithStore(store)
			m := auth.NewManager(store, reqClient, logger)
			m.Init(ctx.Request().Context())

			ctx.Set(ctxAuthKey, m)
			ctx.Set(ctxClientKey, reqClient)
			return next(ctx)
		}
	}
}

func getManager(ctx echo.Context) (*auth.Manager, error) {
	if m, ok := ctx.Get(ctxAuthKey).(*auth.Manager); ok {
		return m, nil
	}
	return nil, errNoAuthInCtx
}

func getClient(ctx echo.Context) *apisvc.Client {
	return ctx.Get(ctxClientKey).(*apisvc.Client)
}

// requirePage gates a page on `req`: anonymous users are sent to the login page,
// users with the wrong role get a forbidden page.
func requirePage(req auth.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			m, err := getManager(ctx)
			if err != nil {
				return err
			}
			switch auth.Authorize(m.User(), req) {
			case auth.RedirectLogin:
				return ctx.Redirect(http.StatusFound, auth.PathLogin)
			case auth.Forbid:
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
