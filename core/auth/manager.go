// Package auth tracks who is logged in and which pages they may open.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/session"
)

// Authenticator exchanges credentials for a new session.
// The returned error message is shown to the user as is.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (session.Session, error)
}

type LoginResult struct {
	Success bool
	Error   string
}

// Manager holds the auth state of one client: a browser request or a terminal process.
type Manager struct {
	store     session.Store
	authn     Authenticator
	logger    core.Logger
	now       func() time.Time
	user      *session.Session
	isLoading bool
}

func NewManager(store session.Store, authn Authenticator, logger core.Logger) *Manager {
	return &Manager{
		store:     store,
		authn:     authn,
		logger:    logger,
		now:       time.Now,
		isLoading: true,
	}
}

func (m *Manager) Store() session.Store { return m.store }

// Init restores the user from the session store; an unusable or expired session is cleared.
func (m *Manager) Init(ctx context.Context) {
	defer func() { m.isLoading = false }()

	sess, err := session.Load(ctx, m.store)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		m.user = nil
		return
	case errors.Is(err, session.ErrInvalid):
		m.logger.Warn("auth.Init: discarding invalid session")
		m.clear(ctx)
		return
	default:
		m.logger.Error("auth.Init: loading session", err)
		m.user = nil
		return
	}

	if TokenExpired(sess.Token, m.now()) {
		m.logger.Info("auth.Init: session expired", *sess)
		m.clear(ctx)
		return
	}
	m.user = sess
}

// Login authenticates against the backend and persists the new session.
// On failure the current state is left untouched.
func (m *Manager) Login(ctx context.Context, username, password string) LoginResult {
	username = core.CleanString(username)
	if username == "" || password == "" {
		return LoginResult{Error: "username and password are required"}
	}

	sess, err := m.authn.Authenticate(ctx, username, password)
	if err != nil {
		return LoginResult{Error: err.Error()}
	}
	if err := session.Save(ctx, m.store, sess); err != nil {
		m.logger.Error("auth.Login: saving session", err, sess)
		m.restore(ctx)
		return LoginResult{Error: "could not save session"}
	}

	m.user = &sess
	m.isLoading = false
	return LoginResult{Success: true}
}

// Logout removes the session; it never fails, even when nobody is logged in.
func (m *Manager) Logout(ctx context.Context) {
	m.clear(ctx)
}

// User returns a copy of the logged-in user, or nil.
func (m *Manager) User() *session.Session {
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsLoading() bool { return m.isLoading }

func (m *Manager) IsAuthenticated() bool { return m.user != nil }

// restore puts back the stored session of the current user after a partial write.
func (m *Manager) restore(ctx context.Context) {
	var err error
	if m.user != nil {
		err = session.Save(ctx, m.store, *m.user)
	} else {
		err = session.Clear(ctx, m.store)
	}
	if err != nil {
		m.logger.Error("auth: restoring session", err)
	}
}

func (m *Manager) clear(ctx context.Context) {
	m.user = nil
	if err := session.Clear(ctx, m.store); err != nil {
		m.logger.Error("auth: clearing session", err)
	}
}

// TokenExpired reports whether `token` is a JWT whose exp claim is before `now`.
// Opaque tokens never expire client-side.
func TokenExpired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}
