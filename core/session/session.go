// Package session holds the persisted login state shared between the auth manager and the API client.
package session

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core/user"
)

// Storage keys
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyRealName = "realName"
	KeyRole     = "role"
	KeyUserID   = "userId"
	KeyUser     = "user"
)

// Keys lists every key a Session is persisted under.
var Keys = []string{KeyToken, KeyUsername, KeyRealName, KeyRole, KeyUserID, KeyUser}

var (
	ErrNotFound = errors.New("session not found")
	ErrInvalid  = errors.New("invalid session")
)

// Store is a string key/value store scoped to a single client.
// Get returns an empty string and no error for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is the identity of the logged-in user.
type Session struct {
	Token    string    `json:"-"`
	UserID   int       `json:"userId" validate:"gt=0"`
	Username string    `json:"username" validate:"required"`
	RealName string    `json:"realName"`
	Role     user.Role `json:"role" validate:"required"`
}

func (s Session) IsAdmin() bool   { return s.Role == user.RoleAdmin }
func (s Session) IsTeacher() bool { return s.Role == user.RoleTeacher }
func (s Session) IsStudent() bool { return s.Role == user.RoleStudent }

// Save persists `sess` key by key, plus the combined user blob.
func Save(ctx context.Context, store Store, sess Session) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "json.Marshal()")
	}
	values := [][2]string{
		{KeyToken, sess.Token},
		{KeyUsername, sess.Username},
		{KeyRealName, sess.RealName},
		{KeyRole, string(sess.Role)},
		{KeyUserID, strconv.Itoa(sess.UserID)},
		{KeyUser, string(blob)},
	}
	for _, kv := range values {
		if err := store.Set(ctx, kv[0], kv[1]); err != nil {
			return errors.Wrapf(err, "store.Set(%s)", kv[0])
		}
	}
	return nil
}

// Load reads the session back from `store`.
// It returns ErrNotFound when there is no token or user blob, and ErrInvalid when the blob is unusable.
func Load(ctx context.Context, store Store) (*Session, error) {
	token, err := store.Get(ctx, KeyToken)
	if err != nil {
		return nil, errors.Wrap(err, "store.Get(token)")
	}
	blob, err := store.Get(ctx, KeyUser)
	if err != nil {
		return nil, errors.Wrap(err, "store.Get(user)")
	}
	if token == "" || blob == "" {
		return nil, ErrNotFound
	}

	var sess Session
	if err := json.Unmarshal([]byte(blob), &sess); err != nil {
		return nil, ErrInvalid
	}
	if sess.UserID <= 0 || sess.Username == "" || !sess.Role.Valid() {
		return nil, ErrInvalid
	}
	sess.Token = token
	return &sess, nil
}

// Clear removes every session key from `store`.
func Clear(ctx context.Context, store Store) error {
	return errors.Wrap(store.Delete(ctx, Keys...), "store.Delete()")
}

// Token returns the stored token, if any.
func Token(ctx context.Context, store Store) (string, error) {
	token, err := store.Get(ctx, KeyToken)
	return token, errors.Wrap(err, "store.Get(token)")
}
