package cookiesession

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"net/http"
	"sync"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core"
)

// NewCookieStore returns the signed & encrypted cookie store derived from the app secret key.
func NewCookieStore(conf *core.Config) *sessions.CookieStore {
	var hashKey, blockKey []byte
	if conf.SecretKey == "" {
		hashKey, blockKey = securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32)
	} else {
		h := sha512.Sum512([]byte(conf.SecretKey))
		b := sha256.Sum256([]byte("session:" + conf.SecretKey))
		hashKey, blockKey = h[:], b[:]
	}

	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(conf.Session.MaxAge.Seconds()),
		Secure:   conf.Session.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// Store is the session of a single HTTP request, kept in a gorilla session.
// Writes are buffered until Flush, which must run before the response headers are written.
// A Store is shared by the concurrent API calls of a page.
type Store struct {
	mutex sync.RWMutex
	sess  *sessions.Session
	r     *http.Request
	w     http.ResponseWriter
	dirty bool
}

// New loads the `name` session of `r`. An undecodable cookie yields an empty session.
func New(store sessions.Store, name string, r *http.Request, w http.ResponseWriter) *Store {
	// decoding errors come with a new, empty session
	sess, _ := store.Get(r, name)
	if sess == nil {
		sess = sessions.NewSession(store, name)
		sess.Options = &sessions.Options{Path: "/", HttpOnly: true}
	}
	return &Store{sess: sess, r: r, w: w}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	val, _ := s.sess.Values[key].(string)
	return val, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sess.Values[key] = value
	s.dirty = true
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, key := range keys {
		if _, ok := s.sess.Values[key]; ok {
			delete(s.sess.Values, key)
			s.dirty = true
		}
	}
	return nil
}

// Flush writes the session cookie if anything changed.
func (s *Store) Flush() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.dirty {
		return nil
	}
	s.dirty = false
	return errors.Wrap(s.sess.Save(s.r, s.w), "sessions.Save()")
}
