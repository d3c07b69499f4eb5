package stubapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
)

// ErrNotLoggedIn is reported by requireSession.
var ErrNotLoggedIn = errors.New("not logged in")

const (
	sessionAuthKey = "authenticated"
	sessionUserKey = "user"
)

func newSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 7)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// Get only fails on a bad cookie; it still returns a fresh session.
	sess, err := s.sessions.Get(r, s.cookieName)
	if err != nil {
		s.logger.Debug("discarding unreadable session cookie", "error", err)
	}
	return sess
}

func (s *Server) loggedIn(r *http.Request) bool {
	v, ok := s.session(r).Values[sessionAuthKey].(bool)
	return ok && v
}

// requireSession answers 401 for requests without a logged-in session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn(r) {
			writeError(w, s.logger, http.StatusUnauthorized, ErrNotLoggedIn.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleLogin simulates the OAuth round trip: the session is marked logged in
// and the browser is sent back to the redirect target.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	sess.Values[sessionAuthKey] = true
	sess.Values[sessionUserKey] = s.demoUser
	if err := sess.Save(r, w); err != nil {
		internalError(w, s.logger, err)
		return
	}
	s.logger.Info("session logged in", "user", s.demoUser)
	http.Redirect(w, r, s.redirectTarget(r), http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		internalError(w, s.logger, err)
		return
	}
	s.logger.Info("session logged out")
	http.Redirect(w, r, s.redirectTarget(r), http.StatusFound)
}

// redirectTarget returns the redirect query parameter when it is a local path
// or points at an allowed origin, and "/" otherwise.
func (s *Server) redirectTarget(r *http.Request) string {
	target := r.URL.Query().Get("redirect")
	if target == "" {
		return "/"
	}
	if strings.HasPrefix(target, "/") {
		// Browsers read //host and /\host as another host.
		if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
			return "/"
		}
		return target
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "/"
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range s.allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return target
		}
	}
	return "/"
}
