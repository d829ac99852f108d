package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const tokenKey = "token"

// Sessions stores the access token in a signed cookie so browser clients
// don't have to keep it themselves.
type Sessions struct {
	store sessions.Store
	name  string
}

func NewSessions(secret, name string, maxAge time.Duration, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, name: name}
}

// Save writes token into the session cookie.
func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[tokenKey] = token
	return session.Save(r, w)
}

// Token returns the token stored in the request's session cookie, if any.
func (s *Sessions) Token(r *http.Request) string {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return ""
	}
	token, _ := session.Values[tokenKey].(string)
	return token
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
