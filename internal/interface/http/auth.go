package http

import (
	"net/http"

	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

const sessionName = "placement-session"

const (
	sessionKeyUserID = "user_id"
	sessionKeyRole   = "role"
)

// Actor is the authenticated caller resolved from the session cookie.
// Role is informational at this layer; each workflow operation re-checks
// the actor's role against the store before acting.
type Actor struct {
	ID   string
	Role user.Role
}

// currentActor resolves the caller from the session cookie.
func (s *Server) currentActor(r *http.Request) (Actor, bool) {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return Actor{}, false
	}

	id, ok := session.Values[sessionKeyUserID].(string)
	if !ok || id == "" {
		return Actor{}, false
	}

	role, _ := session.Values[sessionKeyRole].(string)
	return Actor{ID: id, Role: user.Role(role)}, true
}

// establishSession writes the caller's identity into the session cookie.
func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, u *user.User) error {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie decodes with an error but still
		// yields a usable new session.
		session, _ = s.sessions.New(r, sessionName)
	}

	session.Values[sessionKeyUserID] = u.ID
	session.Values[sessionKeyRole] = string(u.Role)
	return session.Save(r, w)
}

// clearSession expires the session cookie.
func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) error {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		session, _ = s.sessions.New(r, sessionName)
	}

	session.Options.MaxAge = -1
	session.Values = make(map[interface{}]interface{})
	return session.Save(r, w)
}

// requireActor resolves the caller or answers 401. Handlers call it first
// and bail on !ok.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	actor, ok := s.currentActor(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authorization_error", "authentication required")
		return Actor{}, false
	}
	return actor, true
}
