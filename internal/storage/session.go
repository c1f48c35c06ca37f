package storage

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

type sessionMarker struct{}

// SessionStore keeps values in the scs session, so they end with it.
type SessionStore struct {
	sessions *scs.SessionManager
}

// NewSessionStore wraps sm.
func NewSessionStore(sm *scs.SessionManager) *SessionStore {
	return &SessionStore{sessions: sm}
}

// Middleware loads and saves the session around next and marks the request
// context so the store knows session data is present. Use it in place of
// sm.LoadAndSave.
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	mark := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), sessionMarker{}, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
	return s.sessions.LoadAndSave(mark)
}

// attached guards every scs call: scs panics when no session was loaded.
func attached(ctx context.Context) bool {
	ok, _ := ctx.Value(sessionMarker{}).(bool)
	return ok
}

func (s *SessionStore) Read(ctx context.Context, key string) (string, bool, error) {
	if !attached(ctx) {
		return "", false, ErrUnavailable
	}
	if !s.sessions.Exists(ctx, key) {
		return "", false, nil
	}
	return s.sessions.GetString(ctx, key), true, nil
}

func (s *SessionStore) Write(ctx context.Context, key, raw string) error {
	if !attached(ctx) {
		return ErrUnavailable
	}
	s.sessions.Put(ctx, key, raw)
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if !attached(ctx) {
		return ErrUnavailable
	}
	s.sessions.Remove(ctx, key)
	return nil
}
