package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
)

const (
	cookieState        = "__auth_state"
	cookieCodeVerifier = "__auth_pkce"
	cookieRedirect     = "__auth_redirect"
)

// Handlers provides HTTP handlers for the OIDC authentication flow.
type Handlers struct {
	auth     Authenticator
	sessions *scs.SessionManager
	tokens   storage.Store
	secure   bool
}

// NewHandlers creates a new Handlers. Access tokens are written raw to tokens.
func NewHandlers(a Authenticator, sm *scs.SessionManager, tokens storage.Store, secure bool) *Handlers {
	return &Handlers{auth: a, sessions: sm, tokens: tokens, secure: secure}
}

// SafeFrom returns from when it is a local absolute path, and "" otherwise.
func SafeFrom(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return ""
	}
	return from
}

// localizer returns the navigation's locale, if the request went through the
// locale stage.
func localizer(r *http.Request) *i18n.Localizer {
	if b := pipeline.BagFromContext(r.Context()); b != nil {
		if l, err := i18n.LocaleSlot.Get(b); err == nil {
			return l
		}
	}
	return nil
}

// Login initiates the OIDC authorization code flow with PKCE.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := GenerateState()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	verifier, challenge, err := GeneratePKCE()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.setPreAuthCookie(w, cookieState, state)
	h.setPreAuthCookie(w, cookieCodeVerifier, verifier)

	locale := ""
	redirect := "/"
	if l := localizer(r); l != nil {
		locale = l.Locale
		redirect = l.Path("/")
	}
	if from := SafeFrom(r.URL.Query().Get("from")); from != "" {
		redirect = from
	}
	h.setPreAuthCookie(w, cookieRedirect, redirect)

	http.Redirect(w, r, h.auth.AuthCodeURL(state, challenge, locale), http.StatusFound)
}

// Callback handles the OIDC provider redirect after authentication.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(cookieState)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	verifierCookie, err := r.Cookie(cookieCodeVerifier)
	if err != nil {
		http.Error(w, "missing code verifier", http.StatusBadRequest)
		return
	}

	id, err := h.auth.Exchange(r.Context(), r.URL.Query().Get("code"), verifierCookie.Value)
	if err != nil {
		zap.L().Warn("oidc exchange failed", zap.Error(err))
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	h.sessions.Put(r.Context(), SessionIssuerKey, id.Issuer)
	h.sessions.Put(r.Context(), SessionSubjectKey, id.Subject)

	if err := h.tokens.Write(r.Context(), AccessTokenKey, id.AccessToken); err != nil {
		zap.L().Error("storing access token", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	h.clearCookie(w, cookieState)
	h.clearCookie(w, cookieCodeVerifier)

	redirect := "/"
	if c, err := r.Cookie(cookieRedirect); err == nil {
		if from := SafeFrom(c.Value); from != "" {
			redirect = from
		}
	}
	h.clearCookie(w, cookieRedirect)

	http.Redirect(w, r, redirect, http.StatusFound)
}

// Logout forgets the access token, destroys the session and returns to the
// home page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Delete(r.Context(), AccessTokenKey); err != nil {
		zap.L().Warn("removing access token", zap.Error(err))
	}
	if err := h.sessions.Destroy(r.Context()); err != nil {
		http.Error(w, "logout error", http.StatusInternalServerError)
		return
	}
	home := "/"
	if l := localizer(r); l != nil {
		home = l.Path("/")
	}
	http.Redirect(w, r, home, http.StatusSeeOther)
}

func (h *Handlers) setPreAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   300, // 5 minutes
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}
