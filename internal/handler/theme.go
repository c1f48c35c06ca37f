package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

// ThemeHandler handles the theme endpoints.
type ThemeHandler struct {
	session storage.Store
}

// NewThemeHandler creates a new ThemeHandler. OS preferences are recorded in
// session.
func NewThemeHandler(session storage.Store) *ThemeHandler {
	return &ThemeHandler{session: session}
}

// isHTMX returns true when the request was sent by HTMX or the theme script.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func themeContainer(r *http.Request) *theme.Container {
	b := pipeline.BagFromContext(r.Context())
	if b == nil {
		return nil
	}
	c, _ := theme.ContainerSlot.Get(b)
	return c
}

// Set handles POST /theme with optional mode and key form values.
func (h *ThemeHandler) Set(w http.ResponseWriter, r *http.Request) {
	c := themeContainer(r)
	if c == nil {
		http.Error(w, "theme unavailable", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	next := c.Theme()
	if v := r.PostFormValue("mode"); v != "" {
		m, err := theme.ParseMode(v)
		if err != nil {
			http.Error(w, "invalid mode", http.StatusBadRequest)
			return
		}
		next.Mode = m
	}
	if v := r.PostFormValue("key"); v != "" {
		k, err := theme.ParseKey(v)
		if err != nil {
			http.Error(w, "invalid key", http.StatusBadRequest)
			return
		}
		next.Key = k
	}

	if err := c.SetTheme(r.Context(), next); err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			http.Error(w, "theme storage unavailable", http.StatusServiceUnavailable)
			return
		}
		zap.L().Error("saving theme", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, refererPath(r), http.StatusSeeOther)
		return
	}
	writeThemeTrigger(w, c)
}

// Preference handles POST /theme/preference, sent by the page script when the
// OS color scheme changes and on load.
func (h *ThemeHandler) Preference(w http.ResponseWriter, r *http.Request) {
	c := themeContainer(r)
	if c == nil {
		http.Error(w, "theme unavailable", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	dark, err := strconv.ParseBool(r.PostFormValue("dark"))
	if err != nil {
		http.Error(w, "invalid preference", http.StatusBadRequest)
		return
	}

	if err := theme.RecordPreference(r.Context(), h.session, dark); err != nil {
		zap.L().Debug("preference not recorded", zap.Error(err))
	}
	if !c.OnPreferenceChange(dark) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeThemeTrigger(w, c)
}

// writeThemeTrigger returns HX-Trigger for the client-side data-theme swap.
func writeThemeTrigger(w http.ResponseWriter, c *theme.Container) {
	trigger, _ := json.Marshal(map[string]any{
		"themeChanged": map[string]string{
			"className": c.ClassName(),
			"key":       string(c.Key()),
			"mode":      string(c.FullMode()),
		},
	})
	w.Header().Set("HX-Trigger", string(trigger))
	w.WriteHeader(http.StatusOK)
}

// refererPath returns the local path of the Referer, or "/".
func refererPath(r *http.Request) string {
	u, err := url.Parse(r.Referer())
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/"
	}
	if p := auth.SafeFrom(u.RequestURI()); p != "" {
		return p
	}
	return "/"
}
