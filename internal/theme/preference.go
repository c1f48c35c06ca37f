package theme

import (
	"context"
	"net/http"
	"strings"

	"github.com/joestump/talent-portal/internal/storage"
)

// PreferenceKey is the session-scope key holding the OS preference last
// reported by the page script.
const PreferenceKey = "prefers_dark"

// ClientHintHeader carries the browser's color-scheme preference.
const ClientHintHeader = "Sec-CH-Prefers-Color-Scheme"

// RequestPreference reports whether the visitor's OS prefers dark. A value
// reported by the page wins over the client hint; with neither it is false.
func RequestPreference(r *http.Request, session storage.Store) bool {
	if dark, status := storage.Lookup[bool](r.Context(), session, PreferenceKey); status == storage.Present {
		return dark
	}
	hint := strings.Trim(strings.TrimSpace(r.Header.Get(ClientHintHeader)), `"`)
	return strings.EqualFold(hint, "dark")
}

// RecordPreference stores a preference reported by the page.
func RecordPreference(ctx context.Context, session storage.Store, dark bool) error {
	return storage.Set(ctx, session, PreferenceKey, dark)
}

// ClientHintMiddleware asks the browser to send ClientHintHeader on later
// requests. Critical-CH makes Chromium retry the first navigation with it.
func ClientHintMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Accept-CH", ClientHintHeader)
		h.Set("Critical-CH", ClientHintHeader)
		h.Add("Vary", ClientHintHeader)
		next.ServeHTTP(w, r)
	})
}
