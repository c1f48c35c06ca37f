package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

// PagesHandler renders the HTML pages and the error page.
type PagesHandler struct {
	catalog   *i18n.Catalog
	stores    storage.Stores
	selectors []string
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(c *i18n.Catalog, stores storage.Stores, selectors []string) *PagesHandler {
	return &PagesHandler{catalog: c, stores: stores, selectors: selectors}
}

// newBasePage collects what the pipeline resolved. Navigations that stopped
// before the locale or theme stage fall back to the negotiated locale and the
// stored theme.
func (h *PagesHandler) newBasePage(r *http.Request) BasePage {
	p := BasePage{Path: r.URL.RequestURI(), User: auth.UserFromContext(r.Context())}
	for _, locale := range h.catalog.Locales() {
		l, _ := h.catalog.Localizer(locale)
		p.locales = append(p.locales, l)
	}

	if b := pipeline.BagFromContext(r.Context()); b != nil {
		p.Locale, _ = i18n.LocaleSlot.Get(b)
		p.Theme, _ = theme.ContainerSlot.Get(b)
		p.Attrs, _ = theme.AttributesSlot.Get(b)
	}
	if p.Locale == nil {
		p.Locale = h.catalog.Negotiate(r.Header.Get("Accept-Language"))
	}
	if p.Theme == nil || p.Attrs == nil {
		p.Attrs = theme.NewAttributes()
		c, err := theme.New(r.Context(), theme.Options{
			Store:       h.stores.Local,
			Selectors:   h.selectors,
			Applier:     p.Attrs,
			PrefersDark: theme.RequestPreference(r, h.stores.Session),
		})
		if err != nil {
			zap.L().Warn("building fallback theme", zap.Error(err))
			c, _ = theme.New(r.Context(), theme.Options{Selectors: h.selectors, Applier: p.Attrs})
		}
		p.Theme = c
	}
	return p
}

// Home serves GET /{locale}.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "home.html", h.newBasePage(r))
}

// Applicant serves GET /{locale}/applicant. The chain guarantees a user.
func (h *PagesHandler) Applicant(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "applicant.html", h.newBasePage(r))
}

// Admin serves GET /{locale}/admin.
func (h *PagesHandler) Admin(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "admin.html", h.newBasePage(r))
}

// IAP serves the Indigenous apprenticeship micro-site.
func (h *PagesHandler) IAP(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "iap.html", h.newBasePage(r))
}

// NotFound renders the 404 page.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.RenderError(w, r, http.StatusNotFound, nil)
}

// RenderError is the pipeline.ErrorRenderer for HTML routes.
func (h *PagesHandler) RenderError(w http.ResponseWriter, r *http.Request, status int, _ error) {
	kind := "internal"
	switch status {
	case http.StatusForbidden:
		kind = "forbidden"
	case http.StatusNotFound:
		kind = "notfound"
	}
	render(w, status, "error.html", ErrorPage{BasePage: h.newBasePage(r), Status: status, Kind: kind})
}
