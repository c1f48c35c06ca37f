// Package handler wires the HTTP routes of the talent portal.
package handler

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/joestump/talent-portal/docs/swagger"
	"github.com/joestump/talent-portal/internal/api"
	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
	"github.com/joestump/talent-portal/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	DB           *sqlx.DB // optional; pinged by /healthz
	Sessions     *storage.SessionStore
	Stores       storage.Stores
	Catalog      *i18n.Catalog
	Pool         *apiclient.Pool
	AuthHandlers *auth.Handlers
	Selectors    []string
	IAPKey       theme.Key
	CORSOrigins  []string
	// SecureCookies marks the device cookie Secure.
	SecureCookies bool
}

// Chains are the composed pipelines behind the HTML routes.
type Chains struct {
	Locale    *pipeline.Chain // locale only: login, logout
	Theme     *pipeline.Chain // locale and theme: theme endpoints
	Public    *pipeline.Chain
	Protected *pipeline.Chain
	Admin     *pipeline.Chain
	IAP       *pipeline.Chain
}

// knownLocale ends navigations whose first path segment is not a supported
// locale. The chain renders them as 404 in the negotiated locale.
func knownLocale(c *i18n.Catalog) pipeline.Stage {
	return pipeline.Stage{
		Name:     "known_locale",
		Requires: []string{i18n.LocaleSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			segment, _, _ := strings.Cut(strings.TrimPrefix(req.HTTP.URL.Path, "/"), "/")
			if _, ok := c.Localizer(segment); !ok {
				return nil
			}
			return next()
		},
	}
}

// NewChains composes the pipelines. A stage ordering mistake fails here, at
// start-up.
func NewChains(deps Deps) (*Chains, error) {
	themeStage := theme.Stage(theme.StageOptions{Stores: deps.Stores, Selectors: deps.Selectors})
	iapTheme := theme.Theme{Key: deps.IAPKey, Mode: theme.Light}
	iapStage := theme.Stage(theme.StageOptions{Stores: deps.Stores, Selectors: deps.Selectors, Override: &iapTheme})

	locale, err := pipeline.Compose(i18n.LocaleStage(deps.Catalog), knownLocale(deps.Catalog))
	if err != nil {
		return nil, err
	}
	themed, err := pipeline.Compose(i18n.LocaleStage(deps.Catalog), themeStage)
	if err != nil {
		return nil, err
	}
	identity := []pipeline.Stage{
		i18n.LocaleStage(deps.Catalog),
		knownLocale(deps.Catalog),
		apiclient.ClientStage(deps.Pool),
		auth.UserStage(deps.Stores.Local),
	}
	public, err := pipeline.Compose(append(identity, themeStage)...)
	if err != nil {
		return nil, err
	}
	protected, err := public.With(auth.RequireUser())
	if err != nil {
		return nil, err
	}
	admin, err := protected.With(auth.RequireRoles(auth.AdminRoles...))
	if err != nil {
		return nil, err
	}
	iap, err := pipeline.Compose(append(identity, iapStage)...)
	if err != nil {
		return nil, err
	}
	return &Chains{Locale: locale, Theme: themed, Public: public, Protected: protected, Admin: admin, IAP: iap}, nil
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) (http.Handler, error) {
	if err := (theme.Theme{Key: deps.IAPKey, Mode: theme.Light}).Validate(); err != nil {
		return nil, fmt.Errorf("iap theme: %w", err)
	}
	chains, err := NewChains(deps)
	if err != nil {
		return nil, err
	}
	apiRouter, err := api.NewAPIRouter(api.Deps{
		Catalog:     deps.Catalog,
		Pool:        deps.Pool,
		Stores:      deps.Stores,
		Selectors:   deps.Selectors,
		CORSOrigins: deps.CORSOrigins,
	})
	if err != nil {
		return nil, err
	}
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static FS: %w", err)
	}

	pages := NewPagesHandler(deps.Catalog, deps.Stores, deps.Selectors)
	themes := NewThemeHandler(deps.Stores.Session)
	health := NewHealthHandler(deps.DB)
	mw := func(c *pipeline.Chain) func(http.Handler) http.Handler {
		return c.Middleware(pages.RenderError)
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Infrastructure routes carry no session or device state.
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", health.Check)
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	visitor := func(h http.Handler) http.Handler {
		return theme.ClientHintMiddleware(storage.DeviceMiddleware(deps.SecureCookies)(deps.Sessions.Middleware(h)))
	}

	r.Group(func(r chi.Router) {
		r.Use(visitor)

		r.Mount("/api/v1", apiRouter)

		r.Get("/auth/callback", deps.AuthHandlers.Callback)

		r.With(mw(chains.Theme)).Post("/theme", themes.Set)
		r.With(mw(chains.Theme)).Post("/theme/preference", themes.Preference)

		// The bare root is redirected by the locale stage.
		r.With(mw(chains.Public)).Get("/", pages.Home)
		r.Route("/{locale}", func(r chi.Router) {
			r.With(mw(chains.Public)).Get("/", pages.Home)
			r.With(mw(chains.Locale)).Get("/login", deps.AuthHandlers.Login)
			r.With(mw(chains.Locale)).Post("/logout", deps.AuthHandlers.Logout)
			r.With(mw(chains.Protected)).Get("/applicant", pages.Applicant)
			r.With(mw(chains.Admin)).Get("/admin", pages.Admin)
			r.With(mw(chains.IAP)).Get("/indigenous-it-apprentice", pages.IAP)
			r.NotFound(mw(chains.Public)(http.HandlerFunc(pages.NotFound)).ServeHTTP)
		})
	})

	r.NotFound(visitor(mw(chains.Public)(http.HandlerFunc(pages.NotFound))).ServeHTTP)

	return r, nil
}
