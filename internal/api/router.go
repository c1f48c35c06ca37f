// Package api serves the JSON API mounted at /api/v1.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Catalog     *i18n.Catalog
	Pool        *apiclient.Pool
	Stores      storage.Stores
	Selectors   []string
	CORSOrigins []string
}

// NewAPIRouter creates a chi sub-router for /api/v1. Every request runs
// through the locale, client, user and theme stages; responses are JSON.
func NewAPIRouter(deps Deps) (chi.Router, error) {
	chain, err := pipeline.Compose(
		i18n.LocaleStage(deps.Catalog),
		apiclient.ClientStage(deps.Pool),
		auth.UserStage(tokenStore{local: deps.Stores.Local}),
		theme.Stage(theme.StageOptions{Stores: deps.Stores, Selectors: deps.Selectors}),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(jsonContentType)
	r.Use(bearerToken)
	r.Use(chain.Middleware(renderPipelineError))

	users := &usersAPIHandler{}
	r.Get("/me", users.Me)

	prefs := &preferencesAPIHandler{}
	r.Get("/preferences/theme", prefs.GetTheme)
	r.Put("/preferences/theme", prefs.PutTheme)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "not_found")
	})
	return r, nil
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
