package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/config"
	"github.com/joestump/talent-portal/internal/db"
	"github.com/joestump/talent-portal/internal/handler"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, done, err := newLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer done()

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			secure := !cfg.InsecureCookies
			sessionManager := auth.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, secure)
			sessions := storage.NewSessionStore(sessionManager)
			stores := storage.Stores{Session: sessions, Local: storage.NewSQLStore(database)}

			catalog, err := i18n.NewCatalog(cfg.Locale.Default)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			oidcProvider, err := auth.NewProvider(ctx, cfg)
			if err != nil {
				return err
			}

			router, err := handler.NewRouter(handler.Deps{
				DB:            database,
				Sessions:      sessions,
				Stores:        stores,
				Catalog:       catalog,
				Pool:          apiclient.NewPool(cfg.API.URL, cfg.API.Timeout),
				AuthHandlers:  auth.NewHandlers(oidcProvider, sessionManager, stores.Local, secure),
				Selectors:     cfg.Theme.Selectors,
				IAPKey:        theme.Key(cfg.Theme.IAPKey),
				CORSOrigins:   cfg.API.CORSOrigins,
				SecureCookies: secure,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.Strings("locales", catalog.Locales()))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}
