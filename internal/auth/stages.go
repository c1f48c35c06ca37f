package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/metrics"
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
)

// AccessTokenKey is the local-scope key holding the raw API access token.
const AccessTokenKey = "access_token"

// UserSlot holds the signed-in user, or nil for an anonymous visitor.
var UserSlot = pipeline.NewSlot[*apiclient.User]("user")

// UserStage resolves the current user. Without a stored access token no API
// call is made. A failed lookup is treated as anonymous.
func UserStage(tokens storage.Store) pipeline.Stage {
	return pipeline.Stage{
		Name:     "user",
		Requires: []string{apiclient.ClientSlot.Name()},
		Provides: []string{UserSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			UserSlot.Put(req.Bag, lookupUser(req, tokens))
			return next()
		},
	}
}

func lookupUser(req *pipeline.Request, tokens storage.Store) *apiclient.User {
	ctx := req.HTTP.Context()
	if !storage.Has(ctx, tokens, AccessTokenKey) {
		metrics.AuthLookupsTotal.WithLabelValues("anonymous").Inc()
		return nil
	}
	token, _, err := tokens.Read(ctx, AccessTokenKey)
	if err != nil {
		metrics.AuthLookupsTotal.WithLabelValues("error").Inc()
		return nil
	}
	client, err := apiclient.ClientSlot.Get(req.Bag)
	if err != nil {
		metrics.AuthLookupsTotal.WithLabelValues("error").Inc()
		return nil
	}

	u, err := client.Me(ctx, token)
	if err != nil {
		metrics.AuthLookupsTotal.WithLabelValues("error").Inc()
		if !errors.Is(err, apiclient.ErrNoUser) {
			zap.L().Warn("current user lookup failed", zap.String("path", req.HTTP.URL.Path), zap.Error(err))
		}
		return nil
	}
	metrics.AuthLookupsTotal.WithLabelValues("ok").Inc()
	return u
}

// LoginPath returns the login URL for l that returns the visitor to from.
func LoginPath(l *i18n.Localizer, from string) string {
	return l.Path("/login") + "?from=" + url.QueryEscape(from)
}

// RequireUser redirects anonymous visitors to the login page.
func RequireUser() pipeline.Stage {
	return pipeline.Stage{
		Name:     "require_user",
		Requires: []string{i18n.LocaleSlot.Name(), UserSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			u, err := UserSlot.Get(req.Bag)
			if err != nil {
				return err
			}
			if u != nil {
				return next()
			}
			l, err := i18n.LocaleSlot.Get(req.Bag)
			if err != nil {
				return err
			}
			return pipeline.RedirectTo(LoginPath(l, req.HTTP.URL.RequestURI()))
		},
	}
}

// GuardByRoles returns nil when u holds at least one of roles and an error
// wrapping pipeline.ErrUnauthorized otherwise. A nil user holds no roles.
func GuardByRoles(u *apiclient.User, roles ...string) error {
	if u.HasAnyRole(roles...) {
		return nil
	}
	return fmt.Errorf("%w: requires one of %v", pipeline.ErrUnauthorized, roles)
}

// RequireRoles rejects users holding none of roles.
func RequireRoles(roles ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:     "require_roles",
		Requires: []string{UserSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			u, err := UserSlot.Get(req.Bag)
			if err != nil {
				return err
			}
			if err := GuardByRoles(u, roles...); err != nil {
				return err
			}
			return next()
		},
	}
}

// UserFromContext returns the user resolved for the request, or nil.
func UserFromContext(ctx context.Context) *apiclient.User {
	b := pipeline.BagFromContext(ctx)
	if b == nil {
		return nil
	}
	u, _ := UserSlot.Get(b)
	return u
}
