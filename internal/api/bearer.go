package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/storage"
)

type bearerKey struct{}

// bearerToken moves an "Authorization: Bearer" credential onto the context.
func bearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
			r = r.WithContext(context.WithValue(r.Context(), bearerKey{}, strings.TrimSpace(token)))
		}
		next.ServeHTTP(w, r)
	})
}

// tokenStore serves the access token from the bearer header when present and
// from the device's local scope otherwise.
type tokenStore struct {
	local storage.Store
}

func (s tokenStore) Read(ctx context.Context, key string) (string, bool, error) {
	if key == auth.AccessTokenKey {
		if token, ok := ctx.Value(bearerKey{}).(string); ok {
			return token, true, nil
		}
	}
	if s.local == nil {
		return "", false, storage.ErrUnavailable
	}
	return s.local.Read(ctx, key)
}

func (s tokenStore) Write(ctx context.Context, key, raw string) error {
	if s.local == nil {
		return storage.ErrUnavailable
	}
	return s.local.Write(ctx, key, raw)
}

func (s tokenStore) Delete(ctx context.Context, key string) error {
	if s.local == nil {
		return storage.ErrUnavailable
	}
	return s.local.Delete(ctx, key)
}
