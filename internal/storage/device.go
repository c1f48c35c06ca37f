package storage

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// DeviceCookie names the long-lived cookie that scopes local storage.
const DeviceCookie = "device_id"

const deviceCookieMaxAge = 365 * 24 * 60 * 60 // 1 year

type deviceKey struct{}

// WithDevice returns ctx carrying the given device id.
func WithDevice(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceKey{}, id)
}

// DeviceFromContext returns the device id set by DeviceMiddleware, or "".
func DeviceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey{}).(string)
	return id
}

// DeviceMiddleware reads the device cookie, issuing a fresh random id when it
// is missing or malformed, and stores the id on the request context.
func DeviceMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(DeviceCookie); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   deviceCookieMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithDevice(r.Context(), id)))
		})
	}
}
