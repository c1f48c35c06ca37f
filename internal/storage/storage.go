// Package storage provides typed access to the two per-visitor key/value
// scopes: the session scope, which ends with the login session, and the local
// scope, which lives indefinitely on the visitor's device.
//
// Values are JSON encoded. Reads never fail: a missing store, a missing key or
// an unparseable value all yield the caller's default.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/metrics"
)

// ErrUnavailable is returned by a Store whose scope is not attached to the
// current request (no session loaded, no device cookie).
var ErrUnavailable = errors.New("storage: scope unavailable")

// Store is a raw string key/value store for one scope.
type Store interface {
	// Read returns the raw value for key. ok is false when the key is absent.
	Read(ctx context.Context, key string) (raw string, ok bool, err error)
	// Write stores raw under key, replacing any previous value.
	Write(ctx context.Context, key, raw string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Scope names a storage lifetime.
type Scope string

const (
	ScopeSession Scope = "session"
	ScopeLocal   Scope = "local"
)

// Stores bundles the backend for each scope.
type Stores struct {
	Session Store
	Local   Store
}

// For returns the store for scope, or nil for an unknown scope.
func (s Stores) For(scope Scope) Store {
	switch scope {
	case ScopeSession:
		return s.Session
	case ScopeLocal:
		return s.Local
	default:
		return nil
	}
}

// Status explains the outcome of a Lookup.
type Status int

const (
	Absent Status = iota
	Present
	Corrupt
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Corrupt:
		return "corrupt"
	case Unavailable:
		return "unavailable"
	default:
		return "absent"
	}
}

// Lookup reads and decodes key. The returned value is the zero value unless
// status is Present.
func Lookup[T any](ctx context.Context, s Store, key string) (T, Status) {
	var zero T
	status, v := lookup[T](ctx, s, key)
	metrics.StorageReadsTotal.WithLabelValues(status.String()).Inc()
	if status != Present {
		return zero, status
	}
	return v, status
}

func lookup[T any](ctx context.Context, s Store, key string) (Status, T) {
	var v T
	if s == nil {
		return Unavailable, v
	}
	raw, ok, err := s.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			zap.L().Warn("storage read failed", zap.String("key", key), zap.Error(err))
		}
		return Unavailable, v
	}
	if !ok {
		return Absent, v
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		zap.L().Debug("discarding corrupt stored value", zap.String("key", key), zap.Error(err))
		return Corrupt, v
	}
	return Present, v
}

// Get returns the decoded value for key, or def when the store is
// unavailable, the key is absent, or the stored value does not parse.
func Get[T any](ctx context.Context, s Store, key string, def T) T {
	v, status := Lookup[T](ctx, s, key)
	if status != Present {
		return def
	}
	return v
}

// Set JSON-encodes v and writes it under key. Backend failures are returned
// unchanged.
func Set[T any](ctx context.Context, s Store, key string, v T) error {
	if s == nil {
		return ErrUnavailable
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	return s.Write(ctx, key, string(b))
}

// Remove deletes key.
func Remove(ctx context.Context, s Store, key string) error {
	if s == nil {
		return ErrUnavailable
	}
	return s.Delete(ctx, key)
}

// Has reports whether key holds a non-empty raw value, without decoding it.
func Has(ctx context.Context, s Store, key string) bool {
	if s == nil {
		return false
	}
	raw, ok, err := s.Read(ctx, key)
	return err == nil && ok && raw != ""
}
