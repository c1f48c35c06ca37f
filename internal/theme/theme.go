// Package theme holds a visitor's (key, mode) theme choice, resolves the
// "pref" mode against the OS color-scheme preference, and writes the
// resulting class name to the page through a single Applier.
package theme

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidMode = errors.New("theme: invalid mode")
	ErrInvalidKey  = errors.New("theme: invalid key")
)

// StorageKey is the local-scope key holding the persisted Theme.
const StorageKey = "theme"

// Mode is a persisted color mode. Pref follows the OS preference.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
	Pref  Mode = "pref"
)

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	return m == Light || m == Dark || m == Pref
}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Key names a theme palette, e.g. "default" or "iap".
type Key string

const DefaultKey Key = "default"

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// Valid reports whether k is a lowercase slug.
func (k Key) Valid() bool {
	return keyPattern.MatchString(string(k))
}

// ParseKey validates s as a Key.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return k, nil
}

// Theme is the persisted choice.
type Theme struct {
	Key  Key  `json:"key"`
	Mode Mode `json:"mode"`
}

// Default is used when nothing valid is stored.
func Default() Theme {
	return Theme{Key: DefaultKey, Mode: Pref}
}

// Validate reports the first invalid field of t.
func (t Theme) Validate() error {
	if !t.Key.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKey, t.Key)
	}
	if !t.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, t.Mode)
	}
	return nil
}
