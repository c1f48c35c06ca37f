package theme

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/storage"
)

// legacyLight is the raw pre-JSON value that forces light mode.
const legacyLight = "light"

// Options configures a Container.
type Options struct {
	// Store persists the theme; normally the local scope.
	Store storage.Store
	// Selectors name the elements that receive the class name.
	Selectors []string
	// Applier receives every change of the class name. Nil discards them.
	Applier Applier
	// Override, when set, replaces the stored theme and is written back.
	Override *Theme
	// PrefersDark is the OS preference known when the container is built.
	PrefersDark bool
}

// effect is the input of the last Apply call.
type effect struct {
	effective Mode
	key       Key
	mode      Mode
	selectors string
}

// Container owns one visitor's theme state. All reads and writes go through
// its methods and every page side effect goes through its Applier.
type Container struct {
	mu          sync.Mutex
	binding     *storage.Binding[Theme]
	selectors   []string
	applier     Applier
	theme       Theme
	prefersDark bool
	legacy      bool
	last        *effect
}

// New loads the persisted theme, reconciles opts.Override and applies the
// result. It fails only when an override could not be written back.
func New(ctx context.Context, opts Options) (*Container, error) {
	applier := opts.Applier
	if applier == nil {
		applier = ApplierFunc(func([]string, string) {})
	}
	c := &Container{
		binding:     storage.Bind(opts.Store, StorageKey, Default()),
		selectors:   append([]string(nil), opts.Selectors...),
		applier:     applier,
		prefersDark: opts.PrefersDark,
	}
	if opts.Store != nil {
		raw, ok, err := opts.Store.Read(ctx, StorageKey)
		c.legacy = err == nil && ok && raw == legacyLight
	}

	t := c.binding.Value(ctx)
	if err := t.Validate(); err != nil {
		zap.L().Debug("ignoring invalid stored theme", zap.Error(err))
		t = Default()
	}
	c.theme = t

	if o := opts.Override; o != nil {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if *o != c.theme {
			if err := c.persist(ctx, *o); err != nil {
				return nil, err
			}
		}
	}

	c.mu.Lock()
	c.apply()
	c.mu.Unlock()
	return c, nil
}

// Theme returns the persisted theme.
func (c *Container) Theme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// FullMode returns the persisted mode, which may be Pref.
func (c *Container) FullMode() Mode { return c.Theme().Mode }

// Key returns the theme key.
func (c *Container) Key() Key { return c.Theme().Key }

// IsPref reports whether the mode follows the OS preference.
func (c *Container) IsPref() bool { return c.FullMode() == Pref }

// Mode returns the effective mode, always Light or Dark.
func (c *Container) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effective()
}

// ClassName returns "{key} {effective mode}".
func (c *Container) ClassName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return className(c.theme.Key, c.effective())
}

// Selectors returns the configured selectors.
func (c *Container) Selectors() []string {
	return append([]string(nil), c.selectors...)
}

// SetMode persists a new mode under the current key.
func (c *Container) SetMode(ctx context.Context, m Mode) error {
	if !m.Valid() {
		return ErrInvalidMode
	}
	return c.SetTheme(ctx, Theme{Key: c.Key(), Mode: m})
}

// SetKey persists a new key under the current mode.
func (c *Container) SetKey(ctx context.Context, k Key) error {
	if !k.Valid() {
		return ErrInvalidKey
	}
	return c.SetTheme(ctx, Theme{Key: k, Mode: c.FullMode()})
}

// SetTheme persists t. A failed write leaves the state unchanged and is
// returned to the caller.
func (c *Container) SetTheme(ctx context.Context, t Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return c.persist(ctx, t)
}

// OnPreferenceChange records a new OS preference. A theme following the OS
// is re-applied; a pinned light or dark mode is left as is. It reports
// whether the page was updated.
func (c *Container) OnPreferenceChange(dark bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefersDark = dark
	if c.theme.Mode != Pref {
		return false
	}
	return c.apply()
}

func (c *Container) persist(ctx context.Context, t Theme) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.binding.Set(ctx, t); err != nil {
		return err
	}
	c.theme = t
	c.legacy = false
	c.apply()
	return nil
}

// effective must be called with mu held.
func (c *Container) effective() Mode {
	if c.theme.Mode != Pref {
		return c.theme.Mode
	}
	if c.prefersDark && !c.legacy {
		return Dark
	}
	return Light
}

// apply must be called with mu held. It calls the Applier only when its
// input changed.
func (c *Container) apply() bool {
	e := effect{
		effective: c.effective(),
		key:       c.theme.Key,
		mode:      c.theme.Mode,
		selectors: strings.Join(c.selectors, ","),
	}
	if c.last != nil && *c.last == e {
		return false
	}
	c.last = &e
	c.applier.Apply(c.Selectors(), className(e.key, e.effective))
	return true
}

func className(k Key, m Mode) string {
	return string(k) + " " + string(m)
}
