// Package i18n compiles the message catalog and resolves the active locale
// for a navigation.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var messagesFS embed.FS

// Catalog holds the compiled messages for every supported locale.
type Catalog struct {
	def        *Localizer
	localizers map[string]*Localizer
	tags       []language.Tag
	matcher    language.Matcher
}

// Localizer formats messages for one locale.
type Localizer struct {
	Tag    language.Tag
	Locale string // first path segment, e.g. "en"

	printer  *message.Printer
	messages map[string]string
	fallback *Localizer
}

// NewCatalog compiles the embedded catalogs with def as the default locale.
func NewCatalog(def string) (*Catalog, error) {
	return Load(messagesFS, "messages", def)
}

// Load compiles every <locale>.yaml file in dir. Each file is a flat map of
// message key to fmt-style format string.
func Load(fsys fs.FS, dir, def string) (*Catalog, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no message catalogs in %s", dir)
	}
	sort.Strings(files)

	builder := catalog.NewBuilder()
	c := &Catalog{localizers: make(map[string]*Localizer)}
	for _, f := range files {
		locale := strings.TrimSuffix(path.Base(f), ".yaml")
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", f, err)
		}
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		msgs := map[string]string{}
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		for key, msg := range msgs {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s key %q: %w", f, key, err)
			}
		}
		c.localizers[locale] = &Localizer{Tag: tag, Locale: locale, messages: msgs}
		c.tags = append(c.tags, tag)
	}

	var ok bool
	if c.def, ok = c.localizers[def]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalog", def)
	}
	for _, l := range c.localizers {
		l.printer = message.NewPrinter(l.Tag, message.Catalog(builder))
		if l != c.def {
			l.fallback = c.def
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Default returns the default locale's Localizer.
func (c *Catalog) Default() *Localizer { return c.def }

// Localizer returns the Localizer for a path segment such as "fr".
func (c *Catalog) Localizer(locale string) (*Localizer, bool) {
	l, ok := c.localizers[locale]
	return l, ok
}

// Locales returns the supported locale segments, sorted.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.localizers))
	for locale := range c.localizers {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Negotiate picks the best supported locale for an Accept-Language header,
// falling back to the default.
func (c *Catalog) Negotiate(acceptLanguage string) *Localizer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.def
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.def
	}
	base := c.tags[idx].String()
	if l, ok := c.localizers[base]; ok {
		return l
	}
	return c.def
}

// T formats the message for key. Keys missing from this locale fall back to
// the default locale, then to the key itself.
func (l *Localizer) T(key string, args ...any) string {
	if _, ok := l.messages[key]; ok {
		return l.printer.Sprintf(key, args...)
	}
	if l.fallback != nil {
		return l.fallback.T(key, args...)
	}
	return key
}

// Path prefixes p with the locale segment: Path("/login") is "/en/login".
func (l *Localizer) Path(p string) string {
	if p == "" || p == "/" {
		return "/" + l.Locale
	}
	return "/" + l.Locale + p
}
