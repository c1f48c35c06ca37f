package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language/display"

	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/auth"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/theme"
	"github.com/joestump/talent-portal/web"
)

// BasePage carries layout-level data available to every template.
type BasePage struct {
	Locale  *i18n.Localizer
	User    *apiclient.User // nil for anonymous visitors
	Theme   *theme.Container
	Attrs   *theme.Attributes
	Path    string // request path, used for the locale switcher
	locales []*i18n.Localizer
}

// T translates key in the page locale.
func (p BasePage) T(key string, args ...any) string { return p.Locale.T(key, args...) }

// LocalePath prefixes path with the page locale.
func (p BasePage) LocalePath(path string) string { return p.Locale.Path(path) }

// LoginPath returns the sign-in link that comes back to the current page.
func (p BasePage) LoginPath() string { return auth.LoginPath(p.Locale, p.Path) }

// ThemeFor returns the theme class applied to selector.
func (p BasePage) ThemeFor(selector string) string { return p.Attrs.Get(selector) }

// ThemeTargets lists every configured selector with its theme class. The
// page script applies them to elements the layout does not render itself.
func (p BasePage) ThemeTargets() []theme.Target { return p.Attrs.Targets() }

// SelectorList returns the theme selectors for the page script.
func (p BasePage) SelectorList() string { return strings.Join(p.Theme.Selectors(), ",") }

// Modes lists the selectable theme modes.
func (p BasePage) Modes() []theme.Mode { return []theme.Mode{theme.Light, theme.Dark, theme.Pref} }

// IsAdmin reports whether the admin link should be shown.
func (p BasePage) IsAdmin() bool { return p.User.HasAnyRole(auth.AdminRoles...) }

// LocaleLink points at the current page in another locale.
type LocaleLink struct {
	Locale string
	Label  string
	Href   string
}

// OtherLocales returns links to the current page in every other locale.
func (p BasePage) OtherLocales() []LocaleLink {
	rest := p.Path
	if seg, tail, _ := strings.Cut(strings.TrimPrefix(p.Path, "/"), "/"); seg == p.Locale.Locale {
		rest = "/" + tail
	}
	var links []LocaleLink
	for _, l := range p.locales {
		if l.Locale == p.Locale.Locale {
			continue
		}
		links = append(links, LocaleLink{
			Locale: l.Locale,
			Label:  display.Self.Name(l.Tag),
			Href:   l.Path(strings.TrimSuffix(rest, "/")),
		})
	}
	return links
}

// ErrorPage is the data for error.html.
type ErrorPage struct {
	BasePage
	Status int
	Kind   string // message key segment: forbidden, notfound, internal
}

// pageCache maps a page file name (e.g. "home.html") to a compiled template
// set containing base.html + partials + that one page file. Each page gets
// its own set so {{define "content"}} blocks don't collide.
var pageCache map[string]*template.Template

func init() {
	partials, err := fs.Glob(web.TemplateFS, "templates/partials/*.html")
	if err != nil {
		panic("glob partials: " + err.Error())
	}
	pages, err := fs.Glob(web.TemplateFS, "templates/pages/*.html")
	if err != nil {
		panic("glob pages: " + err.Error())
	}

	pageCache = make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		files := make([]string, 0, 2+len(partials))
		files = append(files, "templates/base.html")
		files = append(files, partials...)
		files = append(files, p)

		t, err := template.New("").ParseFS(web.TemplateFS, files...)
		if err != nil {
			panic(fmt.Sprintf("parse %s: %v", p, err))
		}
		pageCache[strings.TrimPrefix(p, "templates/pages/")] = t
	}
}

// render executes a full-page template (base layout + named page). The page
// is rendered into a buffer so a template error still yields a clean 500.
func render(w http.ResponseWriter, status int, tmpl string, data any) {
	t, ok := pageCache[tmpl]
	if !ok {
		http.Error(w, "template not found: "+tmpl, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		zap.L().Error("template error", zap.String("template", tmpl), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
