package i18n

import (
	"strings"

	"github.com/joestump/talent-portal/internal/pipeline"
)

// LocaleSlot holds the navigation's Localizer.
var LocaleSlot = pipeline.NewSlot[*Localizer]("locale")

// LocaleStage resolves the locale from the first path segment. The bare root
// redirects to the default locale; a path whose first segment is not a
// supported locale (e.g. /api/...) is served in the locale negotiated from
// Accept-Language.
func LocaleStage(c *Catalog) pipeline.Stage {
	return pipeline.Stage{
		Name:     "locale",
		Provides: []string{LocaleSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			u := req.HTTP.URL
			if u.Path == "" || u.Path == "/" {
				target := c.Default().Path("/")
				if u.RawQuery != "" {
					target += "?" + u.RawQuery
				}
				return pipeline.RedirectTo(target)
			}

			segment, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
			l, ok := c.Localizer(segment)
			if !ok {
				l = c.Negotiate(req.HTTP.Header.Get("Accept-Language"))
			}
			LocaleSlot.Put(req.Bag, l)
			return next()
		},
	}
}
