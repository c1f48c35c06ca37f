package theme

import (
	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
)

var (
	// ContainerSlot holds the navigation's theme container.
	ContainerSlot = pipeline.NewSlot[*Container]("theme")
	// AttributesSlot holds what the container applied, for templates.
	AttributesSlot = pipeline.NewSlot[*Attributes]("theme_attributes")
)

// StageOptions configures Stage.
type StageOptions struct {
	Stores    storage.Stores
	Selectors []string
	// Override forces a theme for every navigation through the stage.
	Override *Theme
}

// Stage builds a Container for the visitor and records its output in an
// Attributes applier.
func Stage(opts StageOptions) pipeline.Stage {
	return pipeline.Stage{
		Name:     "theme",
		Provides: []string{ContainerSlot.Name(), AttributesSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			attrs := NewAttributes()
			c, err := New(req.HTTP.Context(), Options{
				Store:       opts.Stores.Local,
				Selectors:   opts.Selectors,
				Applier:     attrs,
				Override:    opts.Override,
				PrefersDark: RequestPreference(req.HTTP, opts.Stores.Session),
			})
			if err != nil {
				return err
			}
			ContainerSlot.Put(req.Bag, c)
			AttributesSlot.Put(req.Bag, attrs)
			return next()
		},
	}
}
