package theme_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/talent-portal/internal/pipeline"
	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/theme"
)

var errQuota = errors.New("quota exceeded")

type readOnlyStore struct{ storage.MemoryStore }

func (s *readOnlyStore) Write(context.Context, string, string) error { return errQuota }

// recorder counts Apply calls and keeps the last class name.
type recorder struct {
	calls     int
	selectors []string
	class     string
}

func (r *recorder) Apply(selectors []string, className string) {
	r.calls++
	r.selectors = selectors
	r.class = className
}

func newContainer(t *testing.T, opts theme.Options) *theme.Container {
	t.Helper()
	c, err := theme.New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_DefaultsWhenNothingStored(t *testing.T) {
	rec := &recorder{}
	c := newContainer(t, theme.Options{Store: storage.NewMemoryStore(), Selectors: []string{"html", "body"}, Applier: rec})

	if diff := cmp.Diff(theme.Default(), c.Theme()); diff != "" {
		t.Errorf("theme (-want +got):\n%s", diff)
	}
	if !c.IsPref() || c.Mode() != theme.Light {
		t.Errorf("mode = %s/%s, want pref/light", c.FullMode(), c.Mode())
	}
	if rec.calls != 1 || rec.class != "default light" {
		t.Errorf("applied %d times, class %q", rec.calls, rec.class)
	}
	if diff := cmp.Diff([]string{"html", "body"}, rec.selectors); diff != "" {
		t.Errorf("selectors (-want +got):\n%s", diff)
	}
}

func TestPrefFollowsOSPreference(t *testing.T) {
	for _, dark := range []bool{true, false} {
		store := storage.NewMemoryStore()
		c := newContainer(t, theme.Options{Store: store, PrefersDark: dark})
		if err := c.SetMode(context.Background(), theme.Dark); err != nil {
			t.Fatal(err)
		}
		if err := c.SetMode(context.Background(), theme.Pref); err != nil {
			t.Fatal(err)
		}
		want := theme.Light
		if dark {
			want = theme.Dark
		}
		if c.Mode() != want {
			t.Errorf("prefersDark=%v: effective = %s, want %s", dark, c.Mode(), want)
		}
		if got := storage.Get(context.Background(), store, theme.StorageKey, theme.Theme{}); got.Mode != theme.Pref {
			t.Errorf("persisted mode = %q, want pref", got.Mode)
		}
	}
}

func TestLegacyLightForcesLight(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Write(context.Background(), theme.StorageKey, "light")

	c := newContainer(t, theme.Options{Store: store, PrefersDark: true})
	if !c.IsPref() {
		t.Fatalf("full mode = %s, want pref", c.FullMode())
	}
	if c.Mode() != theme.Light {
		t.Errorf("effective = %s, want light under legacy flag", c.Mode())
	}
	c.OnPreferenceChange(true)
	if c.Mode() != theme.Light {
		t.Errorf("effective after OS change = %s, want light", c.Mode())
	}
}

func TestLegacyFlagClearedByWrite(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Write(context.Background(), theme.StorageKey, "light")
	c := newContainer(t, theme.Options{Store: store, PrefersDark: true})

	if err := c.SetKey(context.Background(), "iap"); err != nil {
		t.Fatal(err)
	}
	if c.Mode() != theme.Dark {
		t.Errorf("effective = %s, want dark once a theme is written", c.Mode())
	}
}

func TestEffectiveModeIsNeverPersisted(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newContainer(t, theme.Options{Store: store, PrefersDark: true})
	if err := c.SetKey(context.Background(), "iap"); err != nil {
		t.Fatal(err)
	}
	raw, _, _ := store.Read(context.Background(), theme.StorageKey)
	if raw != `{"key":"iap","mode":"pref"}` {
		t.Errorf("stored %s", raw)
	}
}

func TestOverrideWinsAndIsWrittenBack(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = storage.Set(ctx, store, theme.StorageKey, theme.Theme{Key: "default", Mode: theme.Dark})

	override := theme.Theme{Key: "iap", Mode: theme.Light}
	c := newContainer(t, theme.Options{Store: store, Override: &override})

	if c.Theme() != override {
		t.Errorf("theme = %+v, want override", c.Theme())
	}
	if got := storage.Get(ctx, store, theme.StorageKey, theme.Theme{}); got != override {
		t.Errorf("persisted = %+v, want override", got)
	}
}

func TestOverrideWriteFailure(t *testing.T) {
	override := theme.Theme{Key: "iap", Mode: theme.Light}
	_, err := theme.New(context.Background(), theme.Options{Store: &readOnlyStore{}, Override: &override})
	if !errors.Is(err, errQuota) {
		t.Errorf("err = %v, want quota error", err)
	}
}

func TestInvalidOverrideRejected(t *testing.T) {
	override := theme.Theme{Key: "iap", Mode: "sepia"}
	_, err := theme.New(context.Background(), theme.Options{Store: storage.NewMemoryStore(), Override: &override})
	if !errors.Is(err, theme.ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestInvalidStoredThemeFallsBack(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Write(context.Background(), theme.StorageKey, `{"key":"default","mode":"sepia"}`)
	c := newContainer(t, theme.Options{Store: store})
	if c.Theme() != theme.Default() {
		t.Errorf("theme = %+v, want default", c.Theme())
	}
}

func TestSetters_RejectInvalid(t *testing.T) {
	ctx := context.Background()
	c := newContainer(t, theme.Options{Store: storage.NewMemoryStore()})
	if err := c.SetMode(ctx, "blue"); !errors.Is(err, theme.ErrInvalidMode) {
		t.Errorf("SetMode err = %v", err)
	}
	if err := c.SetKey(ctx, "Not A Slug"); !errors.Is(err, theme.ErrInvalidKey) {
		t.Errorf("SetKey err = %v", err)
	}
	if c.Theme() != theme.Default() {
		t.Errorf("theme changed to %+v", c.Theme())
	}
}

func TestSetTheme_WriteFailureKeepsState(t *testing.T) {
	c := newContainer(t, theme.Options{Store: &readOnlyStore{}})
	err := c.SetTheme(context.Background(), theme.Theme{Key: "iap", Mode: theme.Dark})
	if !errors.Is(err, errQuota) {
		t.Errorf("err = %v, want quota error", err)
	}
	if c.Theme() != theme.Default() {
		t.Errorf("theme = %+v after failed write", c.Theme())
	}
}

func TestOnPreferenceChange(t *testing.T) {
	ctx := context.Background()

	t.Run("pref re-arms", func(t *testing.T) {
		rec := &recorder{}
		c := newContainer(t, theme.Options{Store: storage.NewMemoryStore(), Applier: rec})
		if !c.OnPreferenceChange(true) {
			t.Error("want page update")
		}
		if c.Mode() != theme.Dark || rec.class != "default dark" {
			t.Errorf("effective = %s, class = %q", c.Mode(), rec.class)
		}
	})

	t.Run("pinned mode untouched", func(t *testing.T) {
		rec := &recorder{}
		c := newContainer(t, theme.Options{Store: storage.NewMemoryStore(), Applier: rec})
		if err := c.SetMode(ctx, theme.Light); err != nil {
			t.Fatal(err)
		}
		before := rec.calls
		if c.OnPreferenceChange(true) {
			t.Error("pinned mode re-applied")
		}
		if c.FullMode() != theme.Light || c.Mode() != theme.Light || rec.calls != before {
			t.Errorf("mode = %s/%s, applies %d -> %d", c.FullMode(), c.Mode(), before, rec.calls)
		}
	})

	t.Run("pref survives a flip", func(t *testing.T) {
		c := newContainer(t, theme.Options{Store: storage.NewMemoryStore()})
		_ = c.SetMode(ctx, theme.Dark)
		_ = c.SetMode(ctx, theme.Pref)
		c.OnPreferenceChange(false)
		if !c.IsPref() || c.Mode() != theme.Light {
			t.Errorf("mode = %s/%s, want pref/light", c.FullMode(), c.Mode())
		}
	})
}

func TestApplyOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	c := newContainer(t, theme.Options{Store: storage.NewMemoryStore(), Applier: rec})

	c.OnPreferenceChange(false)
	if rec.calls != 1 {
		t.Errorf("unchanged preference applied again: %d calls", rec.calls)
	}
	// light pinned resolves to the same class as pref under a light OS, but
	// the mode changed.
	_ = c.SetMode(ctx, theme.Light)
	if rec.calls != 2 {
		t.Errorf("mode change not applied: %d calls", rec.calls)
	}
	_ = c.SetMode(ctx, theme.Light)
	if rec.calls != 2 {
		t.Errorf("identical write applied: %d calls", rec.calls)
	}
}

func TestStage(t *testing.T) {
	local := storage.NewMemoryStore()
	session := storage.NewMemoryStore()
	_ = theme.RecordPreference(context.Background(), session, true)

	chain := pipeline.MustCompose(theme.Stage(theme.StageOptions{
		Stores:    storage.Stores{Session: session, Local: local},
		Selectors: []string{"html"},
	}))
	bag := pipeline.NewBag()
	if _, err := chain.Run(httptest.NewRequest(http.MethodGet, "/en", nil), bag); err != nil {
		t.Fatalf("Run: %v", err)
	}
	c, err := theme.ContainerSlot.Get(bag)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := theme.AttributesSlot.Get(bag)
	if err != nil {
		t.Fatal(err)
	}
	if c.Mode() != theme.Dark || attrs.Get("html") != "default dark" {
		t.Errorf("mode = %s, html = %q", c.Mode(), attrs.Get("html"))
	}
}
