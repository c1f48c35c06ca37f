package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joestump/talent-portal/internal/storage"
	"github.com/joestump/talent-portal/internal/testutil"
)

type sample struct {
	Name  string            `json:"name"`
	Count int               `json:"count"`
	Tags  []string          `json:"tags"`
	Meta  map[string]string `json:"meta"`
}

// backends returns every Store implementation with a context that attaches it.
func backends(t *testing.T) map[string]struct {
	store storage.Store
	ctx   context.Context
} {
	t.Helper()
	sqlStore := storage.NewSQLStore(testutil.NewTestDB(t))
	return map[string]struct {
		store storage.Store
		ctx   context.Context
	}{
		"memory": {storage.NewMemoryStore(), context.Background()},
		"sql":    {sqlStore, storage.WithDevice(context.Background(), "device-1")},
	}
}

func TestGet_NilStoreReturnsDefault(t *testing.T) {
	got := storage.Get(context.Background(), nil, "theme", "fallback")
	if got != "fallback" {
		t.Errorf("Get = %q, want fallback", got)
	}
	if _, status := storage.Lookup[string](context.Background(), nil, "theme"); status != storage.Unavailable {
		t.Errorf("status = %v, want unavailable", status)
	}
}

func TestGet_UnattachedSQLStoreReturnsDefault(t *testing.T) {
	s := storage.NewSQLStore(testutil.NewTestDB(t))
	got := storage.Get(context.Background(), s, "theme", 7)
	if got != 7 {
		t.Errorf("Get = %d, want 7", got)
	}
	if err := storage.Set(context.Background(), s, "theme", 1); !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("Set err = %v, want ErrUnavailable", err)
	}
}

func TestBackends(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name+"/absent key returns default", func(t *testing.T) {
			def := sample{Name: "default"}
			got := storage.Get(b.ctx, b.store, "missing", def)
			if diff := cmp.Diff(def, got); diff != "" {
				t.Errorf("Get mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run(name+"/round trip", func(t *testing.T) {
			v := sample{Name: "pool", Count: 3, Tags: []string{"a", "b"}, Meta: map[string]string{"k": "v"}}
			if err := storage.Set(b.ctx, b.store, "sample", v); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, status := storage.Lookup[sample](b.ctx, b.store, "sample")
			if status != storage.Present {
				t.Fatalf("status = %v, want present", status)
			}
			if diff := cmp.Diff(v, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run(name+"/overwrite", func(t *testing.T) {
			if err := storage.Set(b.ctx, b.store, "n", 1); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := storage.Set(b.ctx, b.store, "n", 2); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got := storage.Get(b.ctx, b.store, "n", 0); got != 2 {
				t.Errorf("Get = %d, want 2", got)
			}
		})

		t.Run(name+"/corrupt value returns default", func(t *testing.T) {
			if err := b.store.Write(b.ctx, "broken", "{not json"); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got := storage.Get(b.ctx, b.store, "broken", sample{Name: "default"})
			if got.Name != "default" {
				t.Errorf("Get = %+v, want default", got)
			}
			if _, status := storage.Lookup[sample](b.ctx, b.store, "broken"); status != storage.Corrupt {
				t.Errorf("status = %v, want corrupt", status)
			}
		})

		t.Run(name+"/remove", func(t *testing.T) {
			if err := storage.Set(b.ctx, b.store, "gone", "x"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := storage.Remove(b.ctx, b.store, "gone"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := storage.Remove(b.ctx, b.store, "gone"); err != nil {
				t.Fatalf("Remove absent: %v", err)
			}
			if _, status := storage.Lookup[string](b.ctx, b.store, "gone"); status != storage.Absent {
				t.Errorf("status = %v, want absent", status)
			}
		})
	}
}

func TestSQLStore_DevicesAreIsolated(t *testing.T) {
	s := storage.NewSQLStore(testutil.NewTestDB(t))
	a := storage.WithDevice(context.Background(), "device-a")
	b := storage.WithDevice(context.Background(), "device-b")

	if err := storage.Set(a, s, "theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := storage.Get(b, s, "theme", "none"); got != "none" {
		t.Errorf("device b read %q, want none", got)
	}
	if got := storage.Get(a, s, "theme", "none"); got != "dark" {
		t.Errorf("device a read %q, want dark", got)
	}
}

func TestHas(t *testing.T) {
	s := storage.NewMemoryStore()
	ctx := context.Background()
	if storage.Has(ctx, s, "access_token") {
		t.Error("Has = true for absent key")
	}
	_ = s.Write(ctx, "access_token", "not-json-at-all")
	if !storage.Has(ctx, s, "access_token") {
		t.Error("Has = false for raw value")
	}
	_ = s.Write(ctx, "access_token", "")
	if storage.Has(ctx, s, "access_token") {
		t.Error("Has = true for empty value")
	}
}

func TestStores_For(t *testing.T) {
	session, local := storage.NewMemoryStore(), storage.NewMemoryStore()
	s := storage.Stores{Session: session, Local: local}
	if s.For(storage.ScopeSession) != session {
		t.Error("session scope returned wrong store")
	}
	if s.For(storage.ScopeLocal) != local {
		t.Error("local scope returned wrong store")
	}
	if s.For("cloud") != nil {
		t.Error("unknown scope returned a store")
	}
}
