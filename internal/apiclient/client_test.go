package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joestump/talent-portal/internal/apiclient"
	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/pipeline"
)

const meBody = `{"data":{"me":{"id":"u-1","email":"ada@example.gc.ca","firstName":"Ada","lastName":"Lovelace",
"roleAssignments":[{"id":"ra-1","role":{"id":"r-1","name":"applicant"}},{"id":"ra-2","role":{"id":"r-2","name":"pool_operator","isTeamBased":true},"team":{"id":"t-1","name":"dcm"}}]}}}`

type captured struct {
	mu       sync.Mutex
	auth     string
	language string
	op       string
}

func (c *captured) get() (auth, language, op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth, c.language, c.op
}

func newAPI(t *testing.T, body string, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		got.mu.Lock()
		got.auth, got.language, got.op = r.Header.Get("Authorization"), r.Header.Get("Accept-Language"), req.OperationName
		got.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestMe_DecodesUser(t *testing.T) {
	srv, got := newAPI(t, meBody, http.StatusOK)
	c := apiclient.New(srv.URL, "fr", srv.Client())

	u, err := c.Me(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u.ID != "u-1" || u.DisplayName() != "Ada Lovelace" {
		t.Errorf("user = %+v", u)
	}
	if names := u.RoleNames(); len(names) != 2 || names[1] != "pool_operator" {
		t.Errorf("roles = %v", names)
	}
	auth, language, op := got.get()
	if auth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", auth)
	}
	if language != "fr" {
		t.Errorf("Accept-Language = %q", language)
	}
	if op != "Me" {
		t.Errorf("operation = %q", op)
	}
}

func TestMe_NullUser(t *testing.T) {
	srv, _ := newAPI(t, `{"data":{"me":null}}`, http.StatusOK)
	_, err := apiclient.New(srv.URL, "en", srv.Client()).Me(context.Background(), "tok")
	if !errors.Is(err, apiclient.ErrNoUser) {
		t.Errorf("err = %v, want ErrNoUser", err)
	}
}

func TestDo_GraphQLErrors(t *testing.T) {
	srv, _ := newAPI(t, `{"errors":[{"message":"Unauthenticated."}]}`, http.StatusOK)
	_, err := apiclient.New(srv.URL, "en", srv.Client()).Me(context.Background(), "tok")
	var gqlErr *apiclient.Error
	if !errors.As(err, &gqlErr) || gqlErr.Messages[0] != "Unauthenticated." {
		t.Errorf("err = %v, want graphql Error", err)
	}
}

func TestDo_StatusError(t *testing.T) {
	srv, _ := newAPI(t, `bad gateway`, http.StatusBadGateway)
	_, err := apiclient.New(srv.URL, "en", srv.Client()).Me(context.Background(), "tok")
	var se *apiclient.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Errorf("err = %v, want StatusError 502", err)
	}
}

func TestDo_NoTokenSendsNoAuthorization(t *testing.T) {
	srv, got := newAPI(t, `{"data":{}}`, http.StatusOK)
	err := apiclient.New(srv.URL, "en", srv.Client()).Do(context.Background(), "", apiclient.Request{Query: "{ __typename }"}, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if auth, _, _ := got.get(); auth != "" {
		t.Errorf("Authorization = %q, want none", auth)
	}
}

func TestMe_ConcurrentCallsShareRequest(t *testing.T) {
	var hits atomic.Int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			arrived <- struct{}{}
		}
		<-release
		_, _ = w.Write([]byte(meBody))
	}))
	t.Cleanup(srv.Close)
	c := apiclient.New(srv.URL, "en", srv.Client())

	results := make(chan *apiclient.User, 2)
	call := func() {
		u, err := c.Me(context.Background(), "same-token")
		if err != nil {
			t.Errorf("Me: %v", err)
		}
		results <- u
	}

	go call()
	<-arrived
	// The first request is parked in the handler; a second caller joins it.
	go call()
	time.Sleep(100 * time.Millisecond)
	close(release)

	a, b := <-results, <-results
	if a != b {
		t.Error("callers received different results")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("API hit %d times, want 1", n)
	}
}

func TestMe_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		_, _ = w.Write([]byte(meBody))
	}))
	t.Cleanup(srv.Close)
	c := apiclient.New(srv.URL, "en", srv.Client())

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Me(ctx1, "shared-token")
		first <- err
	}()
	<-arrived

	type result struct {
		u   *apiclient.User
		err error
	}
	second := make(chan result, 1)
	go func() {
		u, err := c.Me(context.Background(), "shared-token")
		second <- result{u, err}
	}()
	time.Sleep(100 * time.Millisecond)

	cancel1()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}
	close(release)

	got := <-second
	if got.err != nil {
		t.Fatalf("live caller err = %v", got.err)
	}
	if got.u == nil || got.u.ID != "u-1" {
		t.Errorf("live caller user = %+v", got.u)
	}
}

func TestPool_CachesPerLocale(t *testing.T) {
	p := apiclient.NewPoolWithClient("http://api.invalid/graphql", http.DefaultClient)
	en1, en2, fr := p.For("en"), p.For("en"), p.For("fr")
	if en1 != en2 {
		t.Error("en client not reused")
	}
	if en1 == fr {
		t.Error("fr shares the en client")
	}
	if fr.Locale() != "fr" {
		t.Errorf("fr client locale = %q", fr.Locale())
	}
}

func TestClientStage(t *testing.T) {
	cat, err := i18n.NewCatalog("en")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	p := apiclient.NewPoolWithClient("http://api.invalid/graphql", http.DefaultClient)
	chain := pipeline.MustCompose(i18n.LocaleStage(cat), apiclient.ClientStage(p))

	bag := pipeline.NewBag()
	if _, err := chain.Run(httptest.NewRequest(http.MethodGet, "/fr", nil), bag); err != nil {
		t.Fatalf("Run: %v", err)
	}
	c, err := apiclient.ClientSlot.Get(bag)
	if err != nil {
		t.Fatalf("client slot: %v", err)
	}
	if c != p.For("fr") {
		t.Error("stage did not use the cached fr client")
	}
}

func TestClientStage_RequiresLocale(t *testing.T) {
	p := apiclient.NewPoolWithClient("http://api.invalid/graphql", http.DefaultClient)
	if _, err := pipeline.Compose(apiclient.ClientStage(p)); !errors.Is(err, pipeline.ErrUnsatisfied) {
		t.Errorf("err = %v, want ErrUnsatisfied", err)
	}
}
