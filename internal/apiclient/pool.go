package apiclient

import (
	"net/http"
	"sync"
	"time"

	"github.com/joestump/talent-portal/internal/i18n"
	"github.com/joestump/talent-portal/internal/pipeline"
)

// ClientSlot holds the navigation's API client.
var ClientSlot = pipeline.NewSlot[*Client]("api_client")

// Pool caches one Client per locale.
type Pool struct {
	endpoint string
	hc       *http.Client

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool returns a Pool whose clients time out after timeout.
func NewPool(endpoint string, timeout time.Duration) *Pool {
	return NewPoolWithClient(endpoint, &http.Client{Timeout: timeout})
}

// NewPoolWithClient returns a Pool sharing hc across locales.
func NewPoolWithClient(endpoint string, hc *http.Client) *Pool {
	return &Pool{endpoint: endpoint, hc: hc, clients: make(map[string]*Client)}
}

// For returns the cached client for locale, creating it on first use.
func (p *Pool) For(locale string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[locale]; ok {
		return c
	}
	c := New(p.endpoint, locale, p.hc)
	p.clients[locale] = c
	return c
}

// ClientStage stores the client for the navigation's locale.
func ClientStage(p *Pool) pipeline.Stage {
	return pipeline.Stage{
		Name:     "api_client",
		Requires: []string{i18n.LocaleSlot.Name()},
		Provides: []string{ClientSlot.Name()},
		Run: func(req *pipeline.Request, next pipeline.Next) error {
			l, err := i18n.LocaleSlot.Get(req.Bag)
			if err != nil {
				return err
			}
			ClientSlot.Put(req.Bag, p.For(l.Locale))
			return next()
		},
	}
}
