// Package apiclient talks to the platform's GraphQL API.
package apiclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	graphql "github.com/hasura/go-graphql-client"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/joestump/talent-portal/internal/metrics"
)

// ErrNoUser is returned by Me when the API answers with me: null.
var ErrNoUser = errors.New("apiclient: no current user")

// Error carries the errors array of a GraphQL response.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// StatusError is returned for non-200 HTTP responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql: unexpected status %d: %s", e.Code, e.Body)
}

// Request is a raw GraphQL operation.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// flightTimeout bounds a shared query when the HTTP client has no timeout.
const flightTimeout = 30 * time.Second

// Client issues GraphQL requests in one locale.
type Client struct {
	endpoint string
	locale   string
	hc       *http.Client
	flight   *singleflight.Group
}

// New returns a Client for endpoint whose requests carry
// Accept-Language: locale. hc may be nil.
func New(endpoint, locale string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: endpoint, locale: locale, hc: hc, flight: &singleflight.Group{}}
}

// Locale returns the locale this client was configured with.
func (c *Client) Locale() string { return c.locale }

// httpClient returns a client that attaches token as a bearer credential.
func (c *Client) httpClient(token string) *http.Client {
	if token == "" {
		return c.hc
	}
	return &http.Client{
		Timeout: c.hc.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.hc.Transport,
		},
	}
}

// gql returns a GraphQL client authenticated as token.
func (c *Client) gql(token string) *graphql.Client {
	return graphql.NewClient(c.endpoint, c.httpClient(token)).
		WithRequestModifier(func(r *http.Request) {
			r.Header.Set("Accept", "application/json")
			r.Header.Set("Accept-Language", c.locale)
		})
}

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GraphQLRequestsTotal.WithLabelValues(op, outcome).Inc()
}

// Do sends a raw query and decodes the data member into out. out may be nil.
func (c *Client) Do(ctx context.Context, token string, req Request, out any) error {
	var opts []graphql.Option
	if req.OperationName != "" {
		opts = append(opts, graphql.OperationName(req.OperationName))
	}
	data, err := c.gql(token).ExecRaw(ctx, req.Query, req.Variables, opts...)
	if err == nil && out != nil && len(data) > 0 {
		if uerr := json.Unmarshal(data, out); uerr != nil {
			err = fmt.Errorf("decode graphql data: %w", uerr)
		}
	}
	err = classify(err)
	observe(req.OperationName, err)
	return err
}

// classify maps client errors onto StatusError, Error or a wrapped
// transport error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var errs graphql.Errors
	if !errors.As(err, &errs) {
		return err
	}
	gqlErr := &Error{}
	for _, e := range errs {
		var ne graphql.NetworkError
		if errors.As(e, &ne) {
			return &StatusError{Code: ne.StatusCode(), Body: ne.Body()}
		}
		if code, _ := e.Extensions["code"].(string); isLocal(code) {
			return fmt.Errorf("graphql request: %w", err)
		}
		gqlErr.Messages = append(gqlErr.Messages, e.Message)
	}
	return gqlErr
}

// isLocal reports whether code marks an error raised by the client itself
// rather than returned by the API.
func isLocal(code string) bool {
	switch code {
	case graphql.ErrRequestError, graphql.ErrJsonEncode, graphql.ErrJsonDecode,
		graphql.ErrGraphQLEncode, graphql.ErrGraphQLDecode:
		return true
	}
	return false
}

// meQuery selects the fields of User. Field names follow the API's
// lowerCamelCase (firstName, roleAssignments, isTeamBased).
type meQuery struct {
	Me *User `graphql:"me"`
}

// Me returns the user that token belongs to. Concurrent calls for the same
// token share one request; the shared request outlives a caller that gives
// up, so one cancelled navigation cannot fail the others.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	sum := sha256.Sum256([]byte(token))
	key := c.locale + ":" + hex.EncodeToString(sum[:])

	ch := c.flight.DoChan(key, func() (any, error) {
		timeout := c.hc.Timeout
		if timeout <= 0 {
			timeout = flightTimeout
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		var q meQuery
		err := classify(c.gql(token).Query(fctx, &q, nil, graphql.OperationName("Me")))
		observe("Me", err)
		if err != nil {
			return nil, err
		}
		if q.Me == nil {
			return nil, ErrNoUser
		}
		return q.Me, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*User), nil
	}
}
