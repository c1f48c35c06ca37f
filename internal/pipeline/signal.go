package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized ends a navigation whose user lacks a required role.
var ErrUnauthorized = errors.New("unauthorized")

// Redirect ends a navigation by sending the client elsewhere.
type Redirect struct {
	Location string
	Status   int
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect %d to %s", r.Status, r.Location)
}

// RedirectTo returns a 302 Redirect signal.
func RedirectTo(location string) error {
	return &Redirect{Location: location, Status: http.StatusFound}
}

// AsRedirect reports whether err carries a Redirect.
func AsRedirect(err error) (*Redirect, bool) {
	var r *Redirect
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
