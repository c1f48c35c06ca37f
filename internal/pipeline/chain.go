package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsatisfied is returned by Compose when a stage requires a slot no
	// earlier stage provides.
	ErrUnsatisfied = errors.New("pipeline: unsatisfied stage dependency")

	// ErrNextCalledTwice is returned when a stage continues more than once.
	ErrNextCalledTwice = errors.New("pipeline: next called more than once")
)

// Request is what a stage sees: the incoming HTTP request and the bag.
type Request struct {
	HTTP *http.Request
	Bag  *Bag
}

// Next continues with the following stage.
type Next func() error

// Stage is one step of a Chain. Requires and Provides are slot names; they
// are checked when the chain is composed.
type Stage struct {
	Name     string
	Requires []string
	Provides []string
	Run      func(req *Request, next Next) error
}

// Chain is a composed, dependency-checked list of stages.
type Chain struct {
	stages []Stage
}

// Compose checks that every stage's requirements are provided by the stages
// before it and returns the chain.
func Compose(stages ...Stage) (*Chain, error) {
	provided := make(map[string]string)
	for i, s := range stages {
		if s.Run == nil {
			return nil, fmt.Errorf("pipeline: stage %d (%q) has no Run func", i, s.Name)
		}
		for _, need := range s.Requires {
			if _, ok := provided[need]; !ok {
				return nil, fmt.Errorf("%w: stage %q requires %q", ErrUnsatisfied, s.Name, need)
			}
		}
		for _, out := range s.Provides {
			if prev, ok := provided[out]; ok {
				return nil, fmt.Errorf("pipeline: slot %q provided by both %q and %q", out, prev, s.Name)
			}
			provided[out] = s.Name
		}
	}
	return &Chain{stages: append([]Stage(nil), stages...)}, nil
}

// MustCompose is Compose for chains built at start-up; it panics on error.
func MustCompose(stages ...Stage) *Chain {
	c, err := Compose(stages...)
	if err != nil {
		panic(err)
	}
	return c
}

// With returns a new chain with more stages appended.
func (c *Chain) With(stages ...Stage) (*Chain, error) {
	all := make([]Stage, 0, len(c.stages)+len(stages))
	all = append(all, c.stages...)
	all = append(all, stages...)
	return Compose(all...)
}

// Stages returns the stage names in run order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes the stages in order against bag. completed is true only when
// every stage continued. A stage error ends the run and is returned wrapped
// with the stage name; use errors.Is / AsRedirect to inspect it.
func (c *Chain) Run(r *http.Request, bag *Bag) (completed bool, err error) {
	req := &Request{HTTP: r, Bag: bag}
	err = c.run(0, req, &completed)
	return completed, err
}

func (c *Chain) run(i int, req *Request, completed *bool) error {
	if i == len(c.stages) {
		*completed = true
		return nil
	}
	s := c.stages[i]
	called := false
	next := func() error {
		if called {
			return fmt.Errorf("%w: %s", ErrNextCalledTwice, s.Name)
		}
		called = true
		return c.run(i+1, req, completed)
	}
	if err := s.Run(req, next); err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return err
		}
		return &StageError{Stage: s.Name, Err: err}
	}
	return nil
}

// StageError records which stage ended a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }
