package theme

import "sync"

// Applier writes className onto the page elements matched by selectors.
type Applier interface {
	Apply(selectors []string, className string)
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(selectors []string, className string)

func (f ApplierFunc) Apply(selectors []string, className string) { f(selectors, className) }

// Attributes records the class name per selector so templates can render
// it into data-theme attributes. The zero value is ready to use.
type Attributes struct {
	mu     sync.RWMutex
	values map[string]string
	order  []string
	calls  int
}

// Target is one selector and the class name applied to it.
type Target struct {
	Selector string
	Class    string
}

// NewAttributes returns an empty Attributes.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

func (a *Attributes) Apply(selectors []string, className string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values == nil {
		a.values = make(map[string]string)
	}
	for _, s := range selectors {
		if _, seen := a.values[s]; !seen {
			a.order = append(a.order, s)
		}
		a.values[s] = className
	}
	a.calls++
}

// Get returns the class name applied to selector, or "".
func (a *Attributes) Get(selector string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.values[selector]
}

// Calls returns how many times Apply ran.
func (a *Attributes) Calls() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.calls
}

// Targets returns every selector applied so far, in first-applied order.
func (a *Attributes) Targets() []Target {
	a.mu.RLock()
	defer a.mu.RUnlock()
	targets := make([]Target, 0, len(a.order))
	for _, s := range a.order {
		targets = append(targets, Target{Selector: s, Class: a.values[s]})
	}
	return targets
}
