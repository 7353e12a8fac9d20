package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrCriterionNotFound is returned by Lookup for unknown criterion codes.
var ErrCriterionNotFound = eris.New("registry: criterion not found")

// Registry is a concurrency-safe catalogue of criterion definitions keyed by
// code. Registration is expected at startup; lookups may run concurrently
// with late registrations.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// New creates a registry holding the given definitions.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewDefault creates a registry preloaded with the built-in catalogue.
func NewDefault() *Registry {
	r, err := New(Catalogue()...)
	if err != nil {
		// The built-in catalogue is static; a failure here is a programming error.
		panic(err)
	}
	return r
}

// Register adds or replaces a definition by code. The table name defaults to
// the response table derived from the code.
func (r *Registry) Register(d Definition) error {
	d.Code = strings.TrimSpace(d.Code)
	if d.Table == "" && d.Code != "" {
		d.Table = DefaultTable(d.Code)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d = d.clone()

	r.mu.Lock()
	r.defs[d.Code] = d
	r.mu.Unlock()
	return nil
}

// Lookup returns the definition for code or ErrCriterionNotFound.
func (r *Registry) Lookup(code string) (Definition, error) {
	r.mu.RLock()
	d, ok := r.defs[strings.TrimSpace(code)]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, eris.Wrapf(ErrCriterionNotFound, "code %q", code)
	}
	return d.clone(), nil
}

// List returns all definitions ordered by code.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of registered criteria.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
