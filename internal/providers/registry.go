package providers

import (
	"errors"
	"fmt"
)

var ErrNoAdapterFound = errors.New("no adapter found")

// NoAdapterFoundError is returned by Resolve when no registered adapter
// claims the identifier.
type NoAdapterFoundError struct {
	Identifier string
}

func (e *NoAdapterFoundError) Error() string {
	return fmt.Sprintf("no adapter supports %q", e.Identifier)
}

func (e *NoAdapterFoundError) Is(target error) bool {
	return target == ErrNoAdapterFound
}

// Registry is an ordered list of adapters. It is filled once at startup and
// only read afterwards, so it carries no lock.
type Registry struct {
	adapters []SiteAdapter
}

func NewRegistry(adapters ...SiteAdapter) *Registry {
	r := &Registry{}
	for _, a := range adapters {
		r.Register(a)
	}

	return r
}

// Register appends a. Duplicates are kept.
func (r *Registry) Register(a SiteAdapter) {
	r.adapters = append(r.adapters, a)
}

// Resolve returns the first registered adapter that claims identifier.
func (r *Registry) Resolve(identifier string) (SiteAdapter, error) {
	for _, a := range r.adapters {
		if a.Claims(identifier) {
			return a, nil
		}
	}

	return nil, &NoAdapterFoundError{Identifier: identifier}
}

func (r *Registry) Adapters() []SiteAdapter {
	out := make([]SiteAdapter, len(r.adapters))
	copy(out, r.adapters)

	return out
}
