package snapdiff

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ProductionLabel is the label of the site used when no site is supplied.
const ProductionLabel = "production"

// Site is a logical environment label bound to a host.
type Site struct {
	Label string
	Host  string
}

// String satisfies fmt.Stringer, returning the site label.
func (s Site) String() string {
	return s.Label
}

// IsZero reports whether s is the zero Site.
func (s Site) IsZero() bool {
	return s.Label == "" && s.Host == ""
}

// Registry is an immutable set of sites keyed by label.
//
// A Registry is safe for concurrent use.
type Registry struct {
	sites map[string]Site

	// def is the label Production returns.
	def string
}

// RegistryOption is a registry option.
type RegistryOption = func(*Registry)

// WithDefaultSite sets the label returned by Registry.Production. The
// default is ProductionLabel.
func WithDefaultSite(label string) RegistryOption {
	return func(r *Registry) {
		r.def = label
	}
}

// NewRegistry builds a registry from sites. Every site must carry a label and
// a host, and labels must be unique.
func NewRegistry(sites []Site, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		sites: make(map[string]Site, len(sites)),
		def:   ProductionLabel,
	}
	for _, o := range opts {
		o(r)
	}
	for _, s := range sites {
		if s.Label == "" || s.Host == "" {
			return nil, fmt.Errorf("%w: %q -> %q", ErrInvalidSite, s.Label, s.Host)
		}
		if _, ok := r.sites[s.Label]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSite, s.Label)
		}
		r.sites[s.Label] = s
	}
	if _, ok := r.sites[r.def]; !ok && len(r.sites) != 0 {
		return nil, fmt.Errorf("%w: default site %q", ErrUnknownSite, r.def)
	}
	return r, nil
}

// Lookup returns the site registered under label.
func (r *Registry) Lookup(label string) (Site, bool) {
	s, ok := r.sites[label]
	return s, ok
}

// Resolve is like Lookup, but returns ErrUnknownSite for a missing label.
func (r *Registry) Resolve(label string) (Site, error) {
	s, ok := r.sites[label]
	if !ok {
		return Site{}, fmt.Errorf("%w: %q", ErrUnknownSite, label)
	}
	return s, nil
}

// Production returns the default site.
func (r *Registry) Production() Site {
	return r.sites[r.def]
}

// Labels returns the registered labels in sorted order.
func (r *Registry) Labels() []string {
	labels := maps.Keys(r.sites)
	slices.Sort(labels)
	return labels
}

// Len returns the number of registered sites.
func (r *Registry) Len() int {
	return len(r.sites)
}
