package manifest

import (
	"fmt"
	"strings"
)

// Registry is an in-memory set of provider manifests keyed by slug.
type Registry struct {
	manifests map[string]Manifest
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{
		manifests: make(map[string]Manifest),
		order:     make([]string, 0),
	}
}

// Register adds a manifest to the registry.
func (r *Registry) Register(m Manifest) error {
	slug := normalizeSlug(m.Slug)
	if slug == "" {
		return fmt.Errorf("manifest slug cannot be empty")
	}
	if _, exists := r.manifests[slug]; exists {
		return fmt.Errorf("manifest %q already registered", slug)
	}
	m.Slug = slug
	r.manifests[slug] = m
	r.order = append(r.order, slug)
	return nil
}

func (r *Registry) Lookup(slug string) (Manifest, bool) {
	if r == nil {
		return Manifest{}, false
	}
	m, ok := r.manifests[normalizeSlug(slug)]
	return m, ok
}

// All returns all registered manifests in registration order.
func (r *Registry) All() []Manifest {
	out := make([]Manifest, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.manifests[slug])
	}
	return out
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
