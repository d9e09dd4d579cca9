package model

// Graph is the immutable set of type descriptors discovered for one module.
type Graph struct {
	module  string
	context string
	catalog *Catalog
	types   []*TypeDescriptor
	byName  map[string]*TypeDescriptor
}

// NewGraph builds a graph from descriptors. Descriptors sharing a name are merged
// into one: capabilities are combined, handlers are concatenated with duplicates
// (same kind, message and method) dropped, and the first non-empty context and
// source location win. Graph order is the order of first appearance.
// Types without a context are owned by the module's bounded context.
func NewGraph(module, boundedContext string, catalog *Catalog, types ...TypeDescriptor) *Graph {
	g := &Graph{
		module:  module,
		context: boundedContext,
		catalog: catalog,
		byName:  make(map[string]*TypeDescriptor),
	}
	for _, t := range types {
		g.merge(t)
	}
	for _, t := range g.types {
		if t.Context == "" {
			t.Context = boundedContext
		}
	}
	return g
}

// merge adds t to the graph or folds it into an existing descriptor of the same name.
func (g *Graph) merge(t TypeDescriptor) {
	existing, ok := g.byName[t.Name]
	if !ok {
		td := t.clone()
		td.Index = len(g.types)
		td.Handlers = dedupHandlers(nil, td.Handlers)
		g.types = append(g.types, &td)
		g.byName[td.Name] = &td
		return
	}

	existing.Capabilities |= t.Capabilities
	if existing.Context == "" {
		existing.Context = t.Context
	}
	if existing.Source.File == "" {
		existing.Source = t.Source
	}
	existing.Handlers = dedupHandlers(existing.Handlers, t.clone().Handlers)
}

// dedupHandlers appends handlers to base, skipping ones already present.
func dedupHandlers(base, handlers []Handler) []Handler {
	seen := make(map[string]bool, len(base)+len(handlers))
	for _, h := range base {
		seen[h.key()] = true
	}
	for _, h := range handlers {
		if seen[h.key()] {
			continue
		}
		seen[h.key()] = true
		base = append(base, h)
	}
	return base
}

// Module returns the module name.
func (g *Graph) Module() string { return g.module }

// BoundedContext returns the module's bounded context.
func (g *Graph) BoundedContext() string { return g.context }

// Catalog returns the module's message catalog.
func (g *Graph) Catalog() *Catalog { return g.catalog }

// Len returns the number of types in the graph.
func (g *Graph) Len() int { return len(g.types) }

// Types returns the descriptors in graph order. The returned slice is a copy;
// the descriptors themselves must be treated as read-only.
func (g *Graph) Types() []*TypeDescriptor {
	out := make([]*TypeDescriptor, len(g.types))
	copy(out, g.types)
	return out
}

// Type returns the descriptor with the given name.
func (g *Graph) Type(name string) (*TypeDescriptor, bool) {
	t, ok := g.byName[name]
	return t, ok
}

// Contains reports whether t is one of this graph's descriptors.
func (g *Graph) Contains(t *TypeDescriptor) bool {
	if t == nil || t.Index < 0 || t.Index >= len(g.types) {
		return false
	}
	return g.types[t.Index] == t
}

// WithCapability returns the descriptors having all of the given capabilities.
func (g *Graph) WithCapability(c Capability) []*TypeDescriptor {
	var out []*TypeDescriptor
	for _, t := range g.types {
		if t.Is(c) {
			out = append(out, t)
		}
	}
	return out
}
