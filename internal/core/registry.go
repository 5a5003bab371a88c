package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// BindFunc maps fetched result sets into a report's typed aggregate.
type BindFunc func(in BindInput) (Bound, error)

// RenderFunc lays out bound data as a document in the family's native format.
type RenderFunc func(ctx context.Context, in RenderInput) (*Document, error)

// Definition binds a report id to its data schema, binder and renderer.
type Definition struct {
	ID     ReportID
	Format OutputFormat
	Schema Schema
	Bind   BindFunc
	Render RenderFunc
}

// Registry maps report ids to definitions. It is filled once at startup
// and only read afterwards.
type Registry struct {
	mu   sync.RWMutex
	defs map[ReportID]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[ReportID]Definition)}
}

// Register adds a definition to the registry.
// Panics if the id is already registered or the definition is incomplete.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.ID]; exists {
		panic(fmt.Sprintf("report already registered: %s", def.ID))
	}
	if def.Bind == nil || def.Render == nil {
		panic(fmt.Sprintf("report %s: binder and renderer are required", def.ID))
	}
	if len(def.Schema.Sets) == 0 {
		panic(fmt.Sprintf("report %s: schema declares no result sets", def.ID))
	}

	r.defs[def.ID] = def
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id ReportID) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	return def, ok
}

// All returns every definition sorted by id.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Len returns the number of registered reports.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
